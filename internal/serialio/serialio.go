// internal/serialio/serialio.go
package serialio

import (
	"io"
	"time"

	"github.com/goburrow/serial"
)

// Params describes the port. The BMS speaks 8N1; only the address,
// baud and slice timeout vary in practice.
type Params struct {
	Address  string
	BaudRate int
	Timeout  time.Duration // per-Read slice, not a request deadline
}

// sliceTimeout is the driver-level read granularity. Request deadlines
// are enforced above this layer, so the slice just needs to be short
// enough not to dominate a poll cycle.
const sliceTimeout = 50 * time.Millisecond

func ensureDefaults(p *Params) {
	if p.BaudRate == 0 {
		p.BaudRate = 9600
	}
	if p.Timeout <= 0 {
		p.Timeout = sliceTimeout
	}
}

// Open opens the serial port in raw 8N1 mode and returns the byte
// stream the transport session consumes.
func Open(p Params) (io.ReadWriteCloser, error) {
	ensureDefaults(&p)
	return serial.Open(&serial.Config{
		Address:  p.Address,
		BaudRate: p.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  p.Timeout,
	})
}
