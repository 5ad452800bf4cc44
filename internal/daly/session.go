// internal/daly/session.go
package daly

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// ErrTimeout means no valid frame arrived within the deadline. It is
// distinct from the structural errors in frame.go: structural rejects
// resume the hunt and only surface through the OnReject hook.
var ErrTimeout = errors.New("daly: response timeout")

// Session owns one half-duplex serial byte stream and performs the
// request/response round trip. It is not safe for concurrent use: the
// protocol cannot tolerate interleaved requests, so exactly one
// goroutine may drive a Session.
type Session struct {
	port io.ReadWriteCloser

	// OnReject, if set, is called once per structural reject
	// (bad address/length/checksum, unexpected command) observed
	// while hunting for a frame. Wire it to diagnostics; rejects are
	// otherwise silent.
	OnReject func(err error)
}

// NewSession wraps an already-opened port. The port's own read timeout
// should be a short slice (tens of ms); overall deadlines are enforced
// here, not by the driver.
func NewSession(port io.ReadWriteCloser) *Session {
	return &Session{port: port}
}

// Close closes the underlying port. Any in-flight read fails on its
// next operation; this is a hard error, not cancellation.
func (s *Session) Close() error {
	return s.port.Close()
}

// Request flushes stale input, writes exactly one request frame and
// reads one response bounded by timeout. Single attempt: retry policy
// belongs to the caller.
func (s *Session) Request(cmd byte, timeout time.Duration, payload []byte) ([]byte, error) {
	frame, err := BuildRequest(cmd, payload)
	if err != nil {
		return nil, err
	}

	s.drain()

	n, err := s.port.Write(frame)
	if err != nil {
		return nil, fmt.Errorf("daly: write 0x%02x: %w", cmd, err)
	}
	if n != len(frame) {
		return nil, fmt.Errorf("daly: short write for 0x%02x: %d of %d bytes", cmd, n, len(frame))
	}

	return s.ReadFrame(cmd, timeout)
}

// ReadFrame hunts for a start byte and returns the 8 data bytes of the
// first structurally valid frame carrying the expected command
// (expect == 0 accepts any command). Elapsed time is tracked from a
// single start point so rejects do not extend the deadline.
func (s *Session) ReadFrame(expect byte, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, FrameLen)

	for {
		if !time.Now().Before(deadline) {
			return nil, ErrTimeout
		}

		// Hunt for the start marker one byte at a time.
		n, err := s.readExact(buf[:1], deadline)
		if err != nil {
			return nil, fmt.Errorf("daly: read: %w", err)
		}
		if n != 1 {
			return nil, ErrTimeout
		}
		if buf[0] != StartByte {
			continue
		}

		// Read the fixed-length tail.
		n, err = s.readExact(buf[1:], deadline)
		if err != nil {
			return nil, fmt.Errorf("daly: read: %w", err)
		}
		if n != FrameLen-1 {
			return nil, ErrTimeout
		}

		cmd, data, err := ParseFrame(buf)
		if err != nil {
			s.reject(err)
			continue
		}
		if expect != 0 && cmd != expect {
			s.reject(fmt.Errorf("daly: unexpected command 0x%02x, want 0x%02x", cmd, expect))
			continue
		}

		out := make([]byte, payloadLen)
		copy(out, data)
		return out, nil
	}
}

// readExact reads len(buf) bytes or as many as arrive before the
// deadline. The deadline is fixed by the caller: it is never re-derived
// per iteration, so retried slices cannot creep past it. Driver-level
// read timeouts are retryable; any other error is a dead handle and is
// returned as-is, never mistaken for a quiet bus.
func (s *Session) readExact(buf []byte, deadline time.Time) (int, error) {
	total := 0
	for total < len(buf) {
		if !time.Now().Before(deadline) {
			return total, nil
		}
		n, err := s.port.Read(buf[total:])
		total += n
		if err != nil {
			if sliceTimeout(err) {
				continue
			}
			return total, err
		}
	}
	return total, nil
}

// drain discards whatever is sitting in the driver's input buffer so a
// stale response cannot be matched against the next request. Costs at
// most one driver read slice when the buffer is empty.
func (s *Session) drain() {
	buf := make([]byte, 256)
	for {
		n, err := s.port.Read(buf)
		if n == 0 || err != nil {
			return
		}
	}
}

func (s *Session) reject(err error) {
	if s.OnReject != nil {
		s.OnReject(err)
	}
}

// sliceTimeout reports whether a read error only means "no bytes
// within the driver's read slice" rather than a dead handle.
func sliceTimeout(err error) bool {
	if errors.Is(err, serial.ErrTimeout) {
		return true
	}
	var to interface{ Timeout() bool }
	return errors.As(err, &to) && to.Timeout()
}
