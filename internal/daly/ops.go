// internal/daly/ops.go
package daly

import (
	"fmt"
	"math"
	"time"
)

// Capacity is the rated-capacity record held by the BMS.
type Capacity struct {
	RatedMah      int
	NominalCellMv int
}

// Write commands get a longer deadline: the device persists to EEPROM
// before acknowledging.
const writeTimeout = 600 * time.Millisecond

// ReadCapacity reads the rated capacity record (0x50).
// Response layout: data[0..3] rated mAh BE, data[6..7] nominal cell mV BE.
func (s *Session) ReadCapacity(timeout time.Duration) (Capacity, error) {
	data, err := s.Request(CmdReadCapacity, timeout, nil)
	if err != nil {
		return Capacity{}, fmt.Errorf("daly: read capacity: %w", err)
	}

	return Capacity{
		RatedMah:      int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3]),
		NominalCellMv: int(u16be(data, 6)),
	}, nil
}

// WriteCapacity sets the rated capacity record (0x10).
// Payload layout: [mAh BE32, 0, 0, nominal cell mV BE16].
func (s *Session) WriteCapacity(ratedMah, nominalCellMv int) error {
	if ratedMah <= 0 {
		return fmt.Errorf("daly: rated capacity must be positive, got %d", ratedMah)
	}

	payload := []byte{
		byte(ratedMah >> 24), byte(ratedMah >> 16), byte(ratedMah >> 8), byte(ratedMah),
		0, 0,
		byte(nominalCellMv >> 8), byte(nominalCellMv),
	}

	if _, err := s.Request(CmdWriteCapacity, writeTimeout, payload); err != nil {
		return fmt.Errorf("daly: write capacity: %w", err)
	}
	return nil
}

// WriteSOC overrides the reported state of charge (0x21). The percent
// is clamped to 0..100 and sent in tenths, preceded by a wall-clock
// stamp the device records alongside the override.
// Payload layout: [YY MM DD HH mm SS, tenths BE16].
func (s *Session) WriteSOC(percent float64) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	tenths := int(math.Round(percent * 10))

	now := time.Now()
	payload := []byte{
		byte(now.Year() % 100),
		byte(now.Month()),
		byte(now.Day()),
		byte(now.Hour()),
		byte(now.Minute()),
		byte(now.Second()),
		byte(tenths >> 8), byte(tenths),
	}

	if _, err := s.Request(CmdWriteSOC, writeTimeout, payload); err != nil {
		return fmt.Errorf("daly: write SOC: %w", err)
	}
	return nil
}
