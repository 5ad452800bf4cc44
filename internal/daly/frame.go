// internal/daly/frame.go
package daly

import (
	"errors"
	"fmt"
)

// Fixed wire-format constants. These define the protocol and MUST NOT
// be configurable.
const (
	StartByte = 0xA5 // frame start marker
	HostAddr  = 0x40 // "upper computer" address used in requests
	BMSAddr   = 0x01 // address the BMS answers from
	LenFixed  = 0x08 // data length byte, always 8
	FrameLen  = 13   // start + addr + cmd + len + data[8] + checksum

	payloadLen  = 8
	checksumPos = FrameLen - 1
)

// Command bytes. Request and response carry the same command.
const (
	CmdPackInfo      = 0x90 // pack voltage, current, SOC
	CmdCellExtremes  = 0x91 // min/max cell voltage
	CmdTempExtremes  = 0x92 // min/max temperature
	CmdMOSStatus     = 0x93 // FET state, cycles, remaining capacity
	CmdStatus        = 0x94 // cell count, sensor count, presence bits
	CmdCellVoltages  = 0x95 // per-cell voltages, multi-frame
	CmdTemperatures  = 0x96 // per-sensor temperatures, multi-frame
	CmdBalanceStatus = 0x97 // cell balancing bitfield
	CmdFaults        = 0x98 // 64-bit fault vector

	CmdReadCapacity  = 0x50 // rated capacity read (community extension)
	CmdWriteCapacity = 0x10 // rated capacity write (community extension)
	CmdWriteSOC      = 0x21 // SOC write (community extension)
)

// Structural parse errors. A frame is atomically valid or invalid.
var (
	ErrShortFrame  = errors.New("daly: frame shorter than 13 bytes")
	ErrBadStart    = errors.New("daly: bad start byte")
	ErrBadAddress  = errors.New("daly: bad address byte")
	ErrBadLength   = errors.New("daly: bad length byte")
	ErrBadChecksum = errors.New("daly: bad checksum")
)

// Checksum is the 8-bit truncated sum of the given bytes.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// BuildRequest assembles one 13-byte request frame.
// A nil payload means 8 zero bytes.
func BuildRequest(cmd byte, payload []byte) ([]byte, error) {
	if payload != nil && len(payload) != payloadLen {
		return nil, fmt.Errorf("daly: payload must be %d bytes, got %d", payloadLen, len(payload))
	}

	frame := make([]byte, FrameLen)
	frame[0] = StartByte
	frame[1] = HostAddr
	frame[2] = cmd
	frame[3] = LenFixed
	copy(frame[4:12], payload)
	frame[checksumPos] = Checksum(frame[:checksumPos])

	return frame, nil
}

// ParseFrame validates one received frame and returns its command byte
// and the 8 data bytes. The returned data slice aliases buf.
func ParseFrame(buf []byte) (byte, []byte, error) {
	if len(buf) < FrameLen {
		return 0, nil, ErrShortFrame
	}
	if buf[0] != StartByte {
		return 0, nil, ErrBadStart
	}
	if buf[1] != BMSAddr && buf[1] != HostAddr {
		return 0, nil, ErrBadAddress
	}
	if buf[3] != LenFixed {
		return 0, nil, ErrBadLength
	}
	if Checksum(buf[:checksumPos]) != buf[checksumPos] {
		return 0, nil, ErrBadChecksum
	}
	return buf[2], buf[4:12], nil
}

// ---- numeric decoding helpers ----

// u16be reads a big-endian 16-bit value at offset.
func u16be(data []byte, offset int) uint16 {
	return uint16(data[offset])<<8 | uint16(data[offset+1])
}

// decodeCurrent converts the offset-encoded wire current to Amps.
// The device biases the raw value by +30000 to carry sign; this is
// NOT two's complement.
func decodeCurrent(raw uint16) float64 {
	return (float64(raw) - 30000) / 10.0
}

// decodeTemp converts an offset-by-+40 wire temperature to Celsius.
// Also not two's complement.
func decodeTemp(raw byte) float64 {
	return float64(raw) - 40
}
