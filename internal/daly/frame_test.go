// internal/daly/frame_test.go
package daly

import (
	"bytes"
	"errors"
	"testing"
)

// respFrame builds a BMS-addressed response frame for tests.
func respFrame(cmd byte, data []byte) []byte {
	f := make([]byte, FrameLen)
	f[0] = StartByte
	f[1] = BMSAddr
	f[2] = cmd
	f[3] = LenFixed
	copy(f[4:12], data)
	f[checksumPos] = Checksum(f[:checksumPos])
	return f
}

func TestBuildRequest_RoundTrip(t *testing.T) {
	cmds := []byte{
		CmdPackInfo, CmdCellExtremes, CmdTempExtremes, CmdMOSStatus,
		CmdStatus, CmdCellVoltages, CmdTemperatures, CmdBalanceStatus,
		CmdFaults, CmdReadCapacity,
	}
	payload := []byte{0x12, 0x00, 0xFF, 0x7E, 0x01, 0x02, 0x03, 0x04}

	for _, cmd := range cmds {
		frame, err := BuildRequest(cmd, payload)
		if err != nil {
			t.Fatalf("BuildRequest(0x%02x) err=%v", cmd, err)
		}
		if len(frame) != FrameLen {
			t.Fatalf("frame length %d, want %d", len(frame), FrameLen)
		}

		gotCmd, gotData, err := ParseFrame(frame)
		if err != nil {
			t.Fatalf("ParseFrame(0x%02x) err=%v", cmd, err)
		}
		if gotCmd != cmd {
			t.Fatalf("command 0x%02x, want 0x%02x", gotCmd, cmd)
		}
		if !bytes.Equal(gotData, payload) {
			t.Fatalf("data %v, want %v", gotData, payload)
		}
	}
}

func TestBuildRequest_NilPayloadIsZeros(t *testing.T) {
	frame, err := BuildRequest(CmdPackInfo, nil)
	if err != nil {
		t.Fatalf("BuildRequest err=%v", err)
	}
	if !bytes.Equal(frame[4:12], make([]byte, 8)) {
		t.Fatalf("payload not zeroed: %v", frame[4:12])
	}
}

func TestBuildRequest_BadPayloadLength(t *testing.T) {
	if _, err := BuildRequest(CmdPackInfo, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short payload")
	}
	if _, err := BuildRequest(CmdPackInfo, make([]byte, 9)); err == nil {
		t.Fatal("expected error for long payload")
	}
}

func TestParseFrame_SingleBitFlipRejected(t *testing.T) {
	frame, err := BuildRequest(CmdStatus, []byte{0x10, 0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("BuildRequest err=%v", err)
	}

	for pos := 0; pos < FrameLen; pos++ {
		for bit := 0; bit < 8; bit++ {
			mut := append([]byte(nil), frame...)
			mut[pos] ^= 1 << bit
			if _, _, err := ParseFrame(mut); err == nil {
				t.Fatalf("flip byte %d bit %d accepted", pos, bit)
			}
		}
	}
}

func TestParseFrame_DataFlipIsChecksumError(t *testing.T) {
	frame := respFrame(CmdPackInfo, []byte{0, 52, 0, 52, 0x75, 0x30, 0x03, 0x20})
	frame[6] ^= 0x01
	if _, _, err := ParseFrame(frame); !errors.Is(err, ErrBadChecksum) {
		t.Fatalf("err=%v, want ErrBadChecksum", err)
	}
}

func TestParseFrame_Structural(t *testing.T) {
	valid := respFrame(CmdPackInfo, make([]byte, 8))

	cases := []struct {
		name   string
		mutate func([]byte)
		want   error
	}{
		{"bad start", func(f []byte) { f[0] = 0xA4 }, ErrBadStart},
		{"bad address", func(f []byte) { f[1] = 0x02 }, ErrBadAddress},
		{"bad length", func(f []byte) { f[3] = 0x07 }, ErrBadLength},
	}
	for _, tc := range cases {
		f := append([]byte(nil), valid...)
		tc.mutate(f)
		f[checksumPos] = Checksum(f[:checksumPos])
		if _, _, err := ParseFrame(f); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err=%v, want %v", tc.name, err, tc.want)
		}
	}

	if _, _, err := ParseFrame(valid[:12]); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("short frame: err=%v, want ErrShortFrame", err)
	}
}

func TestDecodeCurrent_OffsetEncoding(t *testing.T) {
	cases := []struct {
		raw  uint16
		want float64
	}{
		{30000, 0},
		{30105, 10.5},
		{29895, -10.5},
		{0, -3000},
	}
	for _, tc := range cases {
		if got := decodeCurrent(tc.raw); got != tc.want {
			t.Fatalf("decodeCurrent(%d)=%v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeTemp_Offset40(t *testing.T) {
	if got := decodeTemp(40); got != 0 {
		t.Fatalf("decodeTemp(40)=%v, want 0", got)
	}
	if got := decodeTemp(0); got != -40 {
		t.Fatalf("decodeTemp(0)=%v, want -40", got)
	}
	if got := decodeTemp(65); got != 25 {
		t.Fatalf("decodeTemp(65)=%v, want 25", got)
	}
}
