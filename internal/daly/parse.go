// internal/daly/parse.go
package daly

// Per-command response decoders. Each takes the 8 data bytes of an
// already-validated frame. No I/O.

// parsePackInfo decodes 0x90.
//
// Bytes 0..1 carry instantaneous pack voltage in deci-volts; some
// device variants mirror it in bytes 2..3 and leave 0..1 zero. The
// zero-fallback is preserved behavior, variant-dependent, not a
// guess about which offset is authoritative.
func parsePackInfo(data []byte, pack *PackSummary) {
	v0 := float64(u16be(data, 0)) / 10.0
	v2 := float64(u16be(data, 2)) / 10.0

	if v0 > 0 {
		pack.VoltageV = v0
	} else {
		pack.VoltageV = v2
	}
	pack.CumulativeVoltageV = v2
	pack.CurrentA = decodeCurrent(u16be(data, 4))
	pack.SOCPercent = float64(u16be(data, 6)) / 10.0
}

// parseCellExtremes decodes 0x91. Voltages are in mV on the wire.
func parseCellExtremes(data []byte, ex *Extremes) {
	ex.VMaxV = float64(u16be(data, 0)) / 1000.0
	ex.VMaxCell = int(data[2])
	ex.VMinV = float64(u16be(data, 3)) / 1000.0
	ex.VMinCell = int(data[5])
}

// parseTempExtremes decodes 0x92.
func parseTempExtremes(data []byte, t *Temps) {
	t.TMaxC = decodeTemp(data[0])
	t.TMaxIdx = int(data[1])
	t.TMinC = decodeTemp(data[2])
	t.TMinIdx = int(data[3])
}

// parseMOSStatus decodes 0x93.
func parseMOSStatus(data []byte, m *MOSCaps) {
	m.State = int(data[0])
	m.ChargeFET = data[1] != 0
	m.DischargeFET = data[2] != 0
	m.LifeCycles = int(data[3])
	m.RemainCapacityMah = int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
}

// parseStatus decodes 0x94.
func parseStatus(data []byte, s *Status) {
	s.CellCount = int(data[0])
	s.SensorCount = int(data[1])
	s.ChargerPresent = data[2] != 0
	s.LoadPresent = data[3] != 0
	s.DIOBits = int(data[4])
}

// parseCellVoltageFrames assembles per-cell millivolts from collected
// 0x95 frames keyed by their declared 1-based index. Each frame
// carries 3 big-endian cell values after the index byte. Slots whose
// frame never arrived stay zero.
func parseCellVoltageFrames(frames map[int][]byte, cellCount int, out *[MaxCells]int) {
	for i := range out {
		out[i] = 0
	}
	if cellCount > MaxCells {
		cellCount = MaxCells
	}

	for frameNo, data := range frames {
		base := (frameNo - 1) * 3
		for j := 0; j < 3; j++ {
			idx := base + j
			if idx >= cellCount {
				break
			}
			out[idx] = int(u16be(data, 1+2*j))
		}
	}
}

// parseTemperatureFrames assembles per-sensor temperatures from
// collected 0x96 frames. Each frame carries 7 offset-encoded values
// after the index byte.
func parseTemperatureFrames(frames map[int][]byte, sensorCount int, out *[MaxTemps]float64) {
	for i := range out {
		out[i] = 0
	}
	if sensorCount > MaxTemps {
		sensorCount = MaxTemps
	}

	for frameNo, data := range frames {
		base := (frameNo - 1) * 7
		for j := 0; j < 7; j++ {
			idx := base + j
			if idx >= sensorCount {
				break
			}
			out[idx] = decodeTemp(data[1+j])
		}
	}
}

// parseBalanceStatus decodes the 0x97 bitfield: bit i set means cell
// i+1 is balancing. The bytes are little-endian in bit position.
func parseBalanceStatus(data []byte, cellCount int, out *[MaxCells]bool) {
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(data[i]) << (8 * i)
	}

	if cellCount > MaxCells {
		cellCount = MaxCells
	}
	for i := 0; i < cellCount; i++ {
		out[i] = bits>>i&1 == 1
	}
}
