// internal/daly/health.go
package daly

import "fmt"

// HealthStatus classifies a cell or the whole pack.
type HealthStatus int

const (
	HealthNormal HealthStatus = iota
	HealthWarning
	HealthCritical
)

func (h HealthStatus) String() string {
	switch h {
	case HealthCritical:
		return "CRITICAL"
	case HealthWarning:
		return "WARNING"
	default:
		return "NORMAL"
	}
}

// worse returns the more severe of two statuses.
func (h HealthStatus) worse(o HealthStatus) HealthStatus {
	if o > h {
		return o
	}
	return h
}

// Severity buckets decoded faults for reporting.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// faultEntry ties one fault vector position to its description and
// reporting severity. Positions are (byte, bit) within the 8 status
// bytes of the 0x98 response. The severity column is local policy,
// not part of the protocol.
type faultEntry struct {
	byteIdx  int
	bitIdx   int
	desc     string
	severity Severity
}

// faultTable lists all 64 positions in byte-major, bit-minor order.
// Descriptions follow the vendor's level-1/level-2 alarm naming; L2
// alarms and hardware failures report as critical.
var faultTable = []faultEntry{
	// Byte 0: cell and pack voltage alarms
	{0, 0, "Cell volt high L1", SeverityWarning},
	{0, 1, "Cell volt high L2", SeverityCritical},
	{0, 2, "Cell volt low L1", SeverityWarning},
	{0, 3, "Cell volt low L2", SeverityCritical},
	{0, 4, "Sum volt high L1", SeverityWarning},
	{0, 5, "Sum volt high L2", SeverityCritical},
	{0, 6, "Sum volt low L1", SeverityWarning},
	{0, 7, "Sum volt low L2", SeverityCritical},

	// Byte 1: temperature alarms
	{1, 0, "Chg temp high L1", SeverityWarning},
	{1, 1, "Chg temp high L2", SeverityCritical},
	{1, 2, "Chg temp low L1", SeverityWarning},
	{1, 3, "Chg temp low L2", SeverityCritical},
	{1, 4, "Dischg temp high L1", SeverityWarning},
	{1, 5, "Dischg temp high L2", SeverityCritical},
	{1, 6, "Dischg temp low L1", SeverityWarning},
	{1, 7, "Dischg temp low L2", SeverityCritical},

	// Byte 2: current and SOC alarms
	{2, 0, "Chg OC L1", SeverityWarning},
	{2, 1, "Chg OC L2", SeverityCritical},
	{2, 2, "Dischg OC L1", SeverityWarning},
	{2, 3, "Dischg OC L2", SeverityCritical},
	{2, 4, "SOC high L1", SeverityWarning},
	{2, 5, "SOC high L2", SeverityCritical},
	{2, 6, "SOC low L1", SeverityWarning},
	{2, 7, "SOC low L2", SeverityCritical},

	// Byte 3: balance alarms, upper half reserved
	{3, 0, "Diff volt L1", SeverityWarning},
	{3, 1, "Diff volt L2", SeverityCritical},
	{3, 2, "Diff temp L1", SeverityWarning},
	{3, 3, "Diff temp L2", SeverityCritical},
	{3, 4, "Reserved", SeverityInfo},
	{3, 5, "Reserved", SeverityInfo},
	{3, 6, "Reserved", SeverityInfo},
	{3, 7, "Reserved", SeverityInfo},

	// Byte 4: MOSFET failures
	{4, 0, "Chg MOS temp high", SeverityCritical},
	{4, 1, "Dischg MOS temp high", SeverityCritical},
	{4, 2, "Chg MOS temp sensor err", SeverityWarning},
	{4, 3, "Dischg MOS temp sensor err", SeverityWarning},
	{4, 4, "Chg MOS adhesion err", SeverityCritical},
	{4, 5, "Dischg MOS adhesion err", SeverityCritical},
	{4, 6, "Chg MOS open circuit", SeverityCritical},
	{4, 7, "Dischg MOS open circuit", SeverityCritical},

	// Byte 5: internal hardware
	{5, 0, "AFE collect chip err", SeverityCritical},
	{5, 1, "Voltage collect dropped", SeverityWarning},
	{5, 2, "Cell temp sensor err", SeverityWarning},
	{5, 3, "EEPROM err", SeverityWarning},
	{5, 4, "RTC err", SeverityInfo},
	{5, 5, "Precharge failure", SeverityCritical},
	{5, 6, "Communication failure", SeverityWarning},
	{5, 7, "Internal comm failure", SeverityWarning},

	// Byte 6: measurement and protection
	{6, 0, "Current module fault", SeverityCritical},
	{6, 1, "Sum voltage detect fault", SeverityWarning},
	{6, 2, "Short circuit protect fault", SeverityCritical},
	{6, 3, "Low volt forbid charge", SeverityWarning},
	{6, 4, "Reserved", SeverityInfo},
	{6, 5, "Reserved", SeverityInfo},
	{6, 6, "Reserved", SeverityInfo},
	{6, 7, "Reserved", SeverityInfo},

	// Byte 7: vendor fault code bits
	{7, 0, "Fault code bit0", SeverityInfo},
	{7, 1, "bit1", SeverityInfo},
	{7, 2, "bit2", SeverityInfo},
	{7, 3, "bit3", SeverityInfo},
	{7, 4, "bit4", SeverityInfo},
	{7, 5, "bit5", SeverityInfo},
	{7, 6, "bit6", SeverityInfo},
	{7, 7, "bit7", SeverityInfo},
}

// faultSeverity resolves a decoded description back to its severity.
var faultSeverity = func() map[string]Severity {
	m := make(map[string]Severity, len(faultTable))
	for _, e := range faultTable {
		m[e.desc] = e.severity
	}
	return m
}()

// DecodeFaults expands the 8 status bytes of a 0x98 response into
// human-readable descriptions, byte-major bit-minor, capped at
// MaxFaults.
func DecodeFaults(data []byte) []string {
	var out []string
	for _, e := range faultTable {
		if data[e.byteIdx]&(1<<e.bitIdx) == 0 {
			continue
		}
		out = append(out, e.desc)
		if len(out) == MaxFaults {
			break
		}
	}
	return out
}

// FaultSummary reclassifies a flat fault list into severity buckets.
type FaultSummary struct {
	Critical []string
	Warning  []string
	Info     []string
}

// CategorizeFaults buckets decoded fault descriptions by severity.
// Unknown strings land in the info bucket. Each bucket is capped
// independently at MaxFaults.
func CategorizeFaults(faults []string) FaultSummary {
	var sum FaultSummary
	for _, f := range faults {
		switch faultSeverity[f] {
		case SeverityCritical:
			if len(sum.Critical) < MaxFaults {
				sum.Critical = append(sum.Critical, f)
			}
		case SeverityWarning:
			if len(sum.Warning) < MaxFaults {
				sum.Warning = append(sum.Warning, f)
			}
		default:
			if len(sum.Info) < MaxFaults {
				sum.Info = append(sum.Info, f)
			}
		}
	}
	return sum
}

// CellHealth is the per-cell classification result.
type CellHealth struct {
	Index     int // 1-based
	VoltageV  float64
	Status    HealthStatus
	Balancing bool
	Reason    string // empty when normal
}

// PackHealth is the derived pack-level view. It is owned by the
// caller; nothing points back into the Snapshot.
type PackHealth struct {
	Overall      HealthStatus
	StatusReason string

	VMaxV   float64
	VMinV   float64
	VDeltaV float64
	VAvgV   float64

	Cells        []CellHealth
	ProblemCells int
	CellCount    int
}

// AnalyzeCellHealth flags cells whose voltage deviates abnormally from
// the pack average. Thresholds are in millivolts. Overall status is
// the worst individual cell status.
func AnalyzeCellHealth(snap Snapshot, warningMv, criticalMv float64) PackHealth {
	n := snap.Status.CellCount
	if n > MaxCells {
		n = MaxCells
	}

	health := PackHealth{CellCount: n}
	if n == 0 {
		health.StatusReason = "no cells reported"
		return health
	}

	sum := 0.0
	vmax, vmin := snap.CellMillivolts[0], snap.CellMillivolts[0]
	for i := 0; i < n; i++ {
		mv := snap.CellMillivolts[i]
		sum += float64(mv)
		if mv > vmax {
			vmax = mv
		}
		if mv < vmin {
			vmin = mv
		}
	}
	mean := sum / float64(n)

	health.VMaxV = float64(vmax) / 1000.0
	health.VMinV = float64(vmin) / 1000.0
	health.VDeltaV = float64(vmax-vmin) / 1000.0
	health.VAvgV = mean / 1000.0

	health.Cells = make([]CellHealth, n)
	for i := 0; i < n; i++ {
		mv := float64(snap.CellMillivolts[i])
		dev := mv - mean
		if dev < 0 {
			dev = -dev
		}

		cell := CellHealth{
			Index:     i + 1,
			VoltageV:  mv / 1000.0,
			Balancing: snap.Balance[i],
		}

		switch {
		case dev >= criticalMv:
			cell.Status = HealthCritical
			cell.Reason = fmt.Sprintf("deviation %.0f mV from pack average", dev)
		case dev >= warningMv:
			cell.Status = HealthWarning
			cell.Reason = fmt.Sprintf("deviation %.0f mV from pack average", dev)
		}

		if cell.Status != HealthNormal {
			health.ProblemCells++
		}
		health.Overall = health.Overall.worse(cell.Status)
		health.Cells[i] = cell
	}

	switch health.Overall {
	case HealthCritical:
		health.StatusReason = fmt.Sprintf("%d cell(s) outside voltage deviation thresholds", health.ProblemCells)
	case HealthWarning:
		health.StatusReason = fmt.Sprintf("%d cell(s) approaching voltage deviation limit", health.ProblemCells)
	default:
		health.StatusReason = "all cells within thresholds"
	}

	return health
}
