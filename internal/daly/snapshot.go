// internal/daly/snapshot.go
package daly

import "time"

// Bounds on device geometry. Frames reporting indices outside these
// are dropped, not stored.
const (
	MaxCells  = 32
	MaxTemps  = 8
	MaxFaults = 32
)

// DefaultDeadband is the current magnitude (Amps) below which the pack
// is classified as idle, to avoid mode flicker around zero.
const DefaultDeadband = 0.15

// PackSummary holds the 0x90 fields.
type PackSummary struct {
	VoltageV           float64 // instantaneous pack voltage
	CumulativeVoltageV float64 // mirror field on some variants
	CurrentA           float64 // positive = charge, negative = discharge
	SOCPercent         float64 // as reported by the BMS
}

// Extremes holds the 0x91 fields. Cell numbers are 1-based.
type Extremes struct {
	VMaxV    float64
	VMaxCell int
	VMinV    float64
	VMinCell int
}

// Temps holds the 0x92 extremes plus the per-sensor values collected
// from 0x96 frames. SensorsC is bounded by SensorCount.
type Temps struct {
	TMaxC    float64
	TMaxIdx  int
	TMinC    float64
	TMinIdx  int
	SensorsC [MaxTemps]float64
}

// MOSCaps holds the 0x93 fields.
type MOSCaps struct {
	State             int
	ChargeFET         bool
	DischargeFET      bool
	LifeCycles        int
	RemainCapacityMah int
}

// Status holds the 0x94 fields. ChargerPresent and LoadPresent are the
// raw device bits; they are retained but observed to be unreliable, so
// consumers should prefer the current-based inference below.
type Status struct {
	CellCount      int
	SensorCount    int
	ChargerPresent bool
	LoadPresent    bool
	DIOBits        int
}

// Snapshot is one consistent BMS reading produced by a full poll
// cycle. It is never partially mutated and exposed between exchanges:
// a caller sees either the previous fully-valid snapshot or the new
// one.
type Snapshot struct {
	Pack     PackSummary
	Extremes Extremes
	Temps    Temps
	MOS      MOSCaps
	Status   Status

	// CellMillivolts[i] is cell i+1 in mV; entries past
	// Status.CellCount are meaningless. Zero can mean either "0 mV"
	// or "frame never arrived"; Status.CellCount bounds which slots
	// were requested at all.
	CellMillivolts [MaxCells]int
	Balance        [MaxCells]bool

	Faults []string

	LastOK  time.Time
	LastErr string
	Valid   bool
}

// State is the inferred charge/discharge classification.
type State int

const (
	StateIdle State = iota
	StateCharging
	StateDischarging
)

func (s State) String() string {
	switch s {
	case StateCharging:
		return "charging"
	case StateDischarging:
		return "discharging"
	default:
		return "idle"
	}
}

// InferState classifies pack activity from current and FET flags. The
// deadband suppresses toggling around zero current. This inference is
// the trusted signal; the device's own presence bits are not.
func InferState(currentA float64, chargeFET, dischargeFET bool, deadband float64) State {
	switch {
	case currentA > deadband && chargeFET:
		return StateCharging
	case currentA < -deadband && dischargeFET:
		return StateDischarging
	default:
		return StateIdle
	}
}

// InferCharger reports charger presence from current sign and the
// charge FET only.
func InferCharger(currentA float64, chargeFET bool, deadband float64) bool {
	return currentA > deadband && chargeFET
}

// InferLoad reports load presence from current sign and the discharge
// FET only.
func InferLoad(currentA float64, dischargeFET bool, deadband float64) bool {
	return currentA < -deadband && dischargeFET
}
