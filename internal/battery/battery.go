// internal/battery/battery.go
package battery

import "strings"

// Chemistry selects the discharge curve and temperature retention
// table used by the estimators.
type Chemistry int

const (
	ChemistryUnknown Chemistry = iota
	ChemistryLiIon             // standard Li-ion (18650/21700)
	ChemistryLiPo
	ChemistryLiFePO4
	ChemistryNiMH
	ChemistryLeadAcid
)

func (c Chemistry) String() string {
	switch c {
	case ChemistryLiIon:
		return "Li-ion"
	case ChemistryLiPo:
		return "LiPo"
	case ChemistryLiFePO4:
		return "LiFePO4"
	case ChemistryNiMH:
		return "NiMH"
	case ChemistryLeadAcid:
		return "Lead-Acid"
	default:
		return "Unknown"
	}
}

// ChemistryFromString parses the common spellings. Unrecognized input
// maps to ChemistryUnknown, which selects the linear fallback model.
func ChemistryFromString(s string) Chemistry {
	switch strings.ToLower(s) {
	case "li-ion", "liion":
		return ChemistryLiIon
	case "lipo", "li-po":
		return ChemistryLiPo
	case "lifepo4", "life":
		return ChemistryLiFePO4
	case "nimh", "ni-mh":
		return ChemistryNiMH
	case "lead-acid", "sla", "pb":
		return ChemistryLeadAcid
	default:
		return ChemistryUnknown
	}
}

// Config describes one battery pack. Immutable per session; supplied
// by configuration.
type Config struct {
	Name            string
	Chemistry       Chemistry
	MinVoltage      float64 // empty pack voltage
	MaxVoltage      float64 // full pack voltage
	NominalVoltage  float64
	WarningPercent  float64
	CriticalPercent float64
	CapacityMah     float64
	CellsSeries     int
	CellsParallel   int
}

// State is one measurement the estimators consume. Current is the
// discharge magnitude in Amps (positive = draining).
type State struct {
	Voltage          float64
	Current          float64
	Temperature      float64 // Celsius; <= -100 means no reading
	PercentRemaining float64
	Valid            bool
}

// Runtime estimation bounds (minutes).
const (
	// RuntimeIdle is returned when no meaningful current is drawn:
	// effectively infinite, kept finite so every consumer gets a
	// displayable number.
	RuntimeIdle = 999.0
	RuntimeCap  = 9999.0

	// idleCurrentA: below this draw the divide would dominate the
	// estimate with noise.
	idleCurrentA = 0.01

	// noTempReading marks an absent temperature in State.
	noTempReading = -100.0
)

// CalculatePercentage estimates state of charge from pack voltage
// using the chemistry's discharge curve. Never errors: out-of-range
// inputs clamp to 0 or 100.
func CalculatePercentage(voltage float64, cfg Config) float64 {
	// Unknown or unconfigured packs get a direct linear min-max map.
	if cfg.Chemistry == ChemistryUnknown || cfg.CellsSeries <= 0 {
		span := cfg.MaxVoltage - cfg.MinVoltage
		if span <= 0 {
			return 0
		}
		return clampPercent((voltage - cfg.MinVoltage) / span * 100)
	}

	cellVoltage := voltage / float64(cfg.CellsSeries)

	var soc float64
	if curve, ok := dischargeCurves[cfg.Chemistry]; ok {
		soc = interpolateSOC(cellVoltage, curve)
	} else {
		// No tabulated curve for this chemistry: assume a linear
		// Li-ion style cell range.
		soc = (cellVoltage - 3.0) / (4.2 - 3.0)
	}

	return clampPercent(soc * 100)
}

// EstimateTimeRemaining estimates runtime minutes from the remaining
// capacity and present draw, derated for temperature. Never errors;
// degraded inputs produce clamped boundary values.
func EstimateTimeRemaining(state State, cfg Config) float64 {
	if !state.Valid {
		return 0
	}
	if state.Current <= idleCurrentA {
		return RuntimeIdle
	}

	effectiveCapacity := cfg.CapacityMah
	if state.Temperature > noTempReading {
		effectiveCapacity *= tempCapacityFactor(cfg.Chemistry, state.Temperature)
	}

	remainingMah := effectiveCapacity * state.PercentRemaining / 100
	minutes := remainingMah / (state.Current * 1000) * 60

	if minutes < 0 {
		return 0
	}
	if minutes > RuntimeCap {
		return RuntimeCap
	}
	return minutes
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
