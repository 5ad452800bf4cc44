// internal/battery/battery_test.go
package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liionPack() Config {
	return Config{
		Name:        "main",
		Chemistry:   ChemistryLiIon,
		CapacityMah: 10000,
		CellsSeries: 4,
		MinVoltage:  11.4,
		MaxVoltage:  16.68,
	}
}

func TestCalculatePercentage_CurveEndpoints(t *testing.T) {
	cfg := liionPack()

	// At or below the cutoff voltage the pack is empty, at or above
	// the full voltage it is full. Exactly 0 and 100, not epsilon.
	assert.Equal(t, 0.0, CalculatePercentage(4*2.85, cfg))
	assert.Equal(t, 0.0, CalculatePercentage(4*2.50, cfg))
	assert.Equal(t, 100.0, CalculatePercentage(4*4.17, cfg))
	assert.Equal(t, 100.0, CalculatePercentage(4*4.30, cfg))
}

func TestCalculatePercentage_MonotonicInVoltage(t *testing.T) {
	for _, chem := range []Chemistry{ChemistryLiIon, ChemistryLiPo, ChemistryLiFePO4} {
		cfg := liionPack()
		cfg.Chemistry = chem

		prev := -1.0
		for v := 2.0 * 4; v <= 4.4*4; v += 0.01 {
			pct := CalculatePercentage(v, cfg)
			require.GreaterOrEqual(t, pct, prev, "chemistry %v at %.2f V", chem, v)
			require.GreaterOrEqual(t, pct, 0.0)
			require.LessOrEqual(t, pct, 100.0)
			prev = pct
		}
	}
}

func TestCalculatePercentage_CurveInterior(t *testing.T) {
	cfg := liionPack()
	cfg.CellsSeries = 1

	// 3.68 V is the tabulated 50% point for Li-ion.
	assert.InDelta(t, 50.0, CalculatePercentage(3.68, cfg), 0.01)
	// Midway between the 40% (3.60 V) and 50% (3.68 V) points.
	assert.InDelta(t, 45.0, CalculatePercentage(3.64, cfg), 0.01)
}

func TestCalculatePercentage_LinearFallback(t *testing.T) {
	cfg := Config{
		Chemistry:  ChemistryUnknown,
		MinVoltage: 10.0,
		MaxVoltage: 14.0,
	}

	assert.Equal(t, 0.0, CalculatePercentage(10.0, cfg))
	assert.Equal(t, 100.0, CalculatePercentage(14.0, cfg))
	assert.InDelta(t, 50.0, CalculatePercentage(12.0, cfg), 0.001)

	// Degenerate span never divides by zero.
	cfg.MaxVoltage = cfg.MinVoltage
	assert.Equal(t, 0.0, CalculatePercentage(12.0, cfg))

	// A known chemistry without a series count also falls back.
	cfg = liionPack()
	cfg.CellsSeries = 0
	assert.InDelta(t, 50.0, CalculatePercentage((11.4+16.68)/2, cfg), 0.001)
}

func TestCalculatePercentage_UntabulatedChemistry(t *testing.T) {
	cfg := liionPack()
	cfg.Chemistry = ChemistryNiMH
	cfg.CellsSeries = 1

	// No discharge curve for NiMH: generic 3.0..4.2 linear cell model.
	assert.InDelta(t, 50.0, CalculatePercentage(3.6, cfg), 0.001)
	assert.Equal(t, 0.0, CalculatePercentage(2.9, cfg))
	assert.Equal(t, 100.0, CalculatePercentage(4.3, cfg))
}

func TestEstimateTimeRemaining_Basic(t *testing.T) {
	cfg := liionPack()
	cfg.CapacityMah = 1000

	state := State{
		Voltage:          15.0,
		Current:          1.0,
		Temperature:      25,
		PercentRemaining: 100,
		Valid:            true,
	}

	// 1000 mAh at 1 A is one hour, no derating at 25 C.
	assert.InDelta(t, 60.0, EstimateTimeRemaining(state, cfg), 0.001)

	state.PercentRemaining = 50
	assert.InDelta(t, 30.0, EstimateTimeRemaining(state, cfg), 0.001)
}

func TestEstimateTimeRemaining_IdleSentinel(t *testing.T) {
	cfg := liionPack()
	state := State{Current: 0.005, PercentRemaining: 80, Temperature: 25, Valid: true}

	assert.Equal(t, RuntimeIdle, EstimateTimeRemaining(state, cfg))

	state.Current = 0
	assert.Equal(t, RuntimeIdle, EstimateTimeRemaining(state, cfg))

	state.Current = -2.0 // charging
	assert.Equal(t, RuntimeIdle, EstimateTimeRemaining(state, cfg))
}

func TestEstimateTimeRemaining_InvalidState(t *testing.T) {
	assert.Equal(t, 0.0, EstimateTimeRemaining(State{}, liionPack()))
}

func TestEstimateTimeRemaining_TemperatureDerating(t *testing.T) {
	cfg := liionPack()
	cfg.CapacityMah = 1000

	state := State{Current: 1.0, PercentRemaining: 100, Temperature: 0, Valid: true}

	// Li-ion retains 88% of capacity at 0 C.
	assert.InDelta(t, 60.0*0.88, EstimateTimeRemaining(state, cfg), 0.001)

	// Warmer than 25 C clamps flat, no bonus capacity.
	state.Temperature = 45
	assert.InDelta(t, 60.0, EstimateTimeRemaining(state, cfg), 0.001)

	// Colder than the table clamps at the coldest entry.
	state.Temperature = -60
	assert.InDelta(t, 60.0*0.40, EstimateTimeRemaining(state, cfg), 0.001)

	// Sentinel temperature means no reading, no derating.
	state.Temperature = -100
	assert.InDelta(t, 60.0, EstimateTimeRemaining(state, cfg), 0.001)
}

func TestEstimateTimeRemaining_Clamped(t *testing.T) {
	cfg := liionPack()
	cfg.CapacityMah = 1e9

	state := State{Current: 0.02, PercentRemaining: 100, Temperature: 25, Valid: true}
	assert.Equal(t, RuntimeCap, EstimateTimeRemaining(state, cfg))

	state.PercentRemaining = -5
	cfg.CapacityMah = 1000
	assert.Equal(t, 0.0, EstimateTimeRemaining(state, cfg))
}

func TestInterpolateRetention_Midpoints(t *testing.T) {
	// Halfway between 25 C (1.00) and 0 C (0.88).
	assert.InDelta(t, 0.94, tempCapacityFactor(ChemistryLiIon, 12.5), 0.001)
	// Unknown chemistry borrows the Li-ion table.
	assert.InDelta(t, 0.88, tempCapacityFactor(ChemistryUnknown, 0), 0.001)
	// Lead acid drops hard below freezing.
	assert.InDelta(t, 0.46, tempCapacityFactor(ChemistryLeadAcid, 0), 0.001)
}

func TestChemistryFromString(t *testing.T) {
	cases := map[string]Chemistry{
		"li-ion":    ChemistryLiIon,
		"LiIon":     ChemistryLiIon,
		"lipo":      ChemistryLiPo,
		"Li-Po":     ChemistryLiPo,
		"LiFePO4":   ChemistryLiFePO4,
		"life":      ChemistryLiFePO4,
		"NiMH":      ChemistryNiMH,
		"ni-mh":     ChemistryNiMH,
		"lead-acid": ChemistryLeadAcid,
		"SLA":       ChemistryLeadAcid,
		"pb":        ChemistryLeadAcid,
		"":          ChemistryUnknown,
		"plutonium": ChemistryUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ChemistryFromString(in), "input %q", in)
	}
}

func TestChemistry_String(t *testing.T) {
	assert.Equal(t, "Li-ion", ChemistryLiIon.String())
	assert.Equal(t, "LiFePO4", ChemistryLiFePO4.String())
	assert.Equal(t, "Unknown", Chemistry(99).String())
}
