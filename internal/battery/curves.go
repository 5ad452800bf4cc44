// internal/battery/curves.go
package battery

// Discharge curves and capacity-retention tables. All voltages are
// under-load cell voltages, not open circuit, aggregated from vendor
// datasheets. Curves are monotonically increasing in voltage.

// curvePoint pairs a state-of-charge fraction with the expected cell
// voltage at that charge level.
type curvePoint struct {
	soc     float64
	voltage float64
}

var liionCurve = []curvePoint{
	{0.00, 2.85}, // cutoff
	{0.05, 3.21},
	{0.10, 3.32},
	{0.20, 3.43},
	{0.30, 3.49},
	{0.40, 3.60},
	{0.50, 3.68},
	{0.60, 3.75},
	{0.70, 3.81},
	{0.80, 3.89},
	{0.90, 4.03},
	{0.95, 4.11},
	{1.00, 4.17}, // fully charged
}

var lipoCurve = []curvePoint{
	{0.00, 3.15},
	{0.05, 3.26},
	{0.10, 3.37},
	{0.20, 3.48},
	{0.30, 3.59},
	{0.40, 3.68},
	{0.50, 3.73},
	{0.60, 3.78},
	{0.70, 3.83},
	{0.80, 3.91},
	{0.90, 4.05},
	{0.95, 4.11},
	{1.00, 4.17},
}

// LiFePO4 is very flat through the middle of the range.
var lifepo4Curve = []curvePoint{
	{0.00, 2.43},
	{0.05, 2.84},
	{0.10, 3.04},
	{0.20, 3.15},
	{0.30, 3.20},
	{0.40, 3.24},
	{0.50, 3.26},
	{0.60, 3.29},
	{0.70, 3.31},
	{0.80, 3.33},
	{0.90, 3.36},
	{0.95, 3.38},
	{1.00, 3.38},
}

var dischargeCurves = map[Chemistry][]curvePoint{
	ChemistryLiIon:   liionCurve,
	ChemistryLiPo:    lipoCurve,
	ChemistryLiFePO4: lifepo4Curve,
}

// interpolateSOC maps a cell voltage onto the curve, linear between
// the two bracketing points, clamped at the ends.
func interpolateSOC(cellVoltage float64, curve []curvePoint) float64 {
	if cellVoltage <= curve[0].voltage {
		return 0
	}
	last := curve[len(curve)-1]
	if cellVoltage >= last.voltage {
		return 1
	}

	for i := 0; i < len(curve)-1; i++ {
		lo, hi := curve[i], curve[i+1]
		if cellVoltage >= lo.voltage && cellVoltage <= hi.voltage {
			pos := (cellVoltage - lo.voltage) / (hi.voltage - lo.voltage)
			return lo.soc + pos*(hi.soc-lo.soc)
		}
	}
	return 0.5
}

// retentionPoint pairs a temperature with the usable-capacity fraction
// relative to 25 C.
type retentionPoint struct {
	tempC  float64
	factor float64
}

// Tables are ordered warm to cold, anchored at 1.0 @ 25 C, clamped
// flat above 25 C and below the coldest point.
var (
	retLiion   = []retentionPoint{{25, 1.00}, {0, 0.88}, {-10, 0.74}, {-20, 0.55}, {-30, 0.40}}
	retLipo    = []retentionPoint{{25, 1.00}, {0, 0.90}, {-10, 0.78}, {-20, 0.60}, {-30, 0.45}}
	retLifepo4 = []retentionPoint{{25, 1.00}, {0, 0.72}, {-10, 0.60}, {-20, 0.45}, {-30, 0.35}}
	retNimh    = []retentionPoint{{25, 1.00}, {0, 0.85}, {-10, 0.70}, {-20, 0.55}, {-30, 0.40}}
	retLead    = []retentionPoint{{25, 1.00}, {0, 0.46}, {-10, 0.40}, {-20, 0.30}, {-30, 0.20}}
)

var retentionTables = map[Chemistry][]retentionPoint{
	ChemistryLiIon:    retLiion,
	ChemistryLiPo:     retLipo,
	ChemistryLiFePO4:  retLifepo4,
	ChemistryNiMH:     retNimh,
	ChemistryLeadAcid: retLead,
}

// tempCapacityFactor returns the capacity retention fraction for this
// chemistry at the given temperature. Unknown chemistries use the
// Li-ion table as the least wrong default.
func tempCapacityFactor(chem Chemistry, tempC float64) float64 {
	tbl, ok := retentionTables[chem]
	if !ok {
		tbl = retLiion
	}
	return interpolateRetention(tbl, tempC)
}

func interpolateRetention(tbl []retentionPoint, tempC float64) float64 {
	if tempC >= tbl[0].tempC {
		return tbl[0].factor
	}
	last := tbl[len(tbl)-1]
	if tempC <= last.tempC {
		return last.factor
	}

	for i := 1; i < len(tbl); i++ {
		if tempC >= tbl[i].tempC {
			t0, f0 := tbl[i].tempC, tbl[i].factor
			t1, f1 := tbl[i-1].tempC, tbl[i-1].factor
			return f0 + (f1-f0)*(tempC-t0)/(t1-t0)
		}
	}
	return 1
}
