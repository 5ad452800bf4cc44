// internal/battery/smoothing.go
package battery

import (
	"math"
	"sync"
	"time"
)

// Source identifies an independent origin of runtime estimates so that
// sensors do not contaminate each other's filter state.
type Source string

const (
	SourcePowerMonitor Source = "power-monitor" // direct shunt reading
	SourceBMS          Source = "bms"
	SourceUnified      Source = "unified" // fused reading
)

// Smoothing weights. Raw runtime estimates swing wildly at low
// discharge currents (small denominator); a fixed weight would either
// lag badly on load steps or jitter badly at idle, so the weight
// follows the magnitude of the current change.
const (
	alphaDefault = 0.1 // steady state
	alphaDrift   = 0.2 // stable for a while, let slow drift through
	alphaMedium  = 0.3 // current changed > 10%
	alphaFast    = 0.5 // current changed > 20%

	// driftWindow: without a significant change for this long, step
	// up to alphaDrift.
	driftWindow = 60 * time.Second

	// changeFloorA: below this previous-current magnitude the
	// fractional change is meaningless, treat as unchanged.
	changeFloorA = 0.1
)

type sourceState struct {
	smoothed    float64
	prevCurrent float64
	lastChange  time.Time
}

// Smoother is an explicit keyed store of per-source EMA state. It
// persists across poll cycles; create one per process and share it.
// Safe for concurrent use.
type Smoother struct {
	mu     sync.Mutex
	states map[Source]*sourceState

	now func() time.Time // test hook
}

// NewSmoother creates an empty store. State is lazily created on the
// first observation per source.
func NewSmoother() *Smoother {
	return &Smoother{
		states: make(map[Source]*sourceState),
		now:    time.Now,
	}
}

// Smooth blends a raw runtime estimate into the source's moving
// average and returns the smoothed value. The first observation for a
// source seeds the filter and is returned unchanged.
func (s *Smoother) Smooth(src Source, rawMinutes, currentA float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[src]
	if !ok {
		s.states[src] = &sourceState{
			smoothed:    rawMinutes,
			prevCurrent: currentA,
			lastChange:  s.now(),
		}
		return rawMinutes
	}

	change := 0.0
	if math.Abs(st.prevCurrent) > changeFloorA {
		change = math.Abs(currentA-st.prevCurrent) / math.Abs(st.prevCurrent)
	}

	now := s.now()
	alpha := alphaDefault
	switch {
	case change > 0.2:
		alpha = alphaFast
		st.lastChange = now
	case change > 0.1:
		alpha = alphaMedium
		st.lastChange = now
	case now.Sub(st.lastChange) > driftWindow:
		alpha = alphaDrift
	}

	st.smoothed = alpha*rawMinutes + (1-alpha)*st.smoothed
	st.prevCurrent = currentA

	return st.smoothed
}
