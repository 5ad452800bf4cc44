// internal/daly/poller.go
package daly

import (
	"errors"
	"fmt"
	"time"
)

// Multi-frame collection bounds. The attempt ceilings are generous on
// purpose: the device interleaves duplicate and out-of-order frames
// and the loop keeps asking until enough distinct indices arrive.
const (
	cellsPerFrame     = 3
	tempsPerFrame     = 7
	cellFrameAttempts = 32
	tempFrameAttempts = 16
)

// requester is the slice of Session the poller depends on.
type requester interface {
	Request(cmd byte, timeout time.Duration, payload []byte) ([]byte, error)
	ReadFrame(expect byte, timeout time.Duration) ([]byte, error)
}

// Poller drives the fixed command sequence and maintains the latest
// fully-valid Snapshot. One poll cycle is strictly sequential; the
// caller decides cadence. Not safe for concurrent use, same as the
// Session underneath it.
type Poller struct {
	sess    requester
	timeout time.Duration

	data        Snapshot
	lastMissing int
}

// NewPoller creates a poller over an established session.
func NewPoller(sess requester, timeout time.Duration) (*Poller, error) {
	if sess == nil {
		return nil, errors.New("daly: poller requires a session")
	}
	if timeout <= 0 {
		return nil, errors.New("daly: poller timeout must be > 0")
	}
	return &Poller{sess: sess, timeout: timeout}, nil
}

// Snapshot returns a copy of the latest snapshot. Before the first
// successful cycle it is zero-valued with Valid=false.
func (p *Poller) Snapshot() Snapshot {
	s := p.data
	if p.data.Faults != nil {
		s.Faults = append([]string(nil), p.data.Faults...)
	}
	return s
}

// Poll performs exactly one full cycle. Mandatory steps abort the
// cycle on failure, recording which command failed and leaving the
// previous fully-valid snapshot in place. The optional balance and
// fault steps may fail without invalidating the cycle.
func (p *Poller) Poll() error {
	// Work on a copy so a failed cycle never exposes partial state.
	next := p.Snapshot()

	steps := []struct {
		cmd   byte
		name  string
		parse func(data []byte)
	}{
		{CmdPackInfo, "pack info", func(d []byte) { parsePackInfo(d, &next.Pack) }},
		{CmdCellExtremes, "cell voltage extremes", func(d []byte) { parseCellExtremes(d, &next.Extremes) }},
		{CmdTempExtremes, "temperature extremes", func(d []byte) { parseTempExtremes(d, &next.Temps) }},
		{CmdMOSStatus, "MOS status", func(d []byte) { parseMOSStatus(d, &next.MOS) }},
		{CmdStatus, "system status", func(d []byte) { parseStatus(d, &next.Status) }},
	}

	for _, st := range steps {
		data, err := p.sess.Request(st.cmd, p.timeout, nil)
		if err != nil {
			msg := fmt.Sprintf("failed to read %s (0x%02x)", st.name, st.cmd)
			p.data.LastErr = msg
			return fmt.Errorf("daly: %s: %w", msg, err)
		}
		st.parse(data)
	}

	missing := 0

	// Per-cell voltages (0x95): ceil(cells/3) frames.
	if n := next.Status.CellCount; n > 0 {
		needed := (n + cellsPerFrame - 1) / cellsPerFrame
		frames := p.collectFrames(CmdCellVoltages, needed, cellFrameAttempts)
		parseCellVoltageFrames(frames, n, &next.CellMillivolts)
		missing += needed - len(frames)
	}

	// Per-sensor temperatures (0x96): ceil(sensors/7) frames.
	if n := next.Status.SensorCount; n > 0 {
		needed := (n + tempsPerFrame - 1) / tempsPerFrame
		frames := p.collectFrames(CmdTemperatures, needed, tempFrameAttempts)
		parseTemperatureFrames(frames, n, &next.Temps.SensorsC)
		missing += needed - len(frames)
	}

	p.lastMissing = missing

	// Balance status (0x97), optional: previous flags stand on failure.
	if data, err := p.sess.Request(CmdBalanceStatus, p.timeout, nil); err == nil {
		parseBalanceStatus(data, next.Status.CellCount, &next.Balance)
	}

	// Fault flags (0x98), optional.
	if data, err := p.sess.Request(CmdFaults, p.timeout, nil); err == nil {
		next.Faults = DecodeFaults(data)
	}

	next.LastOK = time.Now()
	next.LastErr = ""
	next.Valid = true
	p.data = next

	return nil
}

// MissingFrames reports how many multi-frame responses never arrived
// during the last cycle. Zero slots in the cell array correspond to
// these gaps.
func (p *Poller) MissingFrames() int {
	return p.lastMissing
}

// collectFrames requests a multi-frame command and reads the burst of
// responses, collecting them by their declared 1-based index until
// needed distinct frames arrived or the attempt ceiling is hit. When a
// read times out with frames still missing, the request is reissued:
// some variants answer one frame per request and the index dedup makes
// re-asking safe. Duplicates and out-of-range indices are discarded;
// a short map is a partial-success outcome, not an error.
func (p *Poller) collectFrames(cmd byte, needed, maxAttempts int) map[int][]byte {
	frames := make(map[int][]byte, needed)

	data, err := p.sess.Request(cmd, p.timeout, nil)

	for i := 0; i < maxAttempts; i++ {
		if err == nil {
			frameNo := int(data[0])
			if frameNo != 0 && frameNo != 0xFF && frameNo <= needed {
				if _, dup := frames[frameNo]; !dup {
					frames[frameNo] = data
				}
			}
			if len(frames) >= needed {
				break
			}
			data, err = p.sess.ReadFrame(cmd, p.timeout)
			continue
		}
		data, err = p.sess.Request(cmd, p.timeout, nil)
	}

	return frames
}
