// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates the process registry with the standard Go and
// process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the metrics HTTP handler for the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics holds the daemon's own instruments.
type AppMetrics struct {
	PollCycles    *prometheus.CounterVec // labels: result=ok|error
	FrameRejects  prometheus.Counter     // structural rejects while hunting
	MissingFrames prometheus.Counter     // multi-frame reassembly gaps

	SOCPercent     prometheus.Gauge
	PackVoltage    prometheus.Gauge
	PackCurrent    prometheus.Gauge
	RuntimeMinutes prometheus.Gauge
	ActiveFaults   prometheus.Gauge
	ProblemCells   prometheus.Gauge
}

// NewAppMetrics registers and returns the daemon instruments.
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bms_poll_cycles_total",
			Help: "Completed BMS poll cycles by result.",
		}, []string{"result"}),
		FrameRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bms_frame_rejects_total",
			Help: "Frames discarded during resynchronization.",
		}),
		MissingFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bms_missing_frames_total",
			Help: "Multi-frame responses that never arrived.",
		}),
		SOCPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bms_soc_percent",
			Help: "State of charge reported by the BMS.",
		}),
		PackVoltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bms_pack_voltage_volts",
			Help: "Total pack voltage.",
		}),
		PackCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bms_pack_current_amps",
			Help: "Pack current, positive while charging.",
		}),
		RuntimeMinutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bms_runtime_estimate_minutes",
			Help: "Smoothed runtime estimate.",
		}),
		ActiveFaults: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bms_active_faults",
			Help: "Number of active fault flags.",
		}),
		ProblemCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bms_problem_cells",
			Help: "Cells outside voltage deviation thresholds.",
		}),
	}
	reg.MustRegister(
		m.PollCycles, m.FrameRejects, m.MissingFrames,
		m.SOCPercent, m.PackVoltage, m.PackCurrent,
		m.RuntimeMinutes, m.ActiveFaults, m.ProblemCells,
	)
	return m
}
