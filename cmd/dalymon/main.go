// cmd/dalymon/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dalymon/internal/battery"
	"dalymon/internal/config"
	"dalymon/internal/daly"
	"dalymon/internal/logging"
	"dalymon/internal/metrics"
	"dalymon/internal/serialio"
)

func main() {
	cfgPath := flag.String("config", "dalymon.yaml", "path to config file")
	readCap := flag.Bool("read-capacity", false, "read rated capacity and exit")
	writeCap := flag.Int("write-capacity", 0, "write rated capacity (mAh) and exit")
	nominalMv := flag.Int("nominal-mv", 0, "nominal cell mV for -write-capacity")
	writeSOC := flag.Float64("write-soc", -1, "write SOC percent and exit")
	flag.Parse()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	// --------------------
	// Transport
	// --------------------

	port, err := serialio.Open(serialio.Params{
		Address:  cfg.Serial.Port,
		BaudRate: cfg.Serial.Baud,
	})
	if err != nil {
		logger.Fatal("serial open failed",
			zap.String("port", cfg.Serial.Port),
			zap.Error(err))
	}

	sess := daly.NewSession(port)
	defer sess.Close()

	timeout := time.Duration(cfg.Serial.TimeoutMs) * time.Millisecond

	// --------------------
	// One-shot maintenance modes
	// --------------------

	if *readCap {
		c, err := sess.ReadCapacity(timeout)
		if err != nil {
			logger.Fatal("read capacity failed", zap.Error(err))
		}
		logger.Info("rated capacity",
			zap.Int("rated_mah", c.RatedMah),
			zap.Int("nominal_cell_mv", c.NominalCellMv))
		return
	}
	if *writeCap > 0 {
		if err := sess.WriteCapacity(*writeCap, *nominalMv); err != nil {
			logger.Fatal("write capacity failed", zap.Error(err))
		}
		logger.Info("rated capacity written", zap.Int("rated_mah", *writeCap))
		return
	}
	if *writeSOC >= 0 {
		if err := sess.WriteSOC(*writeSOC); err != nil {
			logger.Fatal("write SOC failed", zap.Error(err))
		}
		logger.Info("SOC written", zap.Float64("percent", *writeSOC))
		return
	}

	// --------------------
	// Metrics
	// --------------------

	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)

	sess.OnReject = func(err error) {
		appm.FrameRejects.Inc()
		logger.Debug("frame rejected", zap.Error(err))
	}

	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// --------------------
	// Poll loop
	// --------------------

	poller, err := daly.NewPoller(sess, timeout)
	if err != nil {
		logger.Fatal("poller init failed", zap.Error(err))
	}

	battCfg := battery.Config{
		Name:            cfg.Battery.Name,
		Chemistry:       battery.ChemistryFromString(cfg.Battery.Chemistry),
		CapacityMah:     cfg.Battery.CapacityMah,
		CellsSeries:     cfg.Battery.CellsSeries,
		CellsParallel:   cfg.Battery.CellsParallel,
		MinVoltage:      cfg.Battery.MinVoltage,
		MaxVoltage:      cfg.Battery.MaxVoltage,
		NominalVoltage:  cfg.Battery.NominalVoltage,
		WarningPercent:  cfg.Battery.WarningPercent,
		CriticalPercent: cfg.Battery.CriticalPercent,
	}

	smoother := battery.NewSmoother()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("polling started",
		zap.String("port", cfg.Serial.Port),
		zap.Int("baud", cfg.Serial.Baud),
		zap.String("battery", battCfg.Name),
		zap.String("chemistry", battCfg.Chemistry.String()))

	interval := time.Duration(cfg.Poll.IntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			cycle(poller, smoother, battCfg, cfg, appm, logger)
		}
	}
}

// cycle runs one poll pass and derives everything consumers see. One
// goroutine owns the session; nothing here may be called concurrently.
func cycle(
	poller *daly.Poller,
	smoother *battery.Smoother,
	battCfg battery.Config,
	cfg *config.Config,
	appm *metrics.AppMetrics,
	logger *zap.Logger,
) {
	if err := poller.Poll(); err != nil {
		appm.PollCycles.WithLabelValues("error").Inc()
		logger.Warn("poll cycle failed", zap.Error(err))
		return
	}
	appm.PollCycles.WithLabelValues("ok").Inc()
	appm.MissingFrames.Add(float64(poller.MissingFrames()))

	snap := poller.Snapshot()

	// Derived state from current + FETs; device presence bits are not
	// trusted.
	state := daly.InferState(snap.Pack.CurrentA, snap.MOS.ChargeFET,
		snap.MOS.DischargeFET, cfg.Poll.DeadbandA)
	charger := daly.InferCharger(snap.Pack.CurrentA, snap.MOS.ChargeFET, cfg.Poll.DeadbandA)
	load := daly.InferLoad(snap.Pack.CurrentA, snap.MOS.DischargeFET, cfg.Poll.DeadbandA)

	// Voltage-derived SOC as a cross-check on the device's own figure.
	voltageSOC := battery.CalculatePercentage(snap.Pack.VoltageV, battCfg)

	health := daly.AnalyzeCellHealth(snap, cfg.Health.WarningMv, cfg.Health.CriticalMv)
	faults := daly.CategorizeFaults(snap.Faults)

	// Runtime estimate: discharge magnitude, derated by the hottest
	// sensor, smoothed under the BMS source key.
	raw := battery.EstimateTimeRemaining(battery.State{
		Voltage:          snap.Pack.VoltageV,
		Current:          -snap.Pack.CurrentA,
		Temperature:      snap.Temps.TMaxC,
		PercentRemaining: snap.Pack.SOCPercent,
		Valid:            snap.Valid,
	}, battCfg)
	runtime := smoother.Smooth(battery.SourceBMS, raw, -snap.Pack.CurrentA)

	appm.SOCPercent.Set(snap.Pack.SOCPercent)
	appm.PackVoltage.Set(snap.Pack.VoltageV)
	appm.PackCurrent.Set(snap.Pack.CurrentA)
	appm.RuntimeMinutes.Set(runtime)
	appm.ActiveFaults.Set(float64(len(snap.Faults)))
	appm.ProblemCells.Set(float64(health.ProblemCells))

	logger.Info("bms snapshot",
		zap.Float64("voltage_v", snap.Pack.VoltageV),
		zap.Float64("current_a", snap.Pack.CurrentA),
		zap.Float64("soc_pct", snap.Pack.SOCPercent),
		zap.Float64("soc_voltage_pct", voltageSOC),
		zap.Stringer("state", state),
		zap.Bool("charger", charger),
		zap.Bool("load", load),
		zap.Float64("runtime_min", runtime),
		zap.String("pack_health", health.Overall.String()),
		zap.Int("problem_cells", health.ProblemCells),
		zap.Int("faults", len(snap.Faults)))

	switch {
	case snap.Pack.SOCPercent <= battCfg.CriticalPercent:
		logger.Error("battery critically low",
			zap.Float64("soc_pct", snap.Pack.SOCPercent),
			zap.Float64("threshold_pct", battCfg.CriticalPercent))
	case snap.Pack.SOCPercent <= battCfg.WarningPercent:
		logger.Warn("battery low",
			zap.Float64("soc_pct", snap.Pack.SOCPercent),
			zap.Float64("threshold_pct", battCfg.WarningPercent))
	}

	for _, f := range faults.Critical {
		logger.Error("critical fault", zap.String("fault", f))
	}
	for _, f := range faults.Warning {
		logger.Warn("fault warning", zap.String("fault", f))
	}
	if health.Overall != daly.HealthNormal {
		logger.Warn("cell health degraded",
			zap.String("status", health.Overall.String()),
			zap.String("reason", health.StatusReason),
			zap.Float64("vdelta_v", health.VDeltaV))
	}
}
