// internal/config/normalize.go
package config

// Default values applied by Normalize. Zero/empty fields mean "use the
// default", which Validate has already allowed through.
const (
	DefaultBaud       = 9600
	DefaultTimeoutMs  = 500
	DefaultIntervalMs = 1000
	DefaultDeadbandA  = 0.15

	DefaultWarningPercent  = 20.0
	DefaultCriticalPercent = 10.0
	DefaultCellsParallel   = 1

	DefaultWarningMv  = 70.0
	DefaultCriticalMv = 120.0
)

// Normalize applies post-validation defaulting.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = DefaultBaud
	}
	if cfg.Serial.TimeoutMs == 0 {
		cfg.Serial.TimeoutMs = DefaultTimeoutMs
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.Poll.DeadbandA == 0 {
		cfg.Poll.DeadbandA = DefaultDeadbandA
	}

	if cfg.Battery.WarningPercent == 0 {
		cfg.Battery.WarningPercent = DefaultWarningPercent
	}
	if cfg.Battery.CriticalPercent == 0 {
		cfg.Battery.CriticalPercent = DefaultCriticalPercent
	}
	if cfg.Battery.CellsParallel == 0 {
		cfg.Battery.CellsParallel = DefaultCellsParallel
	}
	if cfg.Battery.Name == "" {
		cfg.Battery.Name = "battery"
	}

	if cfg.Health.WarningMv == 0 {
		cfg.Health.WarningMv = DefaultWarningMv
	}
	if cfg.Health.CriticalMv == 0 {
		cfg.Health.CriticalMv = DefaultCriticalMv
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}
