// internal/config/validate.go
package config

import (
	"fmt"

	"dalymon/internal/battery"
)

// supportedBauds mirrors the rates the serial driver accepts.
var supportedBauds = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration. Domain errors are rejected here
// rather than discovered mid-poll.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	if cfg.Serial.Port == "" {
		return fmt.Errorf("serial: port is required")
	}
	if cfg.Serial.Baud != 0 && !supportedBauds[cfg.Serial.Baud] {
		return fmt.Errorf("serial: unsupported baud rate %d", cfg.Serial.Baud)
	}
	if cfg.Serial.TimeoutMs < 0 {
		return fmt.Errorf("serial: timeout_ms must not be negative")
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll: interval_ms must not be negative")
	}
	if cfg.Poll.DeadbandA < 0 {
		return fmt.Errorf("poll: deadband_a must not be negative")
	}

	// ------------------------------------------------------------
	// BATTERY
	// ------------------------------------------------------------

	b := cfg.Battery

	if b.Chemistry != "" && battery.ChemistryFromString(b.Chemistry) == battery.ChemistryUnknown {
		return fmt.Errorf("battery: unknown chemistry %q", b.Chemistry)
	}
	if b.CapacityMah < 0 {
		return fmt.Errorf("battery: capacity_mah must not be negative")
	}
	if b.CellsSeries < 0 {
		return fmt.Errorf("battery: cells_series must not be negative")
	}
	if b.CellsParallel < 0 {
		return fmt.Errorf("battery: cells_parallel must not be negative")
	}
	if b.MinVoltage > b.MaxVoltage {
		return fmt.Errorf(
			"battery: min_voltage %.2f exceeds max_voltage %.2f",
			b.MinVoltage, b.MaxVoltage,
		)
	}
	// Cross-field relations hold for the values the daemon will
	// actually run with, so zero fields compare as their defaults.
	warnPct := orDefault(b.WarningPercent, DefaultWarningPercent)
	critPct := orDefault(b.CriticalPercent, DefaultCriticalPercent)
	if critPct >= warnPct {
		return fmt.Errorf(
			"battery: critical_percent %.1f must be below warning_percent %.1f",
			critPct, warnPct,
		)
	}

	// ------------------------------------------------------------
	// HEALTH THRESHOLDS
	// ------------------------------------------------------------

	h := cfg.Health

	if h.WarningMv < 0 || h.CriticalMv < 0 {
		return fmt.Errorf("health: thresholds must not be negative")
	}
	warnMv := orDefault(h.WarningMv, DefaultWarningMv)
	critMv := orDefault(h.CriticalMv, DefaultCriticalMv)
	if critMv <= warnMv {
		return fmt.Errorf(
			"health: critical_mv %.0f must exceed warning_mv %.0f",
			critMv, warnMv,
		)
	}

	return nil
}

// orDefault resolves a zero field to the default Normalize will apply,
// for cross-field comparison only.
func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
