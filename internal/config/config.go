// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Poll    PollConfig    `yaml:"poll"`
	Battery BatteryConfig `yaml:"battery"`
	Health  HealthConfig  `yaml:"health"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Port      string `yaml:"port"` // e.g. /dev/ttyTHS1
	Baud      int    `yaml:"baud"`
	TimeoutMs int    `yaml:"timeout_ms"` // per-request deadline
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int     `yaml:"interval_ms"`
	DeadbandA  float64 `yaml:"deadband_a"` // idle classification band
}

// ---- BATTERY ----

type BatteryConfig struct {
	Name            string  `yaml:"name"`
	Chemistry       string  `yaml:"chemistry"` // li-ion, lipo, lifepo4, nimh, lead-acid
	CapacityMah     float64 `yaml:"capacity_mah"`
	CellsSeries     int     `yaml:"cells_series"`
	CellsParallel   int     `yaml:"cells_parallel"`
	MinVoltage      float64 `yaml:"min_voltage"`
	MaxVoltage      float64 `yaml:"max_voltage"`
	NominalVoltage  float64 `yaml:"nominal_voltage"`
	WarningPercent  float64 `yaml:"warning_percent"`
	CriticalPercent float64 `yaml:"critical_percent"`
}

// ---- HEALTH ----

// HealthConfig holds the cell-deviation thresholds in millivolts.
type HealthConfig struct {
	WarningMv  float64 `yaml:"warning_mv"`
	CriticalMv float64 `yaml:"critical_mv"`
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format"` // console or json
	File   FileConfig `yaml:"file"`
}

type FileConfig struct {
	Filename   string `yaml:"filename"` // empty disables file output
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the endpoint
}

// Load reads and decodes a config file. Validation and normalization
// are separate passes.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}
