// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
serial:
  port: /dev/ttyTHS1
  baud: 9600
  timeout_ms: 500
poll:
  interval_ms: 2000
  deadband_a: 0.2
battery:
  name: main
  chemistry: lifepo4
  capacity_mah: 10000
  cells_series: 4
  min_voltage: 10.0
  max_voltage: 14.6
health:
  warning_mv: 70
  critical_mv: 120
logging:
  level: debug
  format: json
metrics:
  listen: ":9090"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dalymon.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}

	if cfg.Serial.Port != "/dev/ttyTHS1" {
		t.Fatalf("port=%q", cfg.Serial.Port)
	}
	if cfg.Poll.IntervalMs != 2000 {
		t.Fatalf("interval=%d", cfg.Poll.IntervalMs)
	}
	if cfg.Battery.Chemistry != "lifepo4" || cfg.Battery.CellsSeries != 4 {
		t.Fatalf("battery=%+v", cfg.Battery)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging=%+v", cfg.Logging)
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Fatalf("metrics=%+v", cfg.Metrics)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("serial: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
