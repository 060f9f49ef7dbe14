package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("logging:\n  log_to_console: true\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Input.Delimiter != ";" || cfg.Input.DecimalSeparator != "," {
		t.Fatalf("unexpected dialect %q/%q", cfg.Input.Delimiter, cfg.Input.DecimalSeparator)
	}
	if cfg.Input.TimestampLayout != "02.01.2006 15:04:05" {
		t.Fatalf("unexpected layout %q", cfg.Input.TimestampLayout)
	}
	if cfg.Input.Columns.SubscriberID != "TESİSAT_NO" || cfg.Input.Columns.VoltageL3 != "Gerilim L3" {
		t.Fatalf("unexpected columns %+v", cfg.Input.Columns)
	}
	if cfg.Analysis.PowerFactor != 0.88 {
		t.Fatalf("power factor = %v", cfg.Analysis.PowerFactor)
	}
	if cfg.Analysis.DeviationThreshold != 25 {
		t.Fatalf("threshold = %v", cfg.Analysis.DeviationThreshold)
	}
	if cfg.Reference.Source != "builtin" {
		t.Fatalf("reference source = %q", cfg.Reference.Source)
	}
	if cfg.Logging.LogLevel != "info" {
		t.Fatalf("log level = %q", cfg.Logging.LogLevel)
	}
}

func TestParseOverrides(t *testing.T) {
	data := `
analysis:
  power_factor: 0.9
  deviation_threshold: 10
input:
  delimiter: ","
  decimal_separator: "."
  columns:
    subscriber_id: meter
reference:
  source: file
  path: refs.yaml
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Analysis.PowerFactor != 0.9 || cfg.Analysis.DeviationThreshold != 10 {
		t.Fatalf("unexpected analysis %+v", cfg.Analysis)
	}
	if cfg.Input.Columns.SubscriberID != "meter" || cfg.Input.Columns.Timestamp != "TARİH" {
		t.Fatalf("unexpected columns %+v", cfg.Input.Columns)
	}
}

func TestParseKeepsExplicitZeroThreshold(t *testing.T) {
	cfg, err := Parse([]byte("analysis:\n  deviation_threshold: 0\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Analysis.DeviationThreshold != 0 {
		t.Fatalf("threshold = %v, want 0", cfg.Analysis.DeviationThreshold)
	}
	if cfg.Analysis.PowerFactor != 0.88 {
		t.Fatalf("power factor = %v, want default", cfg.Analysis.PowerFactor)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad delimiter", "input:\n  delimiter: ';;'\n", "single character"},
		{"same separators", "input:\n  delimiter: ','\n", "decimal separator"},
		{"power factor", "analysis:\n  power_factor: 1.5\n", "power factor"},
		{"zero power factor", "analysis:\n  power_factor: 0\n", "power factor"},
		{"negative threshold", "analysis:\n  deviation_threshold: -1\n", "deviation threshold"},
		{"file without path", "reference:\n  source: file\n", "reference path"},
		{"database without driver", "reference:\n  source: database\n", "database driver"},
		{"unknown source", "reference:\n  source: ftp\n", "unsupported reference source"},
		{"sqlite without path", "database:\n  driver: sqlite\n", "sqlite path"},
		{"unknown driver", "database:\n  driver: oracle\n", "unsupported database driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should fall back to defaults: %v", err)
	}
	if cfg.Analysis.PowerFactor != 0.88 {
		t.Fatalf("defaults not applied")
	}

	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.yaml")
	if err := os.WriteFile(path, []byte("analysis:\n  deviation_threshold: 40\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Analysis.DeviationThreshold != 40 {
		t.Fatalf("threshold = %v", cfg.Analysis.DeviationThreshold)
	}
}

func TestGetDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "postgres"
	cfg.Database.PostgreSQL = PostgresConfig{
		Host: "db", Port: 5432, User: "audit", Password: "secret",
		DBName: "irrigation", SSLMode: "disable", TimeZone: "UTC",
	}

	want := "host=db port=5432 user=audit password=secret dbname=irrigation sslmode=disable TimeZone=UTC"
	if got := cfg.GetDSN(); got != want {
		t.Fatalf("dsn = %q", got)
	}
}
