package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tome.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.Narration.WPM != 200 {
		t.Errorf("default wpm = %v", cfg.Narration.WPM)
	}
	if cfg.Layout.MinBudget != 200 || cfg.Layout.MaxBudget != 3000 {
		t.Errorf("default clamps = [%d, %d]", cfg.Layout.MinBudget, cfg.Layout.MaxBudget)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
font_size: 20
narration:
  wpm: 150
  tick_interval_ms: 250
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FontSize != 20 {
		t.Errorf("font_size = %v", cfg.FontSize)
	}
	if cfg.Narration.WPM != 150 || cfg.Narration.TickIntervalMs != 250 {
		t.Errorf("narration = %+v", cfg.Narration)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	// untouched fields keep their defaults
	if cfg.Layout.LineHeight != 1.5 {
		t.Errorf("line_height default lost: %v", cfg.Layout.LineHeight)
	}
	if cfg.State.Backend != "file" {
		t.Errorf("state backend default lost: %q", cfg.State.Backend)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "wpms: 300\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"zero wpm", "narration:\n  wpm: 0\n", "wpm"},
		{"bad level", "log_level: verbose\n", "log level"},
		{"inverted clamps", "layout:\n  min_budget: 3000\n  max_budget: 200\n", "clamps"},
		{"bad backend", "state:\n  backend: redis\n", "backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCalculatorMatchesLayoutConfig(t *testing.T) {
	cfg := Default()
	cfg.Layout.ChineseDiscount = 0.7
	calc := cfg.Calculator()
	if calc.ChineseDiscount != 0.7 {
		t.Errorf("calculator discount = %v", calc.ChineseDiscount)
	}
	if calc.MinBudget != cfg.Layout.MinBudget {
		t.Errorf("calculator clamps not carried over")
	}
}

func TestLoggerLevels(t *testing.T) {
	cfg := Default()

	cfg.LogLevel = "none"
	if log := cfg.Logger(); log.Core().Enabled(0) { // 0 == InfoLevel
		t.Error("none level should produce a nop logger")
	}

	cfg.LogLevel = "debug"
	if log := cfg.Logger(); !log.Core().Enabled(-1) { // -1 == DebugLevel
		t.Error("debug level should enable debug output")
	}
}
