// Package config holds the tunable knobs of the engine. Every magic
// number the pagination and position code depends on is named here and
// overridable from a YAML file; compiled-in defaults apply when no file
// is given.
package config

import (
	"bytes"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/tomeapp/tome/internal/layout"
)

type (
	LayoutConfig struct {
		LineHeight      float64 `yaml:"line_height"`
		LatinWidth      float64 `yaml:"latin_width"`
		CJKWidth        float64 `yaml:"cjk_width"`
		MixedWidth      float64 `yaml:"mixed_width"`
		ChineseDiscount float64 `yaml:"chinese_discount"`
		MixedDiscount   float64 `yaml:"mixed_discount"`
		MinBudget       int     `yaml:"min_budget"`
		MaxBudget       int     `yaml:"max_budget"`
	}

	ViewportConfig struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
		Chrome float64 `yaml:"chrome"`
	}

	NarrationConfig struct {
		WPM            float64 `yaml:"wpm"`
		TickIntervalMs int     `yaml:"tick_interval_ms"`
	}

	StateConfig struct {
		Backend string `yaml:"backend"` // file or sqlite
		Path    string `yaml:"path,omitempty"`
	}

	Config struct {
		FontSize  float64         `yaml:"font_size"`
		Viewport  ViewportConfig  `yaml:"viewport"`
		Layout    LayoutConfig    `yaml:"layout"`
		Narration NarrationConfig `yaml:"narration"`
		State     StateConfig     `yaml:"state"`
		LogLevel  string          `yaml:"log_level"` // none, normal or debug
	}
)

// Default returns the compiled-in configuration.
func Default() *Config {
	c := layout.Default()
	return &Config{
		FontSize: 16,
		Viewport: ViewportConfig{Width: 390, Height: 844, Chrome: 120},
		Layout: LayoutConfig{
			LineHeight:      c.LineHeight,
			LatinWidth:      c.LatinWidth,
			CJKWidth:        c.CJKWidth,
			MixedWidth:      c.MixedWidth,
			ChineseDiscount: c.ChineseDiscount,
			MixedDiscount:   c.MixedDiscount,
			MinBudget:       c.MinBudget,
			MaxBudget:       c.MaxBudget,
		},
		Narration: NarrationConfig{WPM: 200, TickIntervalMs: 100},
		State:     StateConfig{Backend: "file"},
		LogLevel:  "none",
	}
}

// Load reads configuration from path on top of the defaults. Unknown
// fields are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Narration.WPM <= 0 {
		return fmt.Errorf("narration wpm must be positive, got %v", c.Narration.WPM)
	}
	if c.Narration.TickIntervalMs <= 0 {
		return fmt.Errorf("narration tick interval must be positive, got %v", c.Narration.TickIntervalMs)
	}
	if c.Layout.MinBudget <= 0 || c.Layout.MaxBudget < c.Layout.MinBudget {
		return fmt.Errorf("invalid budget clamps [%d, %d]", c.Layout.MinBudget, c.Layout.MaxBudget)
	}
	switch c.LogLevel {
	case "none", "normal", "debug":
	default:
		return fmt.Errorf("log level must be none, normal or debug, got %q", c.LogLevel)
	}
	switch c.State.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("state backend must be file or sqlite, got %q", c.State.Backend)
	}
	return nil
}

// Calculator builds a layout calculator from the configured factors.
func (c *Config) Calculator() layout.Calculator {
	return layout.Calculator{
		LineHeight:      c.Layout.LineHeight,
		LatinWidth:      c.Layout.LatinWidth,
		CJKWidth:        c.Layout.CJKWidth,
		MixedWidth:      c.Layout.MixedWidth,
		ChineseDiscount: c.Layout.ChineseDiscount,
		MixedDiscount:   c.Layout.MixedDiscount,
		MinBudget:       c.Layout.MinBudget,
		MaxBudget:       c.Layout.MaxBudget,
	}
}

// Vp returns the configured viewport.
func (c *Config) Vp() layout.Viewport {
	return layout.Viewport{
		Width:  c.Viewport.Width,
		Height: c.Viewport.Height,
		Chrome: c.Viewport.Chrome,
	}
}
