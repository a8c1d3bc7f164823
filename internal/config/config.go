// Package config loads the zerocurve CLI configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration.
type Config struct {
	// Template is an optional path to an xlsx template. Empty uses the built-in one.
	Template  string      `yaml:"template"`
	OutputDir string      `yaml:"output_dir"`
	Workers   int         `yaml:"workers"`
	Chart     ChartConfig `yaml:"chart"`
	Log       LogConfig   `yaml:"log"`
}

type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: ".",
		Workers:   4,
		Chart:     ChartConfig{Width: 640, Height: 480},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies ZEROCURVE_* environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ZEROCURVE_TEMPLATE"); v != "" {
		c.Template = v
	}
	if v := os.Getenv("ZEROCURVE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("ZEROCURVE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ZEROCURVE_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ZEROCURVE_LOG_JSON: %w", err)
		}
		c.Log.JSON = b
	}
	for name, dst := range map[string]*int{
		"ZEROCURVE_WORKERS":      &c.Workers,
		"ZEROCURVE_CHART_WIDTH":  &c.Chart.Width,
		"ZEROCURVE_CHART_HEIGHT": &c.Chart.Height,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

// Validate rejects values the exporter cannot use.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Chart.Width < 1 || c.Chart.Height < 1 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.Chart.Width, c.Chart.Height)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
