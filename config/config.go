// SPDX-License-Identifier: MIT

// Package config loads disco settings from YAML files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/logging"
	"gopkg.in/yaml.v3"
)

// Defaults mirrored by Default().
const (
	DefaultSlots        = 100000
	DefaultNodes        = 2
	DefaultThreshold    = 0.975
	DefaultChargingTime = 100
	DefaultSweepPoints  = 100
	DefaultDistribution = "geometric"
	DefaultLogLevel     = "info"
)

// Config contains all disco configuration settings.
type Config struct {
	// Model holds the parameters of a single evaluation.
	Model ModelConfig `json:"model" yaml:"model"`

	// Sweep holds the parameter sweep harness settings.
	Sweep SweepConfig `json:"sweep" yaml:"sweep"`

	// Logging controls operational log output.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ModelConfig configures model construction.
type ModelConfig struct {
	// Distribution is "geometric", "uniform" or "poisson".
	Distribution string `json:"distribution" yaml:"distribution"`

	// Scale is the distribution parameter; 0 means "pick from the
	// parameter range".
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty"`

	ChargingTime int `json:"charging_time" yaml:"charging_time"`
	Slots        int `json:"slots" yaml:"slots"`

	// Jobs is the rendezvous parallelism; 0 uses all CPUs.
	Jobs  int `json:"jobs" yaml:"jobs"`
	Nodes int `json:"nodes" yaml:"nodes"`

	// Threshold is the convergence target of the discovery fraction.
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// SweepConfig configures the sweep harness.
type SweepConfig struct {
	ChargingTime int      `json:"charging_time" yaml:"charging_time"`
	Points       int      `json:"points" yaml:"points"`
	Kinds        []string `json:"kinds" yaml:"kinds"`

	// ChargingTimes lists the charging times visited by "sweep fit".
	ChargingTimes []int `json:"charging_times,omitempty" yaml:"charging_times,omitempty"`

	// Slots is the horizon of every sweep model; 0 keeps each sweep's own
	// default.
	Slots int `json:"slots,omitempty" yaml:"slots,omitempty"`

	// Workers bounds concurrent jobs; 0 uses all CPUs.
	Workers int `json:"workers" yaml:"workers"`

	// OutputCSV and Database are optional sinks. Both support ${VAR}.
	OutputCSV string `json:"output_csv,omitempty" yaml:"output_csv,omitempty"`
	Database  string `json:"database,omitempty" yaml:"database,omitempty"`

	// MetricsAddr, when set, serves /metrics during the sweep.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// JSON switches to one JSON object per line.
	JSON bool `json:"json" yaml:"json"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Distribution: DefaultDistribution,
			ChargingTime: DefaultChargingTime,
			Slots:        DefaultSlots,
			Nodes:        DefaultNodes,
			Threshold:    DefaultThreshold,
		},
		Sweep: SweepConfig{
			ChargingTime: DefaultChargingTime,
			Points:       DefaultSweepPoints,
			Kinds:        []string{"geometric", "uniform", "poisson"},
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load returns the defaults, overlaid by path when non-empty, then by the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file. Fields absent
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Sweep.OutputCSV = expandEnvVars(cfg.Sweep.OutputCSV)
	cfg.Sweep.Database = expandEnvVars(cfg.Sweep.Database)

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if _, err := distribution.ParseKind(c.Model.Distribution); err != nil {
		return fmt.Errorf("model.distribution: %w", err)
	}
	if c.Model.Scale < 0 {
		return fmt.Errorf("model.scale must be non-negative, got %g", c.Model.Scale)
	}
	if c.Model.ChargingTime < 1 {
		return fmt.Errorf("model.charging_time must be ≥ 1, got %d", c.Model.ChargingTime)
	}
	if c.Model.Slots < 1 {
		return fmt.Errorf("model.slots must be ≥ 1, got %d", c.Model.Slots)
	}
	if c.Model.Jobs < 0 {
		return fmt.Errorf("model.jobs must be non-negative, got %d", c.Model.Jobs)
	}
	if c.Model.Nodes < 2 {
		return fmt.Errorf("model.nodes must be ≥ 2, got %d", c.Model.Nodes)
	}
	if c.Model.Threshold <= 0 || c.Model.Threshold > 1 {
		return fmt.Errorf("model.threshold must be in (0, 1], got %g", c.Model.Threshold)
	}

	if c.Sweep.ChargingTime < 1 {
		return fmt.Errorf("sweep.charging_time must be ≥ 1, got %d", c.Sweep.ChargingTime)
	}
	if c.Sweep.Points < 1 {
		return fmt.Errorf("sweep.points must be ≥ 1, got %d", c.Sweep.Points)
	}
	for _, k := range c.Sweep.Kinds {
		if _, err := distribution.ParseKind(k); err != nil {
			return fmt.Errorf("sweep.kinds: %w", err)
		}
	}
	for _, ct := range c.Sweep.ChargingTimes {
		if ct < 1 {
			return fmt.Errorf("sweep.charging_times must be ≥ 1, got %d", ct)
		}
	}
	if c.Sweep.Slots < 0 {
		return fmt.Errorf("sweep.slots must be non-negative, got %d", c.Sweep.Slots)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers must be non-negative, got %d", c.Sweep.Workers)
	}

	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %s, or empty for default)",
			c.Logging.Level, strings.Join(logging.Levels, ", "))
	}

	return nil
}

// SweepKinds parses Sweep.Kinds.
func (c *Config) SweepKinds() ([]distribution.Kind, error) {
	kinds := make([]distribution.Kind, 0, len(c.Sweep.Kinds))
	for _, name := range c.Sweep.Kinds {
		k, err := distribution.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// DISCO_SLOTS sets the horizon of single evaluations and of sweeps alike.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DISCO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DISCO_SLOTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Model.Slots = n
			cfg.Sweep.Slots = n
		}
	}
	if v := os.Getenv("DISCO_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Model.Jobs = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
