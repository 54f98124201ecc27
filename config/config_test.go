package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/disco/config"
	"github.com/katalvlaran/disco/distribution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disco.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "geometric", cfg.Model.Distribution)
	assert.Equal(t, 100000, cfg.Model.Slots)
	assert.Equal(t, 2, cfg.Model.Nodes)
	assert.Equal(t, 0.975, cfg.Model.Threshold)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Len(t, cfg.Sweep.Kinds, 3)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("DISCO_TEST_DIR", "/tmp/disco")
	path := writeConfig(t, `
model:
  distribution: uniform
  scale: 20
  slots: 5000
  nodes: 4
sweep:
  kinds: [poisson]
  points: 7
  database: ${DISCO_TEST_DIR}/results.db
logging:
  level: debug
  json: true
`)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "uniform", cfg.Model.Distribution)
	assert.Equal(t, 20.0, cfg.Model.Scale)
	assert.Equal(t, 5000, cfg.Model.Slots)
	assert.Equal(t, 4, cfg.Model.Nodes)
	// Unset fields keep defaults.
	assert.Equal(t, 100, cfg.Model.ChargingTime)
	assert.Equal(t, 0.975, cfg.Model.Threshold)

	assert.Equal(t, []string{"poisson"}, cfg.Sweep.Kinds)
	assert.Equal(t, 7, cfg.Sweep.Points)
	assert.Equal(t, "/tmp/disco/results.db", cfg.Sweep.Database)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)

	kinds, err := cfg.SweepKinds()
	require.NoError(t, err)
	assert.Equal(t, []distribution.Kind{distribution.Poisson}, kinds)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.LoadFromFile(writeConfig(t, "model: [not, a, map]"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISCO_LOG_LEVEL", "trace")
	t.Setenv("DISCO_SLOTS", "2500")
	t.Setenv("DISCO_JOBS", "3")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, 2500, cfg.Model.Slots)
	assert.Equal(t, 2500, cfg.Sweep.Slots, "DISCO_SLOTS also sets the sweep horizon")
	assert.Equal(t, 3, cfg.Model.Jobs)

	t.Setenv("DISCO_SLOTS", "lots")
	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSlots, cfg.Model.Slots)
	assert.Zero(t, cfg.Sweep.Slots)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"distribution": func(c *config.Config) { c.Model.Distribution = "pareto" },
		"scale":        func(c *config.Config) { c.Model.Scale = -1 },
		"charging":     func(c *config.Config) { c.Model.ChargingTime = 0 },
		"slots":        func(c *config.Config) { c.Model.Slots = 0 },
		"jobs":         func(c *config.Config) { c.Model.Jobs = -2 },
		"nodes":        func(c *config.Config) { c.Model.Nodes = 1 },
		"threshold":    func(c *config.Config) { c.Model.Threshold = 1.5 },
		"sweep points": func(c *config.Config) { c.Sweep.Points = 0 },
		"sweep kinds":  func(c *config.Config) { c.Sweep.Kinds = []string{"zipf"} },
		"sweep times":  func(c *config.Config) { c.Sweep.ChargingTimes = []int{10, 0} },
		"sweep slots":  func(c *config.Config) { c.Sweep.Slots = -5 },
		"workers":      func(c *config.Config) { c.Sweep.Workers = -1 },
		"log level":    func(c *config.Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
