package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "molview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "radius", cfg.Bond.Policy)
	assert.Equal(t, 1.2, cfg.Bond.Factor)
	assert.Equal(t, 2.0, cfg.Bond.Cutoff)
	assert.Equal(t, "brute", cfg.Bond.Index)
	assert.GreaterOrEqual(t, cfg.Bond.Workers, 1)
	assert.Equal(t, 0.3, cfg.Scene.AtomRadius)
	assert.Equal(t, 0.1, cfg.Scene.BondRadius)
	assert.Equal(t, 32, cfg.Kernel.MeshCells)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{Bond: BondConfig{Factor: 1.1, Index: "rtree"}, Log: LogConfig{Level: "debug"}}
	ApplyDefaults(cfg)
	assert.Equal(t, 1.1, cfg.Bond.Factor)
	assert.Equal(t, "rtree", cfg.Bond.Index)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DefaultBondPolicy, cfg.Bond.Policy)

	ApplyDefaults(nil)
}

func TestValidateAcceptsLibraryNames(t *testing.T) {
	for _, policy := range []string{"radius", "Radius-Scaled", "FIXED", "cutoff"} {
		cfg := Default()
		cfg.Bond.Policy = policy
		assert.NoError(t, cfg.Validate(), policy)
	}
	for _, index := range []string{"brute", "BruteForce", "brute-force", "rtree", "R-Tree", " rtree "} {
		cfg := Default()
		cfg.Bond.Index = index
		assert.NoError(t, cfg.Validate(), index)
	}
}

func TestValidateRejects(t *testing.T) {
	mutate := map[string]func(c *Config){
		"policy":          func(c *Config) { c.Bond.Policy = "vdw" },
		"factor":          func(c *Config) { c.Bond.Factor = -1 },
		"cutoff":          func(c *Config) { c.Bond.Cutoff = -2 },
		"index":           func(c *Config) { c.Bond.Index = "kdtree" },
		"workers":         func(c *Config) { c.Bond.Workers = -1 },
		"fallback radius": func(c *Config) { c.Bond.FallbackRadius = -0.5 },
		"atom radius":     func(c *Config) { c.Scene.AtomRadius = -0.3 },
		"colors":          func(c *Config) { c.Scene.Colors = "rainbow" },
		"mesh cells":      func(c *Config) { c.Kernel.MeshCells = 4 },
		"picking":         func(c *Config) { c.Kernel.Picking = "gpu" },
		"log level":       func(c *Config) { c.Log.Level = "trace" },
		"log format":      func(c *Config) { c.Log.Format = "xml" },
	}
	for name, fn := range mutate {
		cfg := Default()
		fn(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bond:
  policy: fixed
  cutoff: 1.8
  index: rtree
  workers: 2
scene:
  colors: cpk
elements:
  table: /tmp/elements.yaml
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fixed", cfg.Bond.Policy)
	assert.Equal(t, 1.8, cfg.Bond.Cutoff)
	assert.Equal(t, DefaultBondFactor, cfg.Bond.Factor)
	assert.Equal(t, "rtree", cfg.Bond.Index)
	assert.Equal(t, 2, cfg.Bond.Workers)
	assert.Equal(t, "cpk", cfg.Scene.Colors)
	assert.Equal(t, "/tmp/elements.yaml", cfg.Elements.Table)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "bond:\n  factor: 1.3\n")
	t.Setenv("MOLVIEW_BOND_FACTOR", "1.15")
	t.Setenv("MOLVIEW_METRICS_FILE", "/tmp/molview.prom")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.15, cfg.Bond.Factor)
	assert.Equal(t, "/tmp/molview.prom", cfg.Metrics.File)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MOLVIEW_BOND_INDEX", "rtree")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "rtree", cfg.Bond.Index)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bond:\n  policy: magic\n"))
	assert.ErrorContains(t, err, "bond.policy")
}
