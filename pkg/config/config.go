// Package config defines molview's configuration and loads it from YAML and
// MOLVIEW_* environment variables.
package config

import (
	"fmt"

	"github.com/chazu/molview/pkg/bond"
)

// BondConfig selects how bonds are inferred.
type BondConfig struct {
	Policy         string  `mapstructure:"policy" yaml:"policy"` // "radius" | "fixed"
	Factor         float64 `mapstructure:"factor" yaml:"factor"`
	Cutoff         float64 `mapstructure:"cutoff" yaml:"cutoff"`
	Index          string  `mapstructure:"index" yaml:"index"` // "brute" | "rtree"
	Workers        int     `mapstructure:"workers" yaml:"workers"`
	FallbackRadius float64 `mapstructure:"fallback_radius" yaml:"fallback_radius"`
}

// SceneConfig holds primitive sizes and the coloring scheme.
type SceneConfig struct {
	AtomRadius float64 `mapstructure:"atom_radius" yaml:"atom_radius"`
	BondRadius float64 `mapstructure:"bond_radius" yaml:"bond_radius"`
	Colors     string  `mapstructure:"colors" yaml:"colors"` // "default" | "cpk"
	// SelectBonds reports bond picks to the host. Bonds are never selected.
	SelectBonds bool `mapstructure:"select_bonds" yaml:"select_bonds"`
}

// ElementsConfig points at an optional replacement element table.
type ElementsConfig struct {
	Table string `mapstructure:"table" yaml:"table"`
}

// KernelConfig tunes the render backend.
type KernelConfig struct {
	MeshCells int    `mapstructure:"mesh_cells" yaml:"mesh_cells"`
	Picking   string `mapstructure:"picking" yaml:"picking"` // "analytic" | "sdf"
}

// LogConfig carries logger construction parameters.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "json" | "console"
}

// MetricsConfig controls the optional metrics dump.
type MetricsConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// Config is the root configuration.
type Config struct {
	Bond     BondConfig     `mapstructure:"bond" yaml:"bond"`
	Scene    SceneConfig    `mapstructure:"scene" yaml:"scene"`
	Elements ElementsConfig `mapstructure:"elements" yaml:"elements"`
	Kernel   KernelConfig   `mapstructure:"kernel" yaml:"kernel"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// Validate checks value ranges and enumerations. Call ApplyDefaults first.
func (c *Config) Validate() error {
	if c.Bond.Factor <= 0 {
		return fmt.Errorf("config: bond.factor must be > 0, got %g", c.Bond.Factor)
	}
	if c.Bond.Cutoff <= 0 {
		return fmt.Errorf("config: bond.cutoff must be > 0, got %g", c.Bond.Cutoff)
	}
	if _, err := bond.ParsePolicy(c.Bond.Policy, c.Bond.Factor, c.Bond.Cutoff); err != nil {
		return fmt.Errorf("config: bond.policy %q is invalid; expected radius|fixed: %w", c.Bond.Policy, err)
	}
	if _, err := bond.ParseStrategy(c.Bond.Index); err != nil {
		return fmt.Errorf("config: bond.index %q is invalid; expected brute|rtree: %w", c.Bond.Index, err)
	}
	if c.Bond.Workers < 1 {
		return fmt.Errorf("config: bond.workers must be >= 1, got %d", c.Bond.Workers)
	}
	if c.Bond.FallbackRadius < 0 {
		return fmt.Errorf("config: bond.fallback_radius must be >= 0, got %g", c.Bond.FallbackRadius)
	}

	if c.Scene.AtomRadius <= 0 || c.Scene.BondRadius <= 0 {
		return fmt.Errorf("config: scene radii must be > 0, got atom=%g bond=%g",
			c.Scene.AtomRadius, c.Scene.BondRadius)
	}
	switch c.Scene.Colors {
	case "default", "cpk":
	default:
		return fmt.Errorf("config: scene.colors %q is invalid; expected default|cpk", c.Scene.Colors)
	}

	if c.Kernel.MeshCells < 8 {
		return fmt.Errorf("config: kernel.mesh_cells must be >= 8, got %d", c.Kernel.MeshCells)
	}
	switch c.Kernel.Picking {
	case "analytic", "sdf":
	default:
		return fmt.Errorf("config: kernel.picking %q is invalid; expected analytic|sdf", c.Kernel.Picking)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}
	return nil
}
