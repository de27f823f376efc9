package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "MOLVIEW"

// keys lists every setting so AutomaticEnv can resolve MOLVIEW_* variables
// for keys that never appear in a file.
var keys = []string{
	"bond.policy", "bond.factor", "bond.cutoff", "bond.index", "bond.workers", "bond.fallback_radius",
	"scene.atom_radius", "scene.bond_radius", "scene.colors", "scene.select_bonds",
	"elements.table",
	"kernel.mesh_cells", "kernel.picking",
	"log.level", "log.format",
	"metrics.file",
}

// newViper returns a viper reading YAML with MOLVIEW_ env overrides, where
// "bond.factor" maps to MOLVIEW_BOND_FACTOR.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at path, merges MOLVIEW_* overrides, applies
// defaults and validates. An empty path loads from the environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
		}
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from MOLVIEW_* variables and defaults.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}
