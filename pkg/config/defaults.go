package config

import "runtime"

const (
	DefaultBondPolicy = "radius"
	DefaultBondFactor = 1.2
	DefaultBondCutoff = 2.0
	DefaultBondIndex  = "brute"

	DefaultAtomRadius = 0.3
	DefaultBondRadius = 0.1
	DefaultColors     = "default"

	DefaultMeshCells = 32
	DefaultPicking   = "analytic"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// DefaultWorkers is one inference worker per CPU.
func DefaultWorkers() int { return runtime.NumCPU() }

// Default returns a Config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-value fields in cfg. Explicit values always win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Bond.Policy == "" {
		cfg.Bond.Policy = DefaultBondPolicy
	}
	if cfg.Bond.Factor == 0 {
		cfg.Bond.Factor = DefaultBondFactor
	}
	if cfg.Bond.Cutoff == 0 {
		cfg.Bond.Cutoff = DefaultBondCutoff
	}
	if cfg.Bond.Index == "" {
		cfg.Bond.Index = DefaultBondIndex
	}
	if cfg.Bond.Workers == 0 {
		cfg.Bond.Workers = DefaultWorkers()
	}

	if cfg.Scene.AtomRadius == 0 {
		cfg.Scene.AtomRadius = DefaultAtomRadius
	}
	if cfg.Scene.BondRadius == 0 {
		cfg.Scene.BondRadius = DefaultBondRadius
	}
	if cfg.Scene.Colors == "" {
		cfg.Scene.Colors = DefaultColors
	}

	if cfg.Kernel.MeshCells == 0 {
		cfg.Kernel.MeshCells = DefaultMeshCells
	}
	if cfg.Kernel.Picking == "" {
		cfg.Kernel.Picking = DefaultPicking
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
