package viewer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/bond"
	"github.com/chazu/molview/pkg/config"
	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/kernel/sdfx"
	"github.com/chazu/molview/pkg/pick"
	"github.com/chazu/molview/pkg/scene"
)

// OptionsFromConfig translates configuration into session options. It loads
// the element table from disk when one is configured.
func OptionsFromConfig(cfg *config.Config, log *zap.Logger) ([]Option, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	table := element.Default()
	if cfg.Elements.Table != "" {
		t, err := element.Load(cfg.Elements.Table)
		if err != nil {
			return nil, fmt.Errorf("viewer: %w", err)
		}
		table = t
	}

	policy, err := bond.ParsePolicy(cfg.Bond.Policy, cfg.Bond.Factor, cfg.Bond.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}
	strategy, err := bond.ParseStrategy(cfg.Bond.Index)
	if err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}
	bondOpts := []bond.Option{
		bond.WithPolicy(policy),
		bond.WithStrategy(strategy),
		bond.WithWorkers(cfg.Bond.Workers),
	}
	if cfg.Bond.FallbackRadius > 0 {
		bondOpts = append(bondOpts, bond.WithFallbackRadius(cfg.Bond.FallbackRadius))
	}

	style := scene.DefaultStyle()
	style.AtomRadius = cfg.Scene.AtomRadius
	style.BondRadius = cfg.Scene.BondRadius
	if cfg.Scene.Colors == "cpk" {
		style.Colors = element.ColorPolicy{UseTable: true, Fallback: element.ColorNeutral}
	}

	opts := []Option{
		WithTable(table),
		WithBondOptions(bondOpts...),
		WithStyle(style),
		WithSelectBonds(cfg.Scene.SelectBonds),
		WithLogger(log),
	}
	if cfg.Kernel.Picking == "sdf" {
		k := sdfx.New(sdfx.WithMeshCells(cfg.Kernel.MeshCells))
		opts = append(opts, WithIntersector(pick.SDFIntersector{Kernel: k}))
	}
	return opts, nil
}
