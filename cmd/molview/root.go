package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/config"
	"github.com/chazu/molview/pkg/logging"
	"github.com/chazu/molview/pkg/metrics"
	"github.com/chazu/molview/pkg/viewer"
)

// Build-time variables injected via ldflags.
var Version = "dev"

type rootOptions struct {
	configPath  string
	logLevel    string
	policy      string
	factor      float64
	cutoff      float64
	index       string
	workers     int
	metricsFile string
}

// cliContext carries initialized dependencies through the command tree.
type cliContext struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

type cliContextKey struct{}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "molview",
		Short:   "Infer bonds, build ball-and-stick scenes and pick atoms from XYZ files",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			cc := getCLIContext(cmd)
			defer cc.log.Sync() //nolint:errcheck
			if cc.cfg.Metrics.File == "" {
				return nil
			}
			return cc.metrics.WriteFile(cc.cfg.Metrics.File)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (YAML)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.policy, "policy", "", "bond policy (radius, fixed)")
	pf.Float64Var(&opts.factor, "factor", 0, "radius-scaled bond factor")
	pf.Float64Var(&opts.cutoff, "cutoff", 0, "fixed bond cutoff in angstrom")
	pf.StringVar(&opts.index, "index", "", "neighbor search (brute, rtree)")
	pf.IntVar(&opts.workers, "workers", 0, "bond inference workers")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	cmd.AddCommand(
		newBondsCommand(),
		newSceneCommand(),
		newPickCommand(),
		newWatchCommand(),
		newScriptCommand(),
	)
	return cmd
}

// persistentPreRun loads config, applies flag overrides and builds the
// logger. Flags win over the environment, which wins over the file.
func persistentPreRun(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("policy") {
		cfg.Bond.Policy = opts.policy
	}
	if flags.Changed("factor") {
		cfg.Bond.Factor = opts.factor
	}
	if flags.Changed("cutoff") {
		cfg.Bond.Cutoff = opts.cutoff
	}
	if flags.Changed("index") {
		cfg.Bond.Index = opts.index
	}
	if flags.Changed("workers") {
		cfg.Bond.Workers = opts.workers
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = opts.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	cc := &cliContext{cfg: cfg, log: log, metrics: metrics.New()}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))
	return nil
}

func getCLIContext(cmd *cobra.Command) *cliContext {
	if cc, ok := cmd.Context().Value(cliContextKey{}).(*cliContext); ok {
		return cc
	}
	return &cliContext{cfg: config.Default(), log: zap.NewNop()}
}

// newSession builds a viewer session from the command's configuration.
func newSession(cmd *cobra.Command, extra ...viewer.Option) (*viewer.Session, error) {
	cc := getCLIContext(cmd)
	opts, err := viewer.OptionsFromConfig(cc.cfg, cc.log)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	opts = append(opts, viewer.WithMetrics(cc.metrics))
	return viewer.NewSession(append(opts, extra...)...), nil
}
