package bond

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/structure"
)

// Strategy selects how candidate pairs are enumerated.
type Strategy int

const (
	// BruteForce tests every i<j pair.
	BruteForce Strategy = iota
	// RTree queries a spatial index around each atom.
	RTree
)

func (s Strategy) String() string {
	switch s {
	case BruteForce:
		return "brute"
	case RTree:
		return "rtree"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts "brute" (or "") and "rtree".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "brute", "bruteforce", "brute-force":
		return BruteForce, nil
	case "rtree", "r-tree":
		return RTree, nil
	}
	return 0, fmt.Errorf("bond: unknown strategy %q", name)
}

type options struct {
	policy   Policy
	strategy Strategy
	workers  int
	fallback float64
	logger   *zap.Logger
}

// Option configures Infer.
type Option func(*options)

// WithPolicy sets the threshold policy. Default: RadiusScaled{1.2}.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithStrategy sets the neighbor strategy. Default: BruteForce.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithWorkers shards the outer atom range across n goroutines. n <= 1 runs
// inline.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFallbackRadius substitutes r for elements missing from the table
// instead of failing. Every substituted symbol is logged as a warning.
func WithFallbackRadius(r float64) Option {
	return func(o *options) { o.fallback = r }
}

// WithLogger sets the logger used for fallback warnings and debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Infer computes the bond set of s. table may be nil, in which case
// element.Default() is used. The returned Set is canonical; on error no
// partial set is returned.
func Infer(s *structure.Structure, table *element.Table, opts ...Option) (Set, error) {
	o := options{
		policy:   DefaultPolicy(),
		strategy: BruteForce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if table == nil {
		table = element.Default()
	}

	props, err := resolve(s, table, &o)
	if err != nil {
		return nil, err
	}
	n := s.Len()
	if n < 2 {
		return Set{}, nil
	}

	pos := s.Positions()
	for i, p := range pos {
		if !p.IsFinite() {
			return nil, fmt.Errorf("bond: atom %d: non-finite position %s", i, p)
		}
	}

	c := &calc{policy: o.policy, pos: pos, props: props}
	var scan func(lo, hi int) []Bond
	switch o.strategy {
	case BruteForce:
		scan = c.brute
	case RTree:
		idx, err := newIndex(pos, maxThreshold(o.policy, props))
		if err != nil {
			return nil, err
		}
		scan = func(lo, hi int) []Bond { return idx.scan(c, lo, hi) }
	default:
		return nil, fmt.Errorf("bond: unsupported strategy %s", o.strategy)
	}

	out, err := shard(n, o.workers, scan)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("bonds inferred",
		zap.Int("atoms", n),
		zap.Int("bonds", len(out)),
		zap.Stringer("policy", o.policy),
		zap.Stringer("strategy", o.strategy),
		zap.Int("workers", o.workers),
	)
	return out, nil
}

// resolve looks up element properties for every atom. Policies that ignore
// radii only need the symbol.
func resolve(s *structure.Structure, table *element.Table, o *options) ([]element.Properties, error) {
	atoms := s.Atoms()
	props := make([]element.Properties, len(atoms))
	if !o.policy.UsesRadii() {
		for i, a := range atoms {
			props[i] = element.Properties{Symbol: a.Symbol}
		}
		return props, nil
	}

	warned := make(map[string]bool)
	for i, a := range atoms {
		p, err := table.Lookup(a.Symbol)
		if err != nil {
			if o.fallback <= 0 {
				return nil, fmt.Errorf("bond: atom %d: %w", i, err)
			}
			if !warned[a.Symbol] {
				warned[a.Symbol] = true
				o.logger.Warn("unknown element, using fallback radius",
					zap.String("symbol", a.Symbol),
					zap.Float64("radius", o.fallback),
				)
			}
			p = element.Properties{Symbol: a.Symbol, CovalentRadius: o.fallback}
		}
		props[i] = p
	}
	return props, nil
}

// calc holds the shared bonding predicate.
type calc struct {
	policy Policy
	pos    []geom.Vec3
	props  []element.Properties
}

func (c *calc) bonded(i, j int) bool {
	return c.pos[i].Distance(c.pos[j]) < c.policy.Threshold(c.props[i], c.props[j])
}

func (c *calc) brute(lo, hi int) []Bond {
	var out []Bond
	for i := lo; i < hi; i++ {
		for j := i + 1; j < len(c.pos); j++ {
			if c.bonded(i, j) {
				out = append(out, Bond{A: i, B: j})
			}
		}
	}
	return out
}

// shard splits [0, n) into contiguous ranges, scans them concurrently and
// merges the results. Callers only see the merged, sorted set.
func shard(n, workers int, scan func(lo, hi int) []Bond) (Set, error) {
	if workers <= 1 || n < 2*workers {
		return canonicalize(Set(scan(0, n))), nil
	}

	parts := make([][]Bond, workers)
	step := (n + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		lo, hi := w*step, (w+1)*step
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("bond: shard %d: panic: %v", w, r)
				}
			}()
			parts[w] = scan(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make(Set, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return canonicalize(out), nil
}
