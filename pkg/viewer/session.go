// Package viewer owns the loaded structure and everything derived from it.
// A Session swaps in a new snapshot only after parsing, bond inference and
// primitive construction have all succeeded, so a failed reload never
// disturbs what is on screen.
package viewer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/bond"
	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/metrics"
	"github.com/chazu/molview/pkg/pick"
	"github.com/chazu/molview/pkg/scene"
	"github.com/chazu/molview/pkg/structure"
)

// ErrSuperseded is returned by a load that a newer load overtook before it
// could swap its snapshot in. The newer load's result stands.
var ErrSuperseded = errors.New("viewer: load superseded by a newer request")

// Snapshot is the immutable result of one successful load.
type Snapshot struct {
	Version    uint64
	Structure  *structure.Structure
	Bonds      bond.Set
	Primitives []scene.Primitive
}

// Option configures a Session.
type Option func(*Session)

// WithTable sets the element table used for inference and colors.
func WithTable(t *element.Table) Option {
	return func(s *Session) {
		if t != nil {
			s.table = t
		}
	}
}

// WithBondOptions appends inference options.
func WithBondOptions(opts ...bond.Option) Option {
	return func(s *Session) { s.bondOpts = append(s.bondOpts, opts...) }
}

func WithStyle(st scene.Style) Option {
	return func(s *Session) { s.style = st }
}

// WithIntersector replaces the default analytic intersector.
func WithIntersector(in pick.Intersector) Option {
	return func(s *Session) { s.intersector = in }
}

// WithSelectBonds reports bond picks as results. Bonds are never selected.
func WithSelectBonds(on bool) Option {
	return func(s *Session) { s.selectBonds = on }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithPalette sets the palette used by Records.
func WithPalette(p element.Palette) Option {
	return func(s *Session) { s.palette = p }
}

// OnReload registers fn to run after every successful load, outside the
// session lock. Hooks see versions in increasing order and must not load.
func OnReload(fn func(Snapshot)) Option {
	return func(s *Session) { s.onReload = append(s.onReload, fn) }
}

// Session is safe for concurrent use. Loads are serialized against picks so
// a pick never resolves against a half-swapped snapshot. Every load takes a
// ticket when it starts; only the most recently started load may swap its
// result in, so a slow older load never replaces a newer one.
type Session struct {
	mu    sync.RWMutex
	snap  Snapshot
	loads atomic.Uint64

	table       *element.Table
	bondOpts    []bond.Option
	style       scene.Style
	palette     element.Palette
	intersector pick.Intersector
	selectBonds bool
	picker      *pick.Picker
	onReload    []func(Snapshot)

	// hookMu orders reload hooks; delivered is the last version they saw.
	hookMu    sync.Mutex
	delivered uint64

	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewSession returns a session holding an empty structure.
func NewSession(opts ...Option) *Session {
	s := &Session{
		table:   element.Default(),
		style:   scene.DefaultStyle(),
		palette: element.DefaultPalette(),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.picker = pick.NewPicker(s.intersector)
	s.picker.SelectBonds = s.selectBonds
	s.snap = Snapshot{Structure: structure.New("", nil), Bonds: bond.Set{}}
	return s
}

// Load parses XYZ text and, on success, replaces the current snapshot.
func (s *Session) Load(text string) (Snapshot, error) {
	ticket := s.loads.Add(1)
	st, err := structure.Parse(text)
	if err != nil {
		s.metrics.ObserveLoad(err, 0, 0, 0)
		s.log.Warn("structure rejected", zap.Error(err))
		return Snapshot{}, err
	}
	return s.commit(ticket, st)
}

// LoadFile reads and loads an XYZ file.
func (s *Session) LoadFile(path string) (Snapshot, error) {
	ticket := s.loads.Add(1)
	st, err := structure.ParseFile(path)
	if err != nil {
		s.metrics.ObserveLoad(err, 0, 0, 0)
		s.log.Warn("structure rejected", zap.String("path", path), zap.Error(err))
		return Snapshot{}, err
	}
	return s.commit(ticket, st)
}

// LoadStructure infers bonds and builds primitives for st. The previous
// snapshot stays authoritative if either step fails, or if a newer load
// started meanwhile (ErrSuperseded). Success clears the selection, since
// atom indices no longer refer to the same atoms.
func (s *Session) LoadStructure(st *structure.Structure) (Snapshot, error) {
	return s.commit(s.loads.Add(1), st)
}

func (s *Session) superseded(ticket uint64) bool { return s.loads.Load() != ticket }

func (s *Session) commit(ticket uint64, st *structure.Structure) (Snapshot, error) {
	if s.superseded(ticket) {
		s.log.Debug("load superseded before inference", zap.Uint64("ticket", ticket))
		return Snapshot{}, ErrSuperseded
	}
	if st == nil {
		st = structure.New("", nil)
	}
	opts := append([]bond.Option{bond.WithLogger(s.log)}, s.bondOpts...)

	start := time.Now()
	bonds, err := bond.Infer(st, s.table, opts...)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveLoad(err, 0, 0, 0)
		s.log.Warn("bond inference failed", zap.Error(err))
		return Snapshot{}, fmt.Errorf("viewer: %w", err)
	}

	prims, err := scene.Translator{Style: s.style, Table: s.table}.Build(st, bonds)
	if err != nil {
		s.metrics.ObserveLoad(err, 0, 0, 0)
		return Snapshot{}, fmt.Errorf("viewer: %w", err)
	}

	s.mu.Lock()
	if s.superseded(ticket) {
		s.mu.Unlock()
		s.log.Debug("load superseded, result discarded", zap.Uint64("ticket", ticket))
		return Snapshot{}, ErrSuperseded
	}
	snap := Snapshot{
		Version:    s.snap.Version + 1,
		Structure:  st,
		Bonds:      bonds,
		Primitives: prims,
	}
	s.snap = snap
	s.picker.Selection().Clear()
	hooks := s.onReload
	s.mu.Unlock()

	s.metrics.ObserveLoad(nil, st.Len(), bonds.Len(), elapsed)
	s.metrics.ObserveSelection(0)
	s.log.Info("structure loaded",
		zap.Uint64("version", snap.Version),
		zap.Int("atoms", st.Len()),
		zap.Int("bonds", bonds.Len()),
		zap.Duration("inference", elapsed),
	)
	s.deliver(hooks, snap)
	return snap, nil
}

// deliver runs the reload hooks for snap unless a newer snapshot already
// reached them.
func (s *Session) deliver(hooks []func(Snapshot), snap Snapshot) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version
	for _, fn := range hooks {
		fn(snap)
	}
}

// Snapshot returns the current snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Table returns the session's element table.
func (s *Session) Table() *element.Table { return s.table }

// Palette returns the palette used to resolve color keys.
func (s *Session) Palette() element.Palette { return s.palette }

// Records renders the current primitives for a host.
func (s *Session) Records() []scene.Record {
	snap := s.Snapshot()
	return scene.Records(snap.Primitives, s.palette, s.table)
}

// Pick casts a ray through ndc against the current primitives. See
// pick.Picker.Pick for the toggle rules.
func (s *Session) Pick(ndc pick.NDC, cam pick.Camera) (pick.Result, bool) {
	s.mu.RLock()
	res, ok := s.picker.Pick(ndc, cam, s.snap.Primitives)
	s.mu.RUnlock()

	outcome := metrics.OutcomeMiss
	if ok {
		outcome = res.Tag.Kind.String()
	}
	sel := s.picker.Selection().Len()
	s.metrics.ObservePick(outcome, sel)
	s.log.Debug("pick",
		zap.Float64("x", ndc.X),
		zap.Float64("y", ndc.Y),
		zap.String("outcome", outcome),
		zap.Int("selected", sel),
	)
	return res, ok
}

// Selection returns selected atom indices in selection order.
func (s *Session) Selection() []int {
	return s.picker.Selection().Indices()
}

// SelectionLines renders the selection for the host's list.
func (s *Session) SelectionLines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.picker.Selection().Lines(s.snap.Structure)
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.picker.Selection().Clear()
	s.metrics.ObserveSelection(0)
}
