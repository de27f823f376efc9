package bond

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/structure"
)

func atom(sym string, x, y, z float64) structure.Atom {
	return structure.Atom{Symbol: sym, Position: geom.Vec3{X: x, Y: y, Z: z}}
}

func nan() float64 { return math.NaN() }

func water() *structure.Structure {
	return structure.New("water", []structure.Atom{
		atom("O", 0, 0, 0),
		atom("H", 0.757, 0.586, 0),
		atom("H", -0.757, 0.586, 0),
	})
}

// randomCluster scatters n atoms of mixed elements in a cube of the given
// edge length.
func randomCluster(seed int64, n int, edge float64) *structure.Structure {
	r := rand.New(rand.NewSource(seed))
	syms := []string{"C", "H", "O", "N", "S", "Cl"}
	atoms := make([]structure.Atom, n)
	for i := range atoms {
		atoms[i] = atom(syms[r.Intn(len(syms))], r.Float64()*edge, r.Float64()*edge, r.Float64()*edge)
	}
	return structure.New("cluster", atoms)
}

func TestInferWater(t *testing.T) {
	got, err := Infer(water(), nil)
	require.NoError(t, err)
	assert.Equal(t, Set{{A: 0, B: 1}, {A: 0, B: 2}}, got)
	assert.True(t, got.Contains(1, 0))
	assert.False(t, got.Contains(1, 2))
	assert.Equal(t, []int{1, 2}, got.Neighbors(0))
	assert.Equal(t, 2, got.Degree(0))
}

func TestInferWaterFromXYZ(t *testing.T) {
	s, err := structure.Parse("3\nwater\nO 0 0 0\nH 0.9584 0 0\nH -0.2396 0.9266 0\n")
	require.NoError(t, err)

	for _, strat := range []Strategy{BruteForce, RTree} {
		got, err := Infer(s, nil, WithStrategy(strat))
		require.NoError(t, err, strat)
		assert.Equal(t, Set{{A: 0, B: 1}, {A: 0, B: 2}}, got, strat)
		assert.False(t, got.Contains(1, 2), "H-H at 1.51 A is past 1.2*(0.31+0.31)")
	}
	assert.InDelta(t, 1.514, s.Atom(1).Position.Distance(s.Atom(2).Position), 1e-3)
}

func TestInferEmptyAndSingle(t *testing.T) {
	got, err := Infer(structure.New("", nil), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Infer(structure.New("", []structure.Atom{atom("C", 0, 0, 0)}), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestThresholdIsStrict(t *testing.T) {
	carbon, err := element.Default().Lookup("C")
	require.NoError(t, err)
	threshold := DefaultPolicy().Threshold(carbon, carbon)
	at := structure.New("", []structure.Atom{atom("C", 0, 0, 0), atom("C", threshold, 0, 0)})
	got, err := Infer(at, nil)
	require.NoError(t, err)
	assert.Empty(t, got, "pair exactly at threshold must not bond")

	inside := structure.New("", []structure.Atom{atom("C", 0, 0, 0), atom("C", threshold-1e-9, 0, 0)})
	got, err = Infer(inside, nil)
	require.NoError(t, err)
	assert.Equal(t, Set{{A: 0, B: 1}}, got)

	got, err = Infer(at, nil, WithStrategy(RTree))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestThresholdEquivalence(t *testing.T) {
	s := randomCluster(7, 60, 6)
	table := element.Default()
	policy := DefaultPolicy()
	got, err := Infer(s, table, WithPolicy(policy))
	require.NoError(t, err)

	pos := s.Positions()
	for i := 0; i < s.Len(); i++ {
		for j := i + 1; j < s.Len(); j++ {
			a, _ := table.Lookup(s.Atom(i).Symbol)
			b, _ := table.Lookup(s.Atom(j).Symbol)
			want := pos[i].Distance(pos[j]) < policy.Threshold(a, b)
			assert.Equal(t, want, got.Contains(i, j), "pair %d-%d", i, j)
		}
	}
}

func TestInferCanonicalAndDeterministic(t *testing.T) {
	s := randomCluster(42, 120, 8)
	first, err := Infer(s, nil)
	require.NoError(t, err)
	require.NoError(t, first.Validate(s.Len()))

	for i := 0; i < 5; i++ {
		again, err := Infer(s, nil)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}

func TestStrategiesMatchBruteForce(t *testing.T) {
	cases := []struct {
		name string
		seed int64
		n    int
		edge float64
	}{
		{"sparse", 1, 80, 20},
		{"dense", 2, 200, 6},
		{"tiny", 3, 4, 2},
		{"bulk-loaded", 4, 500, 12},
	}
	for _, policy := range []Policy{DefaultPolicy(), FixedCutoff{Distance: 1.6}} {
		for _, tc := range cases {
			t.Run(policy.String()+"/"+tc.name, func(t *testing.T) {
				s := randomCluster(tc.seed, tc.n, tc.edge)
				want, err := Infer(s, nil, WithPolicy(policy))
				require.NoError(t, err)

				variants := map[string][]Option{
					"rtree":         {WithStrategy(RTree)},
					"brute-workers": {WithWorkers(4)},
					"rtree-workers": {WithStrategy(RTree), WithWorkers(3)},
					"many-workers":  {WithWorkers(64)},
					"single-worker": {WithWorkers(1)},
				}
				for name, opts := range variants {
					got, err := Infer(s, nil, append(opts, WithPolicy(policy))...)
					require.NoError(t, err, name)
					assert.Equal(t, want, got, name)
				}
			})
		}
	}
}

func TestUnknownElement(t *testing.T) {
	s := structure.New("", []structure.Atom{atom("C", 0, 0, 0), atom("Xx", 1, 0, 0)})

	_, err := Infer(s, nil)
	require.Error(t, err)
	var unknown *element.UnknownElementError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Xx", unknown.Symbol)
	assert.Contains(t, err.Error(), "atom 1")
}

func TestFixedCutoffIgnoresTable(t *testing.T) {
	s := structure.New("", []structure.Atom{
		atom("Xx", 0, 0, 0),
		atom("Yy", 1.9, 0, 0),
		atom("Zz", 4.0, 0, 0),
	})
	got, err := Infer(s, nil, WithPolicy(FixedCutoff{}))
	require.NoError(t, err)
	assert.Equal(t, Set{{A: 0, B: 1}}, got)
}

func TestFallbackRadiusWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := structure.New("", []structure.Atom{
		atom("C", 0, 0, 0),
		atom("Xx", 1.5, 0, 0),
		atom("Xx", 3.0, 0, 0),
	})

	got, err := Infer(s, nil, WithFallbackRadius(0.75), WithLogger(zap.New(core)))
	require.NoError(t, err)
	// 1.2 * (0.76 + 0.75) = 1.812 and 1.2 * 1.5 = 1.8
	assert.Equal(t, Set{{A: 0, B: 1}, {A: 1, B: 2}}, got)

	entries := logs.FilterMessage("unknown element, using fallback radius").All()
	require.Len(t, entries, 1, "one warning per symbol")
	assert.Equal(t, "Xx", entries[0].ContextMap()["symbol"])
}

func TestNonFinitePositionRejected(t *testing.T) {
	s := structure.New("", []structure.Atom{atom("C", 0, 0, 0), {Symbol: "C", Position: geom.Vec3{X: nan()}}})
	_, err := Infer(s, nil)
	require.Error(t, err)
}

func TestParsePolicyAndStrategy(t *testing.T) {
	p, err := ParsePolicy("radius", 1.3, 0)
	require.NoError(t, err)
	assert.Equal(t, RadiusScaled{Factor: 1.3}, p)

	p, err = ParsePolicy("fixed", 0, 2.5)
	require.NoError(t, err)
	assert.Equal(t, FixedCutoff{Distance: 2.5}, p)
	assert.False(t, p.UsesRadii())

	_, err = ParsePolicy("vdw", 0, 0)
	assert.Error(t, err)

	s, err := ParseStrategy("RTree")
	require.NoError(t, err)
	assert.Equal(t, RTree, s)
	assert.Equal(t, "brute", BruteForce.String())
	_, err = ParseStrategy("kd")
	assert.Error(t, err)
}

func TestSetValidate(t *testing.T) {
	assert.NoError(t, Set{{0, 1}, {0, 2}, {1, 2}}.Validate(3))
	assert.Error(t, Set{{0, 3}}.Validate(3))
	assert.Error(t, Set{{1, 1}}.Validate(3))
	assert.Error(t, Set{{0, 2}, {0, 1}}.Validate(3))
	assert.Equal(t, New(2, 1), Bond{A: 1, B: 2})
	assert.Equal(t, -1, Bond{A: 1, B: 2}.Other(0))
}

func TestMaxThresholdCoversEveryPair(t *testing.T) {
	table := element.Default()
	var props []element.Properties
	for _, sym := range []string{"H", "C", "Cl", "H"} {
		p, err := table.Lookup(sym)
		require.NoError(t, err)
		props = append(props, p)
	}
	policy := DefaultPolicy()
	limit := maxThreshold(policy, props)
	for i := range props {
		for j := range props {
			assert.LessOrEqual(t, policy.Threshold(props[i], props[j]), limit)
		}
	}
	assert.InDelta(t, 1.2*2*1.02, limit, 1e-12)
}
