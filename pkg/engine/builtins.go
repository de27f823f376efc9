package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/structure"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpVec3 wraps a position or offset.
type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpAtomRef is returned by atom so scripts can refer back to an atom.
type sexpAtomRef struct {
	index  int
	symbol string
}

func (a *sexpAtomRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("<atom %d %s>", a.index, a.symbol)
}
func (a *sexpAtomRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toAtomRef(s zygo.Sexp) (*sexpAtomRef, error) {
	if a, ok := s.(*sexpAtomRef); ok {
		return a, nil
	}
	return nil, fmt.Errorf("expected atom, got %T (%s)", s, s.SexpString(nil))
}

// vec3Arg reads an optional keyword vec3, returning def when absent.
func vec3Arg(pa kwArgs, key string, def geom.Vec3) (geom.Vec3, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	out, err := toVec3(v)
	if err != nil {
		return geom.Vec3{}, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Structure builder
// ---------------------------------------------------------------------------

// maxScriptAtoms bounds runaway loops in scripts.
const maxScriptAtoms = 1 << 20

// builder accumulates atoms during one evaluation.
type builder struct {
	comment string
	atoms   []structure.Atom
	table   *element.Table
}

func (b *builder) add(symbol string, pos geom.Vec3) (*sexpAtomRef, error) {
	if symbol == "" || strings.ContainsAny(symbol, " \t\r\n") {
		return nil, fmt.Errorf("invalid element symbol %q", symbol)
	}
	if !pos.IsFinite() {
		return nil, fmt.Errorf("non-finite position %s for %s", pos, symbol)
	}
	if b.table != nil {
		if _, err := b.table.Lookup(symbol); err != nil {
			return nil, err
		}
	}
	if len(b.atoms) >= maxScriptAtoms {
		return nil, fmt.Errorf("script exceeds %d atoms", maxScriptAtoms)
	}
	b.atoms = append(b.atoms, structure.Atom{Symbol: symbol, Position: pos})
	return &sexpAtomRef{index: len(b.atoms) - 1, symbol: symbol}, nil
}

func (b *builder) structure() *structure.Structure {
	return structure.New(b.comment, b.atoms)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the structure DSL into a zygomys environment.
// The builtins append to b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (title "water")
	// -----------------------------------------------------------------------
	env.AddFunction("title", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("title requires exactly 1 argument, got %d", len(args))
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("title: %w", err)
		}
		b.comment = strings.TrimRight(s, "\r\n")
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 0.757 0.586 0)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: geom.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (atom "O" 0 0 0) | (atom "O" (vec3 0 0 0)) | (atom "O" :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("atom", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) == 0 {
			return zygo.SexpNull, fmt.Errorf("atom requires an element symbol")
		}
		symbol, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("atom: symbol: %w", err)
		}
		rest := pa.positional[1:]

		var pos geom.Vec3
		switch {
		case len(rest) == 0:
			if pos, err = vec3Arg(pa, "at", geom.Vec3{}); err != nil {
				return zygo.SexpNull, fmt.Errorf("atom: %w", err)
			}
		case len(rest) == 1:
			if pos, err = toVec3(rest[0]); err != nil {
				return zygo.SexpNull, fmt.Errorf("atom: position: %w", err)
			}
		case len(rest) == 3:
			var xyz [3]float64
			for i, a := range rest {
				if xyz[i], err = toFloat64(a); err != nil {
					return zygo.SexpNull, fmt.Errorf("atom: %c: %w", "xyz"[i], err)
				}
			}
			pos = geom.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		default:
			return zygo.SexpNull, fmt.Errorf("atom: expected a vec3 or 3 coordinates, got %d values", len(rest))
		}

		ref, err := b.add(symbol, pos)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("atom: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (chain "C" :count 4 :from (vec3 0 0 0) :step (vec3 1.5 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("chain", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("chain requires an element symbol")
		}
		symbol, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chain: symbol: %w", err)
		}
		count, err := countArg(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chain: %w", err)
		}
		from, err := vec3Arg(pa, "from", geom.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chain: %w", err)
		}
		step, err := vec3Arg(pa, "step", geom.Vec3{X: 1.5})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chain: %w", err)
		}

		refs := make([]zygo.Sexp, 0, count)
		for i := 0; i < count; i++ {
			ref, err := b.add(symbol, from.Add(step.Scale(float64(i))))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("chain: %w", err)
			}
			refs = append(refs, ref)
		}
		return zygo.MakeList(refs), nil
	})

	// -----------------------------------------------------------------------
	// (ring "C" :count 6 :radius 1.39 :center (vec3 0 0 0))
	// Atoms are spaced evenly in the XY plane starting on +X.
	// -----------------------------------------------------------------------
	env.AddFunction("ring", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("ring requires an element symbol")
		}
		symbol, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ring: symbol: %w", err)
		}
		count, err := countArg(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ring: %w", err)
		}
		radius := 1.0
		if v, ok := pa.kw["radius"]; ok {
			if radius, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("ring: radius: %w", err)
			}
			if radius <= 0 {
				return zygo.SexpNull, fmt.Errorf("ring: radius must be positive, got %g", radius)
			}
		}
		center, err := vec3Arg(pa, "center", geom.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ring: %w", err)
		}

		refs := make([]zygo.Sexp, 0, count)
		for i := 0; i < count; i++ {
			theta := 2 * math.Pi * float64(i) / float64(count)
			at := center.Add(geom.Vec3{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)})
			ref, err := b.add(symbol, at)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("ring: %w", err)
			}
			refs = append(refs, ref)
		}
		return zygo.MakeList(refs), nil
	})

	// -----------------------------------------------------------------------
	// (position a) returns the vec3 of an atom reference.
	// -----------------------------------------------------------------------
	env.AddFunction("position", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("position requires exactly 1 argument, got %d", len(args))
		}
		ref, err := toAtomRef(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("position: %w", err)
		}
		return &sexpVec3{vec: b.atoms[ref.index].Position}, nil
	})

	// -----------------------------------------------------------------------
	// (offset (vec3 ...) (vec3 ...)) adds two vectors.
	// -----------------------------------------------------------------------
	env.AddFunction("offset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("offset requires exactly 2 arguments, got %d", len(args))
		}
		a, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: %w", err)
		}
		c, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("offset: %w", err)
		}
		return &sexpVec3{vec: a.Add(c)}, nil
	})

	// -----------------------------------------------------------------------
	// (atom-count)
	// -----------------------------------------------------------------------
	env.AddFunction("atom_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(len(b.atoms))}, nil
	})
}

func countArg(pa kwArgs) (int, error) {
	v, ok := pa.kw["count"]
	if !ok {
		return 0, fmt.Errorf("count is required")
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if n < 1 || n > maxScriptAtoms {
		return 0, fmt.Errorf("count must be between 1 and %d, got %d", maxScriptAtoms, n)
	}
	return n, nil
}
