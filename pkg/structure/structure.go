// Package structure defines the in-memory molecular structure and the XYZ
// text format it is read from and written to.
package structure

import (
	"math"

	"github.com/chazu/molview/pkg/geom"
)

// Atom is a single atom. Its identity is its index within the owning
// Structure.
type Atom struct {
	Symbol   string    `json:"symbol"`
	Position geom.Vec3 `json:"position"`
}

// Structure is an ordered, immutable sequence of atoms. Order is file order.
type Structure struct {
	comment string
	atoms   []Atom
}

// New builds a Structure from atoms. The slice is copied.
func New(comment string, atoms []Atom) *Structure {
	return &Structure{
		comment: comment,
		atoms:   append([]Atom(nil), atoms...),
	}
}

// Len returns the number of atoms.
func (s *Structure) Len() int {
	if s == nil {
		return 0
	}
	return len(s.atoms)
}

// Atom returns atom i. It panics if i is out of range, like a slice index.
func (s *Structure) Atom(i int) Atom {
	return s.atoms[i]
}

// Valid reports whether i is a valid atom index.
func (s *Structure) Valid(i int) bool {
	return i >= 0 && i < s.Len()
}

// Atoms returns a copy of the atom sequence.
func (s *Structure) Atoms() []Atom {
	if s == nil {
		return nil
	}
	return append([]Atom(nil), s.atoms...)
}

// Comment returns the free-form comment line.
func (s *Structure) Comment() string {
	if s == nil {
		return ""
	}
	return s.comment
}

// Positions returns the atom positions in order.
func (s *Structure) Positions() []geom.Vec3 {
	out := make([]geom.Vec3, s.Len())
	for i := range out {
		out[i] = s.atoms[i].Position
	}
	return out
}

// Symbols returns the distinct symbols in first-seen order.
func (s *Structure) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.Atoms() {
		if !seen[a.Symbol] {
			seen[a.Symbol] = true
			out = append(out, a.Symbol)
		}
	}
	return out
}

// Centroid returns the unweighted mean position, or the origin for an empty
// structure.
func (s *Structure) Centroid() geom.Vec3 {
	n := s.Len()
	if n == 0 {
		return geom.Vec3{}
	}
	var sum geom.Vec3
	for _, a := range s.atoms {
		sum = sum.Add(a.Position)
	}
	return sum.Scale(1 / float64(n))
}

// Bounds returns the axis-aligned bounding box of the atom centers. For an
// empty structure both corners are the origin.
func (s *Structure) Bounds() (min, max geom.Vec3) {
	if s.Len() == 0 {
		return geom.Vec3{}, geom.Vec3{}
	}
	min = geom.Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = geom.Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, a := range s.atoms {
		p := a.Position
		min = geom.Vec3{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = geom.Vec3{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return min, max
}
