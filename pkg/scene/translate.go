package scene

import (
	"fmt"

	"github.com/chazu/molview/pkg/bond"
	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/structure"
)

const (
	DefaultAtomRadius = 0.3
	DefaultBondRadius = 0.1
)

// Style controls primitive sizes and colors.
type Style struct {
	AtomRadius   float64
	BondRadius   float64
	BondColorKey string
	Colors       element.ColorPolicy
}

// DefaultStyle returns the standard ball-and-stick style.
func DefaultStyle() Style {
	return Style{
		AtomRadius:   DefaultAtomRadius,
		BondRadius:   DefaultBondRadius,
		BondColorKey: element.ColorBond,
		Colors:       element.DefaultColorPolicy(),
	}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.AtomRadius <= 0 {
		s.AtomRadius = d.AtomRadius
	}
	if s.BondRadius <= 0 {
		s.BondRadius = d.BondRadius
	}
	if s.BondColorKey == "" {
		s.BondColorKey = d.BondColorKey
	}
	if s.Colors.Overrides == nil && s.Colors.Fallback == "" && !s.Colors.UseTable {
		s.Colors = d.Colors
	}
	return s
}

// Translator builds primitives from a structure and bond set. The zero value
// uses DefaultStyle and the default element table.
type Translator struct {
	Style Style
	Table *element.Table
}

// Build returns N spheres (atom i at index i) followed by one cylinder per
// bond (bond k at index N+k). It never mutates its inputs. A bond that
// references an atom outside s is an error.
func (t Translator) Build(s *structure.Structure, bonds bond.Set) ([]Primitive, error) {
	style := t.Style.withDefaults()
	table := t.Table
	if table == nil {
		table = element.Default()
	}

	n := s.Len()
	prims := make([]Primitive, 0, n+len(bonds))
	for i := 0; i < n; i++ {
		a := s.Atom(i)
		prims = append(prims, Sphere{
			Center:   a.Position,
			Radius:   style.AtomRadius,
			ColorKey: style.Colors.Key(table, a.Symbol),
			Tag:      AtomTag(i),
		})
	}

	for k, b := range bonds {
		if !s.Valid(b.A) || !s.Valid(b.B) {
			return nil, fmt.Errorf("scene: bond %d (%s) references atom outside structure of %d atoms", k, b, n)
		}
		prims = append(prims, bondCylinder(s.Atom(b.A).Position, s.Atom(b.B).Position, style, k))
	}
	return prims, nil
}

// bondCylinder spans start..end. Coincident endpoints give a zero-length
// cylinder with identity orientation.
func bondCylinder(start, end geom.Vec3, style Style, k int) Cylinder {
	d := end.Sub(start)
	return Cylinder{
		Midpoint:     start.Midpoint(end),
		Length:       d.Length(),
		RadiusTop:    style.BondRadius,
		RadiusBottom: style.BondRadius,
		Orientation:  geom.FromUnitVectors(geom.UnitY, d.Normalize()),
		ColorKey:     style.BondColorKey,
		Tag:          BondTag(k),
	}
}

// Split separates primitives into spheres and cylinders, preserving order.
func Split(prims []Primitive) (spheres []Sphere, cylinders []Cylinder) {
	for _, p := range prims {
		switch v := p.(type) {
		case Sphere:
			spheres = append(spheres, v)
		case Cylinder:
			cylinders = append(cylinders, v)
		}
	}
	return spheres, cylinders
}
