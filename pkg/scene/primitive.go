// Package scene translates a structure and its bonds into renderable
// primitives: one sphere per atom and one oriented cylinder per bond. Every
// primitive carries a Tag pointing back at the atom or bond it came from so
// picks can be resolved to identities.
package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/molview/pkg/geom"
)

// TagKind identifies what a primitive represents.
type TagKind int

const (
	TagNone TagKind = iota
	TagAtom
	TagBond
)

func (k TagKind) String() string {
	switch k {
	case TagNone:
		return "none"
	case TagAtom:
		return "atom"
	case TagBond:
		return "bond"
	}
	return fmt.Sprintf("TagKind(%d)", int(k))
}

// Tag is a back-reference from a primitive to the atom or bond index it was
// built from. The zero Tag refers to nothing.
type Tag struct {
	Kind  TagKind `json:"kind"`
	Index int     `json:"index"`
}

// AtomTag returns the tag for atom i.
func AtomTag(i int) Tag { return Tag{Kind: TagAtom, Index: i} }

// BondTag returns the tag for bond k.
func BondTag(k int) Tag { return Tag{Kind: TagBond, Index: k} }

// String renders the tag as "atom/3" or "bond/0".
func (t Tag) String() string {
	if t.Kind == TagNone {
		return "none"
	}
	return t.Kind.String() + "/" + strconv.Itoa(t.Index)
}

// ParseTag is the inverse of Tag.String.
func ParseTag(s string) (Tag, error) {
	if s == "none" || s == "" {
		return Tag{}, nil
	}
	kind, idx, ok := strings.Cut(s, "/")
	if !ok {
		return Tag{}, fmt.Errorf("scene: malformed tag %q", s)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return Tag{}, fmt.Errorf("scene: malformed tag index %q", s)
	}
	switch kind {
	case "atom":
		return AtomTag(i), nil
	case "bond":
		return BondTag(i), nil
	}
	return Tag{}, fmt.Errorf("scene: unknown tag kind %q", kind)
}

// Primitive is a closed sum type. Only Sphere and Cylinder implement it.
type Primitive interface {
	primitive()
	// Ref returns the primitive's back-reference.
	Ref() Tag
	// Color returns the primitive's color key.
	Color() string
}

// Sphere is an atom.
type Sphere struct {
	Center   geom.Vec3
	Radius   float64
	ColorKey string
	Tag      Tag
}

// Cylinder is a bond. It is centered on Midpoint; its local +Y axis is
// rotated by Orientation onto the bond direction.
type Cylinder struct {
	Midpoint     geom.Vec3
	Length       float64
	RadiusTop    float64
	RadiusBottom float64
	Orientation  geom.Quat
	ColorKey     string
	Tag          Tag
}

func (Sphere) primitive()   {}
func (Cylinder) primitive() {}

func (s Sphere) Ref() Tag   { return s.Tag }
func (c Cylinder) Ref() Tag { return c.Tag }

func (s Sphere) Color() string   { return s.ColorKey }
func (c Cylinder) Color() string { return c.ColorKey }

// Axis returns the unit direction of the cylinder's +Y end.
func (c Cylinder) Axis() geom.Vec3 {
	return c.Orientation.Rotate(geom.UnitY)
}

// Endpoints returns the bottom and top cap centers.
func (c Cylinder) Endpoints() (bottom, top geom.Vec3) {
	half := c.Axis().Scale(c.Length / 2)
	return c.Midpoint.Sub(half), c.Midpoint.Add(half)
}

// Bounds returns the axis-aligned box enclosing p.
func Bounds(p Primitive) (min, max geom.Vec3) {
	switch v := p.(type) {
	case Sphere:
		r := geom.Vec3{X: v.Radius, Y: v.Radius, Z: v.Radius}
		return v.Center.Sub(r), v.Center.Add(r)
	case Cylinder:
		a, b := v.Endpoints()
		rad := v.RadiusTop
		if v.RadiusBottom > rad {
			rad = v.RadiusBottom
		}
		r := geom.Vec3{X: rad, Y: rad, Z: rad}
		lo := geom.Vec3{X: minf(a.X, b.X), Y: minf(a.Y, b.Y), Z: minf(a.Z, b.Z)}
		hi := geom.Vec3{X: maxf(a.X, b.X), Y: maxf(a.Y, b.Y), Z: maxf(a.Z, b.Z)}
		return lo.Sub(r), hi.Add(r)
	}
	return geom.Vec3{}, geom.Vec3{}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
