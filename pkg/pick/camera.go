// Package pick resolves pointer positions to atom identities. A Camera
// turns normalized device coordinates into a world ray; an Intersector finds
// the nearest primitive along it; the Picker maps the hit's back-reference
// onto a Selection.
package pick

import (
	"fmt"
	"math"

	"github.com/chazu/molview/pkg/geom"
)

// Camera is a perspective camera. FovY is the vertical field of view in
// degrees; Aspect is width/height.
type Camera struct {
	Position geom.Vec3 `json:"position"`
	Target   geom.Vec3 `json:"target"`
	Up       geom.Vec3 `json:"up"`
	FovY     float64   `json:"fovY"`
	Aspect   float64   `json:"aspect"`
	Near     float64   `json:"near"`
}

// DefaultCamera looks at the origin from +Z.
func DefaultCamera() Camera {
	return Camera{
		Position: geom.Vec3{Z: 5},
		Up:       geom.UnitY,
		FovY:     75,
		Aspect:   1,
		Near:     0.1,
	}
}

// Frame returns a camera looking at the center of the box [min, max] from
// +Z, far enough back that the whole box is in view.
func Frame(min, max geom.Vec3, aspect float64) Camera {
	c := DefaultCamera()
	if aspect > 0 {
		c.Aspect = aspect
	}
	center := min.Midpoint(max)
	radius := max.Sub(min).Length() / 2
	if radius == 0 {
		radius = 1
	}
	half := c.FovY * math.Pi / 360
	if c.Aspect < 1 {
		half = math.Atan(math.Tan(half) * c.Aspect)
	}
	dist := radius/math.Sin(half) + c.Near
	c.Target = center
	c.Position = center.Add(geom.Vec3{Z: dist})
	return c
}

// Validate checks the camera can produce rays.
func (c Camera) Validate() error {
	if !c.Position.IsFinite() || !c.Target.IsFinite() || !c.Up.IsFinite() {
		return fmt.Errorf("pick: camera has non-finite vectors")
	}
	if c.Target.Sub(c.Position).Length() == 0 {
		return fmt.Errorf("pick: camera position equals target")
	}
	if c.FovY <= 0 || c.FovY >= 180 {
		return fmt.Errorf("pick: camera fovY %g out of range (0, 180)", c.FovY)
	}
	if c.Aspect <= 0 {
		return fmt.Errorf("pick: camera aspect %g must be positive", c.Aspect)
	}
	f := c.Target.Sub(c.Position).Normalize()
	if f.Cross(c.Up).Length() < 1e-12 {
		return fmt.Errorf("pick: camera up is parallel to view direction")
	}
	return nil
}

// Ray is a half-line Origin + t*Dir, t >= 0, with unit Dir.
type Ray struct {
	Origin geom.Vec3
	Dir    geom.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) geom.Vec3 { return r.Origin.Add(r.Dir.Scale(t)) }

// NDC is a point in normalized device coordinates: x and y in [-1, 1],
// y up, (0, 0) at the viewport center.
type NDC struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromPixel converts a pixel position (origin top-left) in a viewport of
// width x height into NDC.
func FromPixel(px, py, width, height float64) NDC {
	return NDC{
		X: px/width*2 - 1,
		Y: -(py/height)*2 + 1,
	}
}

// Ray returns the world-space ray through ndc.
func (c Camera) Ray(ndc NDC) Ray {
	f := c.Target.Sub(c.Position).Normalize()
	r := f.Cross(c.Up).Normalize()
	u := r.Cross(f)
	halfH := math.Tan(c.FovY * math.Pi / 360)
	halfW := c.Aspect * halfH
	dir := f.Add(r.Scale(ndc.X * halfW)).Add(u.Scale(ndc.Y * halfH)).Normalize()
	return Ray{Origin: c.Position, Dir: dir}
}
