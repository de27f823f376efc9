package pick

import (
	"math"

	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/scene"
)

// Hit is the nearest primitive along a ray.
type Hit struct {
	Index    int     // position in the primitive slice
	Distance float64 // ray parameter t
}

// Intersector finds the nearest primitive a ray hits. Ties on distance go to
// the lower primitive index.
type Intersector interface {
	Intersect(ray Ray, prims []scene.Primitive) (Hit, bool)
}

// hitEpsilon ignores self-intersections at the ray origin.
const hitEpsilon = 1e-4

// Analytic intersects rays with primitives in closed form.
type Analytic struct {
	// MinDistance ignores hits closer than this (the camera's near plane).
	MinDistance float64
}

var _ Intersector = Analytic{}

func (a Analytic) Intersect(ray Ray, prims []scene.Primitive) (Hit, bool) {
	best := Hit{Index: -1, Distance: math.Inf(1)}
	near := math.Max(a.MinDistance, hitEpsilon)
	for i, p := range prims {
		var (
			t  float64
			ok bool
		)
		switch v := p.(type) {
		case scene.Sphere:
			t, ok = intersectSphere(ray, v.Center, v.Radius, near)
		case scene.Cylinder:
			t, ok = intersectCylinder(ray, v, near)
		}
		if ok && closer(t, i, best) {
			best = Hit{Index: i, Distance: t}
		}
	}
	return best, best.Index >= 0
}

// closer reports whether a hit at t on primitive i beats best.
func closer(t float64, i int, best Hit) bool {
	if best.Index < 0 || t < best.Distance {
		return true
	}
	return t == best.Distance && i < best.Index
}

// intersectSphere returns the first t > near where the ray enters (or, from
// inside, leaves) the sphere.
func intersectSphere(ray Ray, center geom.Vec3, radius, near float64) (float64, bool) {
	oc := ray.Origin.Sub(center)
	a := ray.Dir.Dot(ray.Dir)
	b := 2 * oc.Dot(ray.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := (-b - sq) / (2 * a); t > near {
		return t, true
	}
	if t := (-b + sq) / (2 * a); t > near {
		return t, true
	}
	return 0, false
}

// intersectCylinder hits the lateral surface and both caps of a finite
// cylinder. Tapered cylinders are treated as straight with the larger
// radius.
func intersectCylinder(ray Ray, cyl scene.Cylinder, near float64) (float64, bool) {
	if cyl.Length <= 0 {
		return 0, false
	}
	radius := math.Max(cyl.RadiusTop, cyl.RadiusBottom)
	p1, p2 := cyl.Endpoints()
	axis := cyl.Axis()
	dp := ray.Origin.Sub(p1)

	best := math.Inf(1)
	hit := false

	// Lateral surface.
	dDotV := ray.Dir.Dot(axis)
	dPerp := ray.Dir.Sub(axis.Scale(dDotV))
	dpPerp := dp.Sub(axis.Scale(dp.Dot(axis)))
	A := dPerp.Dot(dPerp)
	B := 2 * dPerp.Dot(dpPerp)
	C := dpPerp.Dot(dpPerp) - radius*radius
	if A > 1e-12 {
		if disc := B*B - 4*A*C; disc >= 0 {
			sq := math.Sqrt(disc)
			for _, t := range [2]float64{(-B - sq) / (2 * A), (-B + sq) / (2 * A)} {
				if t <= near || t >= best {
					continue
				}
				proj := ray.At(t).Sub(p1).Dot(axis)
				if proj >= 0 && proj <= cyl.Length {
					best, hit = t, true
				}
			}
		}
	}

	// Caps.
	if math.Abs(dDotV) > 1e-12 {
		for _, capCenter := range [2]geom.Vec3{p1, p2} {
			t := capCenter.Sub(ray.Origin).Dot(axis) / dDotV
			if t <= near || t >= best {
				continue
			}
			off := ray.At(t).Sub(capCenter)
			if off.Sub(axis.Scale(off.Dot(axis))).Length() <= radius {
				best, hit = t, true
			}
		}
	}
	return best, hit
}
