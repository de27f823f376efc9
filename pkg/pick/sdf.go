package pick

import (
	"math"

	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/kernel"
	"github.com/chazu/molview/pkg/scene"
	"github.com/chazu/molview/pkg/tessellate"
)

const (
	defaultMaxSteps   = 256
	defaultSDFEpsilon = 1e-5
	// stepScale under-relaxes each march so fields that slightly overestimate
	// distance (cones) are not stepped through.
	stepScale = 0.9
)

// SDFIntersector sphere-traces the kernel's signed distance field of each
// primitive. It lets picking agree with whatever surface the render backend
// actually draws.
type SDFIntersector struct {
	Kernel      kernel.Kernel
	MaxSteps    int
	Epsilon     float64
	MinDistance float64
}

var _ Intersector = SDFIntersector{}

func (s SDFIntersector) Intersect(ray Ray, prims []scene.Primitive) (Hit, bool) {
	best := Hit{Index: -1, Distance: math.Inf(1)}
	for i, p := range prims {
		solid, err := tessellate.Solid(s.Kernel, p)
		if err != nil {
			continue
		}
		if t, ok := s.march(ray, solid, best.Distance); ok && closer(t, i, best) {
			best = Hit{Index: i, Distance: t}
		}
	}
	return best, best.Index >= 0
}

// march returns the first t where the field drops below epsilon, searching
// only inside the solid's bounding box and before limit.
func (s SDFIntersector) march(ray Ray, solid kernel.Solid, limit float64) (float64, bool) {
	steps := s.MaxSteps
	if steps <= 0 {
		steps = defaultMaxSteps
	}
	eps := s.Epsilon
	if eps <= 0 {
		eps = defaultSDFEpsilon
	}

	lo, hi := solid.BoundingBox()
	t0, t1, ok := slab(ray, lo, hi)
	if !ok {
		return 0, false
	}
	t := math.Max(t0, math.Max(s.MinDistance, hitEpsilon))
	end := math.Min(t1, limit)
	for i := 0; i < steps && t <= end; i++ {
		d := solid.Distance(ray.At(t))
		if d < eps {
			return t, true
		}
		t += d * stepScale
	}
	return 0, false
}

// slab clips the ray against an axis-aligned box.
func slab(ray Ray, lo, hi geom.Vec3) (t0, t1 float64, ok bool) {
	t0, t1 = 0, math.Inf(1)
	o := [3]float64{ray.Origin.X, ray.Origin.Y, ray.Origin.Z}
	d := [3]float64{ray.Dir.X, ray.Dir.Y, ray.Dir.Z}
	l := [3]float64{lo.X, lo.Y, lo.Z}
	h := [3]float64{hi.X, hi.Y, hi.Z}
	for a := 0; a < 3; a++ {
		if math.Abs(d[a]) < 1e-15 {
			if o[a] < l[a] || o[a] > h[a] {
				return 0, 0, false
			}
			continue
		}
		ta := (l[a] - o[a]) / d[a]
		tb := (h[a] - o[a]) / d[a]
		if ta > tb {
			ta, tb = tb, ta
		}
		t0 = math.Max(t0, ta)
		t1 = math.Min(t1, tb)
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}
