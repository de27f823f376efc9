package pick

import (
	"sync"

	"github.com/chazu/molview/pkg/scene"
)

// Result describes a successful pick.
type Result struct {
	Tag       scene.Tag `json:"tag"`
	Primitive int       `json:"primitive"`
	Distance  float64   `json:"distance"`
	// Selected reports whether the atom is selected after the toggle. Always
	// false for bond hits.
	Selected bool `json:"selected"`
}

// Picker resolves picks and toggles the selection. Pick calls are
// serialized, so the selection has a single writer.
type Picker struct {
	mu        sync.Mutex
	intersect Intersector
	selection *Selection

	// SelectBonds reports bond hits as results instead of misses. It never
	// changes the atom selection.
	SelectBonds bool
}

// NewPicker returns a picker over a fresh selection. A nil intersector
// defaults to Analytic.
func NewPicker(in Intersector) *Picker {
	if in == nil {
		in = Analytic{}
	}
	return &Picker{intersect: in, selection: NewSelection()}
}

// Selection returns the picker's selection.
func (p *Picker) Selection() *Selection { return p.selection }

// Pick casts a ray through ndc. A hit on an atom toggles that atom and
// returns ok=true. A miss, or a bond hit without SelectBonds, returns
// ok=false and leaves the selection unchanged.
func (p *Picker) Pick(ndc NDC, cam Camera, prims []scene.Primitive) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ray := cam.Ray(ndc)
	hit, ok := withNear(p.intersect, cam.Near).Intersect(ray, prims)
	if !ok || hit.Index < 0 || hit.Index >= len(prims) {
		return Result{}, false
	}

	tag := prims[hit.Index].Ref()
	res := Result{Tag: tag, Primitive: hit.Index, Distance: hit.Distance}
	switch tag.Kind {
	case scene.TagAtom:
		res.Selected = p.selection.Toggle(tag.Index)
		return res, true
	case scene.TagBond:
		if p.SelectBonds {
			return res, true
		}
	}
	return Result{}, false
}

// withNear applies the camera's near plane to the built-in intersectors
// unless they carry an explicit minimum distance.
func withNear(in Intersector, near float64) Intersector {
	switch v := in.(type) {
	case Analytic:
		if v.MinDistance == 0 {
			v.MinDistance = near
		}
		return v
	case SDFIntersector:
		if v.MinDistance == 0 {
			v.MinDistance = near
		}
		return v
	}
	return in
}
