package bond

import (
	"fmt"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/molview/pkg/geom"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50

	// pointTol gives atom rectangles a non-zero extent; rtreego treats
	// touching rectangles as disjoint.
	pointTol = 1e-9
	// queryMargin pads the search cube so candidates at exactly the
	// threshold still reach the exact predicate.
	queryMargin = 1e-6
)

type atomEntry struct {
	index int
	rect  rtreego.Rect
}

func (e *atomEntry) Bounds() rtreego.Rect { return e.rect }

func point(v geom.Vec3) rtreego.Point { return rtreego.Point{v.X, v.Y, v.Z} }

// index is a read-only R-tree over atom positions. Searches do not mutate
// the tree, so shards may share it.
type index struct {
	tree   *rtreego.Rtree
	pos    []geom.Vec3
	radius float64
}

func newIndex(pos []geom.Vec3, maxThreshold float64) (*index, error) {
	objs := make([]rtreego.Spatial, len(pos))
	for i, p := range pos {
		objs[i] = &atomEntry{index: i, rect: point(p).ToRect(pointTol)}
	}
	if maxThreshold < 0 {
		return nil, fmt.Errorf("bond: negative threshold %g", maxThreshold)
	}
	return &index{
		tree:   rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren, objs...),
		pos:    pos,
		radius: maxThreshold + queryMargin,
	}, nil
}

// scan finds bonds (i, j) with lo <= i < hi and j > i.
func (x *index) scan(c *calc, lo, hi int) []Bond {
	var out []Bond
	side := 2 * x.radius
	for i := lo; i < hi; i++ {
		p := x.pos[i]
		corner := rtreego.Point{p.X - x.radius, p.Y - x.radius, p.Z - x.radius}
		bb, err := rtreego.NewRect(corner, []float64{side, side, side})
		if err != nil {
			// radius is positive, so NewRect cannot fail.
			continue
		}
		above := func(_ []rtreego.Spatial, obj rtreego.Spatial) (bool, bool) {
			return obj.(*atomEntry).index <= i, false
		}
		for _, obj := range x.tree.SearchIntersect(bb, above) {
			j := obj.(*atomEntry).index
			if c.bonded(i, j) {
				out = append(out, Bond{A: i, B: j})
			}
		}
	}
	return out
}
