package tessellate_test

import (
	"errors"
	"testing"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/kernel"
	"github.com/chazu/molview/pkg/kernel/sdfx"
	"github.com/chazu/molview/pkg/scene"
	"github.com/chazu/molview/pkg/tessellate"
)

// newKernel returns a coarse sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New(sdfx.WithMeshCells(10))
}

// makeAtom creates an atom sphere primitive.
func makeAtom(i int, x, y, z float64) scene.Sphere {
	return scene.Sphere{
		Center:   geom.Vec3{X: x, Y: y, Z: z},
		Radius:   0.3,
		ColorKey: element.ColorRed,
		Tag:      scene.AtomTag(i),
	}
}

// makeBond creates a bond cylinder between two points.
func makeBond(k int, a, b geom.Vec3) scene.Cylinder {
	d := b.Sub(a)
	return scene.Cylinder{
		Midpoint:     a.Midpoint(b),
		Length:       d.Length(),
		RadiusTop:    0.1,
		RadiusBottom: 0.1,
		Orientation:  geom.FromUnitVectors(geom.UnitY, d.Normalize()),
		ColorKey:     element.ColorBond,
		Tag:          scene.BondTag(k),
	}
}

func TestTessellateEmpty(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, newKernel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}
}

func TestTessellateTagsAndOrder(t *testing.T) {
	a := makeAtom(0, 0, 0, 0)
	b := makeAtom(1, 1.2, 0, 0)
	prims := []scene.Primitive{a, b, makeBond(0, a.Center, b.Center)}

	meshes, err := tessellate.Tessellate(prims, newKernel(),
		tessellate.WithPalette(element.DefaultPalette(), nil),
		tessellate.WithWorkers(2),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	wantTags := []string{"atom/0", "atom/1", "bond/0"}
	wantColors := []string{"#FF0000", "#FF0000", "#808080"}
	for i, m := range meshes {
		if m.IsEmpty() {
			t.Errorf("mesh %d is empty", i)
		}
		if m.Tag != wantTags[i] {
			t.Errorf("mesh %d tag = %q, want %q", i, m.Tag, wantTags[i])
		}
		if m.Color != wantColors[i] {
			t.Errorf("mesh %d color = %q, want %q", i, m.Color, wantColors[i])
		}
	}
}

func TestTessellatePlacesAtoms(t *testing.T) {
	meshes, err := tessellate.Tessellate([]scene.Primitive{makeAtom(4, 3, -2, 1)}, newKernel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	min, max, ok := meshes[0].Bounds()
	if !ok {
		t.Fatal("mesh is empty")
	}
	cx := (min[0] + max[0]) / 2
	cy := (min[1] + max[1]) / 2
	if cx < 2.9 || cx > 3.1 || cy < -2.1 || cy > -1.9 {
		t.Errorf("mesh centered at (%f, %f), expected (3, -2)", cx, cy)
	}
	if meshes[0].Tag != "atom/4" {
		t.Errorf("tag = %q, want atom/4", meshes[0].Tag)
	}
	if meshes[0].Color != "" {
		t.Errorf("color = %q without a palette, want empty", meshes[0].Color)
	}
}

func TestTessellateSkipsDegenerateBond(t *testing.T) {
	a := makeAtom(0, 1, 1, 1)
	b := makeAtom(1, 1, 1, 1)
	prims := []scene.Primitive{a, b, makeBond(0, a.Center, b.Center)}

	meshes, err := tessellate.Tessellate(prims, newKernel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes (bond skipped), got %d", len(meshes))
	}
}

func TestSolidDegenerate(t *testing.T) {
	_, err := tessellate.Solid(newKernel(), makeBond(0, geom.Vec3{}, geom.Vec3{}))
	if !errors.Is(err, tessellate.ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
}

func TestSolidDistanceMatchesPrimitive(t *testing.T) {
	k := newKernel()
	bond := makeBond(0, geom.Vec3{}, geom.Vec3{X: 2, Y: 2})
	solid, err := tessellate.Solid(k, bond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := solid.Distance(bond.Midpoint); d >= 0 {
		t.Errorf("midpoint distance = %f, want < 0", d)
	}
	if d := solid.Distance(geom.Vec3{X: 2}); d <= 0 {
		t.Errorf("off-axis distance = %f, want > 0", d)
	}
}
