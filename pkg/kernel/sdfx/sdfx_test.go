package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/molview/pkg/geom"
)

func TestSphere(t *testing.T) {
	k := New(WithMeshCells(16))
	s, err := k.Sphere(0.3)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	// Every vertex lies close to the surface.
	for i := 0; i < mesh.VertexCount(); i++ {
		v := geom.Vec3{
			X: float64(mesh.Vertices[i*3]),
			Y: float64(mesh.Vertices[i*3+1]),
			Z: float64(mesh.Vertices[i*3+2]),
		}
		if d := math.Abs(v.Length() - 0.3); d > 0.05 {
			t.Fatalf("vertex %d at radius %f, expected ~0.3", i, v.Length())
		}
	}
}

func TestSphereRejectsBadRadius(t *testing.T) {
	if _, err := New().Sphere(0); err == nil {
		t.Fatal("expected error for zero radius")
	}
}

func TestSphereDistance(t *testing.T) {
	k := New()
	s, err := k.Sphere(1)
	if err != nil {
		t.Fatal(err)
	}
	placed := k.Place(s, geom.Vec3{X: 5, Y: 0, Z: 0}, geom.Identity)

	const tol = 1e-9
	if d := placed.Distance(geom.Vec3{X: 5}); math.Abs(d+1) > tol {
		t.Errorf("distance at center = %f, want -1", d)
	}
	if d := placed.Distance(geom.Vec3{X: 8}); math.Abs(d-2) > tol {
		t.Errorf("distance at (8,0,0) = %f, want 2", d)
	}
}

func TestCylinderAlongY(t *testing.T) {
	k := New()
	cyl, err := k.Cylinder(2, 0.1, 0.1)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	min, max := cyl.BoundingBox()

	const tol = 0.01
	if math.Abs(max.Y-min.Y-2) > tol {
		t.Errorf("Y extent = %f, expected 2", max.Y-min.Y)
	}
	if max.X-min.X > 0.2+tol || max.Z-min.Z > 0.2+tol {
		t.Errorf("radial extent too large: %v .. %v", min, max)
	}
	if d := cyl.Distance(geom.Vec3{Y: 0.9}); d >= 0 {
		t.Errorf("point on the axis inside the cylinder has distance %f", d)
	}
	if d := cyl.Distance(geom.Vec3{Z: 0.9}); d <= 0 {
		t.Errorf("point off the axis has distance %f", d)
	}
}

func TestConeWhenRadiiDiffer(t *testing.T) {
	k := New()
	cone, err := k.Cylinder(2, 0.05, 0.2)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	// The wide end is at -Y.
	if d := cone.Distance(geom.Vec3{X: 0.15, Y: -0.9}); d >= 0 {
		t.Errorf("point near the wide end should be inside, distance %f", d)
	}
	if d := cone.Distance(geom.Vec3{X: 0.15, Y: 0.9}); d <= 0 {
		t.Errorf("point near the narrow end should be outside, distance %f", d)
	}
}

func TestPlaceRotatesAxis(t *testing.T) {
	k := New()
	cyl, err := k.Cylinder(4, 0.1, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	dir := geom.Vec3{X: 1, Y: 1, Z: 0}.Normalize()
	at := geom.Vec3{X: 1, Y: 2, Z: 3}
	placed := k.Place(cyl, at, geom.FromUnitVectors(geom.UnitY, dir))

	// Points along the bond direction are inside, points across it are not.
	if d := placed.Distance(at.Add(dir.Scale(1.5))); d >= 0 {
		t.Errorf("point along axis has distance %f, want < 0", d)
	}
	across := geom.Vec3{X: -1, Y: 1, Z: 0}.Normalize()
	if d := placed.Distance(at.Add(across.Scale(1.5))); d <= 0 {
		t.Errorf("point across axis has distance %f, want > 0", d)
	}
}

func TestPlacedMeshIsTranslated(t *testing.T) {
	k := New(WithMeshCells(12))
	s, err := k.Sphere(0.5)
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := k.ToMesh(k.Place(s, geom.Vec3{X: 10, Y: -3, Z: 2}, geom.Identity))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	min, max, ok := mesh.Bounds()
	if !ok {
		t.Fatal("mesh is empty")
	}
	center := [3]float32{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2, (min[2] + max[2]) / 2}
	want := [3]float32{10, -3, 2}
	for i := range center {
		if math.Abs(float64(center[i]-want[i])) > 0.1 {
			t.Errorf("center[%d] = %f, want ~%f", i, center[i], want[i])
		}
	}
}

func TestMeshCellsFloor(t *testing.T) {
	if got := New(WithMeshCells(2)).MeshCells(); got != 8 {
		t.Errorf("MeshCells() = %d, want 8", got)
	}
	if got := New().MeshCells(); got != DefaultMeshCells {
		t.Errorf("MeshCells() = %d, want %d", got, DefaultMeshCells)
	}
}
