// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest bounding box axis. Atoms are small, so a modest count gives
// smooth spheres without the cost of the CAD-scale default.
const DefaultMeshCells = 32

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max geom.Vec3) {
	bb := s.s.BoundingBox()
	return fromVec(bb.Min), fromVec(bb.Max)
}

// Distance evaluates the signed distance field at p.
func (s *sdfxSolid) Distance(p geom.Vec3) float64 {
	return s.s.Evaluate(toVec(p))
}

func toVec(p geom.Vec3) v3.Vec   { return v3.Vec{X: p.X, Y: p.Y, Z: p.Z} }
func fromVec(v v3.Vec) geom.Vec3 { return geom.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution. Values below 8 are
// raised to 8.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n < 8 {
			n = 8
		}
		k.cells = n
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: DefaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// MeshCells returns the marching cubes resolution in use.
func (k *SdfxKernel) MeshCells() int { return k.cells }

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) (sdf.SDF3, error) {
	ss, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign solid %T", s)
	}
	return ss.s, nil
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Sphere creates a sphere of the given radius centered at the origin.
func (k *SdfxKernel) Sphere(radius float64) (kernel.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere r=%g: %w", radius, err)
	}
	return wrap(s), nil
}

// Cylinder creates a cylinder (or truncated cone when the radii differ)
// centered at the origin with its axis along +Y. sdfx builds these along Z,
// so the solid is turned -90° about X to bring +Z onto +Y.
func (k *SdfxKernel) Cylinder(height, radiusTop, radiusBottom float64) (kernel.Solid, error) {
	var (
		s   sdf.SDF3
		err error
	)
	if radiusTop == radiusBottom {
		s, err = sdf.Cylinder3D(height, radiusTop, 0)
	} else {
		s, err = sdf.Cone3D(height, radiusBottom, radiusTop, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder h=%g r=%g/%g: %w", height, radiusTop, radiusBottom, err)
	}
	return wrap(sdf.Transform3D(s, sdf.RotateX(-math.Pi/2))), nil
}

// Place rotates a local solid by orient and then moves it to at.
func (k *SdfxKernel) Place(s kernel.Solid, at geom.Vec3, orient geom.Quat) kernel.Solid {
	inner, err := unwrap(s)
	if err != nil {
		panic(err)
	}
	x, y, z := orient.EulerZYX()
	m := sdf.Translate3d(toVec(at)).
		Mul(sdf.RotateZ(z)).
		Mul(sdf.RotateY(y)).
		Mul(sdf.RotateX(x))
	return wrap(sdf.Transform3D(inner, m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes. Normals
// are taken from the distance field gradient at each vertex so curved
// surfaces shade smoothly; flat regions fall back to the face normal.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	field, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	triangles := render.ToTriangles(field, render.NewMarchingCubesUniform(k.cells))
	bb := field.BoundingBox()
	size := bb.Max.Sub(bb.Min)
	h := math.Max(size.X, math.Max(size.Y, size.Z)) * 1e-4

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, len(triangles)*9),
		Normals:  make([]float32, 0, len(triangles)*9),
		Indices:  make([]uint32, 0, len(triangles)*3),
	}
	for _, tri := range triangles {
		face := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			n := gradient(field, v, h)
			if n.Length() == 0 {
				n = face
			}
			m.Indices = append(m.Indices, uint32(m.VertexCount()))
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
	return m, nil
}

// gradient estimates the unit gradient of f at p by central differences.
func gradient(f sdf.SDF3, p v3.Vec, h float64) v3.Vec {
	if h <= 0 {
		return v3.Vec{}
	}
	dx := v3.Vec{X: h}
	dy := v3.Vec{Y: h}
	dz := v3.Vec{Z: h}
	g := geom.Vec3{
		X: f.Evaluate(p.Add(dx)) - f.Evaluate(p.Sub(dx)),
		Y: f.Evaluate(p.Add(dy)) - f.Evaluate(p.Sub(dy)),
		Z: f.Evaluate(p.Add(dz)) - f.Evaluate(p.Sub(dz)),
	}.Normalize()
	return toVec(g)
}
