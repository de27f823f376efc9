// Package kernel defines the render-backend geometry contract.
// Implementations (sdfx) turn scene primitives into solids that can be
// meshed for display and queried as signed distance fields for picking.
// The abstraction lets hosts swap backends without touching the scene or
// picking code.
package kernel

import "github.com/chazu/molview/pkg/geom"

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Vec3)
	// Distance returns the signed distance from p to the surface:
	// negative inside, positive outside.
	Distance(p geom.Vec3) float64
}

// Kernel is the render-backend geometry contract.
//
// Primitives are built in a local frame: spheres centered at the origin,
// cylinders centered at the origin with their axis along +Y. Place moves a
// local solid into world space.
type Kernel interface {
	// Primitives
	Sphere(radius float64) (Solid, error)
	Cylinder(height, radiusTop, radiusBottom float64) (Solid, error)

	// Transforms
	Place(s Solid, at geom.Vec3, orient geom.Quat) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
