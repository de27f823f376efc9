// Package tessellate turns scene primitives into triangle meshes using a
// geometry kernel. One mesh is produced per primitive and tagged with the
// primitive's back-reference.
package tessellate

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/kernel"
	"github.com/chazu/molview/pkg/scene"
)

// ErrDegenerate is returned by Solid for primitives with no volume, such as
// the zero-length bond between coincident atoms.
var ErrDegenerate = errors.New("tessellate: degenerate primitive")

type options struct {
	palette element.Palette
	table   *element.Table
	workers int
}

// Option configures Tessellate.
type Option func(*options)

// WithPalette resolves color keys to hex colors on the produced meshes.
func WithPalette(p element.Palette, t *element.Table) Option {
	return func(o *options) {
		o.palette = p
		o.table = t
	}
}

// WithWorkers meshes up to n primitives concurrently.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Solid builds the world-space kernel solid for p.
func Solid(k kernel.Kernel, p scene.Primitive) (kernel.Solid, error) {
	switch v := p.(type) {
	case scene.Sphere:
		return handleSphere(k, v)
	case scene.Cylinder:
		return handleCylinder(k, v)
	default:
		return nil, fmt.Errorf("tessellate: unknown primitive %T", p)
	}
}

// handleSphere creates an atom solid.
func handleSphere(k kernel.Kernel, s scene.Sphere) (kernel.Solid, error) {
	if s.Radius <= 0 {
		return nil, fmt.Errorf("%w: %s has radius %g", ErrDegenerate, s.Tag, s.Radius)
	}
	solid, err := k.Sphere(s.Radius)
	if err != nil {
		return nil, err
	}
	return k.Place(solid, s.Center, geom.Identity), nil
}

// handleCylinder creates a bond solid.
func handleCylinder(k kernel.Kernel, c scene.Cylinder) (kernel.Solid, error) {
	if c.Length <= 0 || (c.RadiusTop <= 0 && c.RadiusBottom <= 0) {
		return nil, fmt.Errorf("%w: %s has length %g", ErrDegenerate, c.Tag, c.Length)
	}
	solid, err := k.Cylinder(c.Length, c.RadiusTop, c.RadiusBottom)
	if err != nil {
		return nil, err
	}
	return k.Place(solid, c.Midpoint, c.Orientation), nil
}

// Tessellate produces one mesh per non-degenerate primitive, in primitive
// order. Degenerate primitives are skipped. The tessellator is read-only and
// never mutates the primitives.
func Tessellate(prims []scene.Primitive, k kernel.Kernel, opts ...Option) ([]*kernel.Mesh, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	meshes := make([]*kernel.Mesh, len(prims))
	var g errgroup.Group
	if o.workers > 0 {
		g.SetLimit(o.workers)
	}
	for i, p := range prims {
		i, p := i, p
		g.Go(func() error {
			m, err := meshPrimitive(k, p, o)
			if err != nil {
				return fmt.Errorf("tessellate: primitive %d (%s): %w", i, p.Ref(), err)
			}
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := meshes[:0]
	for _, m := range meshes {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func meshPrimitive(k kernel.Kernel, p scene.Primitive, o options) (*kernel.Mesh, error) {
	solid, err := Solid(k, p)
	if errors.Is(err, ErrDegenerate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed: %w", err)
	}
	mesh.Tag = p.Ref().String()
	if o.palette != nil {
		mesh.Color = o.palette.Resolve(o.table, p.Color())
	}
	return mesh, nil
}
