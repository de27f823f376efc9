package viewer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/kernel"
	"github.com/chazu/molview/pkg/pick"
	"github.com/chazu/molview/pkg/scene"
	"github.com/chazu/molview/pkg/tessellate"
)

// RenderContext is the render backend's handle: a kernel to mesh with, the
// current camera and a session id that tags log lines from one window.
type RenderContext struct {
	ID      string
	Kernel  kernel.Kernel
	Camera  pick.Camera
	Palette element.Palette
	Table   *element.Table
	Workers int

	log *zap.Logger
}

// NewRenderContext returns a context with a fresh session id.
func NewRenderContext(k kernel.Kernel, log *zap.Logger) *RenderContext {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &RenderContext{
		ID:      id,
		Kernel:  k,
		Camera:  pick.DefaultCamera(),
		Palette: element.DefaultPalette(),
		Table:   element.Default(),
		Workers: runtime.NumCPU(),
		log:     log.With(zap.String("render_session", id)),
	}
}

// Submit meshes prims in order. It checks ctx before and after the work,
// since meshing itself is not interruptible.
func (r *RenderContext) Submit(ctx context.Context, prims []scene.Primitive) ([]*kernel.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meshes, err := tessellate.Tessellate(prims, r.Kernel,
		tessellate.WithPalette(r.Palette, r.Table),
		tessellate.WithWorkers(r.Workers),
	)
	if err != nil {
		r.log.Error("tessellation failed", zap.Error(err))
		return nil, fmt.Errorf("viewer: render: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.log.Debug("scene submitted", zap.Int("primitives", len(prims)), zap.Int("meshes", len(meshes)))
	return meshes, nil
}

// Frame points the camera at the snapshot's atoms, padded by the largest
// atom radius.
func (r *RenderContext) Frame(snap Snapshot, aspect float64) {
	if snap.Structure.Len() == 0 {
		r.Camera = pick.DefaultCamera()
		return
	}
	lo, hi := snap.Structure.Bounds()
	pad := 0.0
	for _, p := range snap.Primitives {
		if sp, ok := p.(scene.Sphere); ok && sp.Radius > pad {
			pad = sp.Radius
		}
	}
	lo.X, lo.Y, lo.Z = lo.X-pad, lo.Y-pad, lo.Z-pad
	hi.X, hi.Y, hi.Z = hi.X+pad, hi.Y+pad, hi.Z+pad
	r.Camera = pick.Frame(lo, hi, aspect)
}
