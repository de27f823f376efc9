package main

import (
	"context"
	"errors"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/bond"
	"github.com/chazu/molview/pkg/config"
	"github.com/chazu/molview/pkg/engine"
	"github.com/chazu/molview/pkg/kernel/sdfx"
	"github.com/chazu/molview/pkg/metrics"
	"github.com/chazu/molview/pkg/pick"
	"github.com/chazu/molview/pkg/scene"
	"github.com/chazu/molview/pkg/structure"
	"github.com/chazu/molview/pkg/viewer"
)

// Events emitted to the frontend.
const (
	EventSelectionChanged = "selection:changed"
	EventSceneChanged     = "scene:changed"
	EventLoadFailed       = "load:failed"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx context.Context

	// scripts serializes engine runs; zygomys sandboxes share global state.
	scripts sync.Mutex
	engine  *engine.Engine
	session *viewer.Session
	render  *viewer.RenderContext
	metrics *metrics.Metrics
	log     *zap.Logger

	camMu  sync.Mutex
	camera pick.Camera

	// watchMu guards the active file watch. Loading any other source stops it.
	watchMu   sync.Mutex
	stopWatch func()

	// notify replaces the Wails event bus when set.
	notify func(event string, data ...interface{})
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Tag      string    `json:"tag"`
	Color    string    `json:"color"`
}

// ErrorData is a JSON-serializable load or eval error for the frontend.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// SceneResult is returned by the load bindings. On failure only Errors is
// populated and the previous scene stays current.
type SceneResult struct {
	Version    uint64         `json:"version"`
	Comment    string         `json:"comment"`
	Atoms      int            `json:"atoms"`
	Bonds      []bond.Bond    `json:"bonds"`
	Primitives []scene.Record `json:"primitives"`
	Camera     pick.Camera    `json:"camera"`
	Errors     []ErrorData    `json:"errors"`
	Warnings   []ErrorData    `json:"warnings"`
}

// PickData reports a pick and the selection after it.
type PickData struct {
	Hit       bool     `json:"hit"`
	Tag       string   `json:"tag"`
	Distance  float64  `json:"distance"`
	Selected  bool     `json:"selected"`
	Selection []string `json:"selection"`
}

// NewApp creates an App with default configuration.
func NewApp() *App {
	a, err := NewAppWithConfig(config.Default(), zap.NewNop())
	if err != nil {
		// The default configuration never fails to translate.
		panic(err)
	}
	return a
}

// NewAppWithConfig wires the session, engine and render context from cfg.
func NewAppWithConfig(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		metrics: metrics.New(),
		log:     log,
		camera:  pick.DefaultCamera(),
	}
	opts, err := viewer.OptionsFromConfig(cfg, log.Named("session"))
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		viewer.WithMetrics(a.metrics),
		viewer.OnReload(a.onReload),
	)
	a.session = viewer.NewSession(opts...)
	a.engine = engine.NewEngine(
		engine.WithTable(a.session.Table()),
		engine.WithLogger(log.Named("engine")),
	)
	a.render = viewer.NewRenderContext(sdfx.New(sdfx.WithMeshCells(cfg.Kernel.MeshCells)), log.Named("render"))
	a.render.Palette = a.session.Palette()
	a.render.Table = a.session.Table()
	return a, nil
}

// startup is called by Wails on app startup. The context is saved so
// runtime events can be emitted later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info("molview started", zap.String("render_session", a.render.ID))
}

func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) emit(event string, data ...interface{}) {
	if a.notify != nil {
		a.notify(event, data...)
		return
	}
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, event, data...)
	}
}

// onReload runs after every successful load, including watcher reloads.
func (a *App) onReload(snap viewer.Snapshot) {
	a.camMu.Lock()
	a.render.Camera = a.camera
	a.render.Frame(snap, a.camera.Aspect)
	a.camera = a.render.Camera
	a.camMu.Unlock()
	a.emit(EventSceneChanged, snap.Version)
	a.emit(EventSelectionChanged, []string{})
}

// LoadXYZ parses XYZ text and replaces the scene on success.
func (a *App) LoadXYZ(text string) SceneResult {
	a.unwatch()
	snap, err := a.session.Load(text)
	if err != nil {
		return a.failed(err)
	}
	return a.sceneResult(snap, nil)
}

// LoadScript evaluates a structure script and replaces the scene on success.
func (a *App) LoadScript(source string) SceneResult {
	a.unwatch()
	a.scripts.Lock()
	res, err := a.engine.Run(source)
	a.scripts.Unlock()
	if err != nil {
		a.log.Error("script evaluation failed", zap.Error(err))
		return a.failed(err)
	}
	if len(res.Errors) > 0 {
		out := emptyResult()
		for _, e := range res.Errors {
			out.Errors = append(out.Errors, ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return out
	}

	snap, err := a.session.LoadStructure(res.Structure)
	if err != nil {
		return a.failed(err)
	}
	warnings := make([]ErrorData, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, ErrorData{Message: w.Message})
	}
	return a.sceneResult(snap, warnings)
}

// WatchFile loads path and reloads it on every change until another file is
// watched, text or a script is loaded, or the app exits. Reload failures are
// emitted as load:failed events.
func (a *App) WatchFile(path string) SceneResult {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	a.stopWatchLocked()

	snap, err := a.session.LoadFile(path)
	if err != nil {
		return a.failed(err)
	}
	ctx, cancel := context.WithCancel(a.context())
	errs, err := a.session.Watch(ctx, path)
	if err != nil {
		cancel()
		return a.failed(err)
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for err := range errs {
			a.emit(EventLoadFailed, errorData(err))
		}
	}()
	a.stopWatch = func() {
		cancel()
		<-stopped
	}
	return a.sceneResult(snap, nil)
}

// unwatch stops the active file watch, if any. It returns once the watcher
// has finished any reload it was running.
func (a *App) unwatch() {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	a.stopWatchLocked()
}

func (a *App) stopWatchLocked() {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
}

// Pick resolves a click at normalized device coordinates (x, y) in [-1, 1].
// An invalid camera falls back to the framed camera of the current scene.
func (a *App) Pick(x, y float64, cam pick.Camera) PickData {
	if cam.Validate() != nil {
		cam = a.framedCamera()
	}
	res, ok := a.session.Pick(pick.NDC{X: x, Y: y}, cam)
	out := PickData{Hit: ok, Selection: a.session.SelectionLines()}
	if !ok {
		return out
	}
	out.Tag = res.Tag.String()
	out.Distance = res.Distance
	out.Selected = res.Selected
	if res.Tag.Kind == scene.TagAtom {
		a.emit(EventSelectionChanged, out.Selection)
	}
	return out
}

// Selection returns the host's selection list.
func (a *App) Selection() []string {
	return a.session.SelectionLines()
}

// ClearSelection empties the selection and returns the (empty) list.
func (a *App) ClearSelection() []string {
	a.session.ClearSelection()
	lines := a.session.SelectionLines()
	a.emit(EventSelectionChanged, lines)
	return lines
}

// Meshes tessellates the current scene for backends that draw triangles.
func (a *App) Meshes() []MeshData {
	meshes, err := a.render.Submit(a.context(), a.session.Snapshot().Primitives)
	if err != nil {
		a.log.Error("mesh generation failed", zap.Error(err))
		return []MeshData{}
	}
	out := make([]MeshData, 0, len(meshes))
	for _, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Tag:      m.Tag,
			Color:    m.Color,
		})
	}
	return out
}

func (a *App) framedCamera() pick.Camera {
	a.camMu.Lock()
	defer a.camMu.Unlock()
	return a.camera
}

func emptyResult() SceneResult {
	return SceneResult{
		Bonds:      []bond.Bond{},
		Primitives: []scene.Record{},
		Errors:     []ErrorData{},
		Warnings:   []ErrorData{},
	}
}

func (a *App) sceneResult(snap viewer.Snapshot, warnings []ErrorData) SceneResult {
	out := emptyResult()
	out.Version = snap.Version
	out.Comment = snap.Structure.Comment()
	out.Atoms = snap.Structure.Len()
	out.Bonds = append(out.Bonds, snap.Bonds...)
	out.Primitives = scene.Records(snap.Primitives, a.session.Palette(), a.session.Table())
	out.Camera = a.framedCamera()
	if warnings != nil {
		out.Warnings = warnings
	}
	return out
}

func (a *App) failed(err error) SceneResult {
	a.log.Warn("load failed", zap.Error(err))
	out := emptyResult()
	out.Errors = append(out.Errors, errorData(err))
	return out
}

func errorData(err error) ErrorData {
	var malformed *structure.MalformedStructureError
	if errors.As(err, &malformed) {
		return ErrorData{Line: malformed.Line, Message: err.Error()}
	}
	return ErrorData{Message: err.Error()}
}
