// Package main is the entry point for the meshview mesh viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/engine/camera"
	"github.com/Faultbox/meshforge/internal/engine/debug"
	"github.com/Faultbox/meshforge/internal/engine/input"
	"github.com/Faultbox/meshforge/internal/engine/meshgl"
	"github.com/Faultbox/meshforge/internal/engine/picking"
	"github.com/Faultbox/meshforge/internal/engine/renderer"
	"github.com/Faultbox/meshforge/internal/engine/window"
	"github.com/Faultbox/meshforge/internal/importer"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/math"
)

const (
	targetFPS = 60
	lightStep = 15 // degrees per L press
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Console: true}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== meshview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := newViewer(cfg)
	if err != nil {
		logger.Error("failed to start viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if flag.NArg() > 0 {
		if err := v.Load(flag.Arg(0)); err != nil {
			logger.Error("failed to load mesh", zap.Error(err))
			os.Exit(1)
		}
	} else {
		v.openFileDialog()
	}

	v.Run()
	logger.Info("viewer closed normally")
}

type viewer struct {
	cfg      *config.Config
	win      *window.Window
	input    *input.Input
	renderer *renderer.Renderer
	camera   *camera.OrbitCamera
	importer *importer.Importer
	shots    *debug.ScreenshotCapture
	meshes   []*meshgl.Mesh
	targets  []picking.Target
	title    string

	// Debug overlays, rebuilt on load
	boundsLines  *meshgl.Lines
	frameLines   *meshgl.Lines
	selectLines  *meshgl.Lines
	showBounds   bool
	showFrames   bool
	shotPending  bool
	pendingPaths chan string
}

func newViewer(cfg *config.Config) (*viewer, error) {
	win, err := window.New(window.Config{
		Title:      "meshview",
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, err
	}

	shots, err := debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "meshview", cfg.Viewer.ScreenshotFormat)
	if err != nil {
		win.Close()
		return nil, err
	}

	w, h := win.DrawableSize()
	r, err := renderer.New(renderer.Config{
		Width:          w,
		Height:         h,
		Wireframe:      cfg.Viewer.Wireframe,
		LightAzimuth:   cfg.Viewer.LightAzimuth,
		LightElevation: cfg.Viewer.LightElevation,
	})
	if err != nil {
		win.Close()
		return nil, err
	}

	return &viewer{
		cfg:          cfg,
		win:          win,
		input:        input.New(),
		renderer:     r,
		camera:       camera.NewOrbitCamera(targetFPS),
		importer:     importer.New(cfg.Import),
		shots:        shots,
		pendingPaths: make(chan string, 1),
	}, nil
}

// Load imports path and replaces the meshes on the GPU.
func (v *viewer) Load(path string) error {
	scene, err := v.importer.Import(context.Background(), path)
	if err != nil {
		return err
	}

	var meshes []*meshgl.Mesh
	var targets []picking.Target
	var bounds, frames []float32
	bbox := scene.Bounds()
	frameLen := bbox.Half().Length() * 0.02
	for _, m := range scene.Meshes {
		gm, err := meshgl.Upload(m.Name, m.Mesh)
		if err != nil {
			logger.Warn("mesh not uploaded", zap.String("mesh", m.Name), zap.Error(err))
			continue
		}
		meshes = append(meshes, gm)
		targets = append(targets, picking.Target{Bounds: gm.Bounds, Mesh: m.Mesh})
		bounds = append(bounds, debug.BoxLines(gm.Bounds, debug.ColorBounds)...)
		frames = append(frames, debug.TangentFrameLines(m.Mesh, frameLen)...)
	}

	v.clearMeshes()
	v.meshes = meshes
	v.targets = targets
	v.boundsLines = meshgl.UploadLines(bounds)
	v.frameLines = meshgl.UploadLines(frames)
	v.camera.FitToBounds(bbox)

	t := scene.Totals()
	v.title = fmt.Sprintf("meshview - %s (%d meshes, %d vertices, %d triangles)",
		filepath.Base(path), len(meshes), t.UniqueVertices, t.Triangles)
	v.updateTitle()
	return nil
}

// Run processes input and draws until the window closes.
func (v *viewer) Run() {
	var lastX, lastY int
	for {
		if v.input.Update() {
			return
		}
		select {
		case path := <-v.pendingPaths:
			if err := v.Load(path); err != nil {
				logger.Error("failed to load file", zap.String("file", path), zap.Error(err))
			}
		default:
		}
		for _, e := range v.input.Events() {
			switch e.Type {
			case input.EventWindowResize:
				w, h := v.win.DrawableSize()
				v.renderer.Resize(w, h)
			case input.EventMouseDown:
				lastX, lastY = e.MouseX, e.MouseY
				if e.Button == sdl.BUTTON_RIGHT {
					v.pick(e.MouseX, e.MouseY)
				}
			case input.EventMouseMove:
				if v.input.IsButtonDown(sdl.BUTTON_LEFT) {
					v.camera.HandleDrag(float32(e.MouseX-lastX), float32(e.MouseY-lastY))
				}
				lastX, lastY = e.MouseX, e.MouseY
			case input.EventMouseWheel:
				v.camera.HandleZoom(e.Wheel)
			case input.EventDropFile:
				if err := v.Load(e.Path); err != nil {
					logger.Error("failed to load dropped file", zap.String("file", e.Path), zap.Error(err))
				}
			case input.EventKeyDown:
				if v.handleKey(e.Key) {
					return
				}
			}
		}

		v.camera.Update()
		v.draw()
		if v.shotPending {
			v.shotPending = false
			v.screenshot()
		}
		v.win.SwapBuffers()

		if !v.cfg.Viewer.VSync {
			sdl.Delay(1000 / targetFPS)
		}
	}
}

// handleKey applies viewer shortcuts and reports whether to quit.
func (v *viewer) handleKey(key sdl.Scancode) bool {
	switch key {
	case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
		return true
	case sdl.SCANCODE_W:
		v.renderer.SetWireframe(!v.renderer.Wireframe())
	case sdl.SCANCODE_M:
		v.renderer.SetShadeMode(v.renderer.ShadeMode().Next())
		v.updateTitle()
	case sdl.SCANCODE_B:
		v.showBounds = !v.showBounds
	case sdl.SCANCODE_T:
		v.showFrames = !v.showFrames
	case sdl.SCANCODE_L:
		az, el := v.renderer.Light()
		v.renderer.SetLight(float32(int(az+lightStep)%360), el)
	case sdl.SCANCODE_O:
		v.openFileDialog()
	case sdl.SCANCODE_F12:
		// Captured after the next draw, before the swap
		v.shotPending = true
	case sdl.SCANCODE_F:
		b := math.EmptyBox3()
		for _, m := range v.meshes {
			b.ExpandByBox(m.Bounds)
		}
		v.camera.FitToBounds(b)
	}
	return false
}

func (v *viewer) draw() {
	viewProj := v.camera.ProjectionMatrix(v.renderer.Aspect()).Mul(v.camera.ViewMatrix())
	v.renderer.Begin(viewProj)
	model := math.Identity()
	for _, m := range v.meshes {
		v.renderer.DrawMesh(m, model)
	}
	var overlays []*meshgl.Lines
	if v.showBounds {
		overlays = append(overlays, v.boundsLines)
	}
	if v.showFrames {
		overlays = append(overlays, v.frameLines)
	}
	if v.selectLines != nil {
		overlays = append(overlays, v.selectLines)
	}
	if len(overlays) > 0 {
		v.renderer.DrawLines(viewProj, overlays...)
	}
	v.renderer.End()
}

// pick selects the triangle under the cursor and outlines its mesh.
func (v *viewer) pick(x, y int) {
	w, h := v.win.GetSize()
	viewProj := v.camera.ProjectionMatrix(v.renderer.Aspect()).Mul(v.camera.ViewMatrix())
	ray, ok := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), viewProj)
	if !ok {
		return
	}

	v.clearSelection()
	hit, ok := picking.Pick(ray, v.targets)
	if !ok {
		return
	}
	m := v.meshes[hit.Target]
	point := hit.Point.Array()
	v.selectLines = meshgl.UploadLines(debug.BoxLines(m.Bounds, debug.ColorSelected))
	logger.Info("picked",
		zap.String("mesh", m.Name),
		zap.Int("triangle", hit.Triangle),
		zap.Float32("distance", hit.Distance),
		zap.Float32s("point", point[:]),
	)
}

func (v *viewer) clearSelection() {
	if v.selectLines != nil {
		v.selectLines.Delete()
		v.selectLines = nil
	}
}

func (v *viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("file", name))
}

// openFileDialog asks for a mesh file without blocking the render loop.
// SDL and GL calls must stay on the main thread, so the chosen path is
// handed back through pendingPaths and loaded by Run.
func (v *viewer) openFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Meshes", "dae", "obj", "gltf", "glb").
			Filter("All Files", "*").
			Title("Open Mesh").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case v.pendingPaths <- filename:
		default:
		}
	}()
}

func (v *viewer) updateTitle() {
	v.win.SetTitle(fmt.Sprintf("%s [%s]", v.title, v.renderer.ShadeMode()))
}

func (v *viewer) clearMeshes() {
	for _, m := range v.meshes {
		m.Delete()
	}
	v.meshes = nil
	v.targets = nil
	v.clearSelection()
	if v.boundsLines != nil {
		v.boundsLines.Delete()
	}
	if v.frameLines != nil {
		v.frameLines.Delete()
	}
}

// Close releases GPU resources and the window.
func (v *viewer) Close() {
	v.clearMeshes()
	v.renderer.Close()
	v.win.Close()
}
