package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/mirror"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the simulation tick rate of Run in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.tickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow attaches a window. Its keys drive run commands and camera panning,
// and Run processes its messages on the calling thread.
//
// Parameters:
//   - w: a spawned Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer attaches the render node that consumes every snapshot.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithCamera sets the camera. Its Width and Height define the image the tile cursor sweeps.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithCameraController replaces the default camera controller.
//
// Parameters:
//   - cc: the controller
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCameraController(cc camera.CameraController) EngineBuilderOption {
	return func(e *engine) {
		e.controller = cc
	}
}

// WithScene sets the initial sphere table.
//
// Parameters:
//   - s: the sphere table
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Spheres) EngineBuilderOption {
	return func(e *engine) {
		e.spheres = s
	}
}

// WithSceneWatcher reloads the sphere table whenever the watched file changes.
// Run starts the watcher.
//
// Parameters:
//   - w: the scene watcher
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSceneWatcher(w scene.Watcher) EngineBuilderOption {
	return func(e *engine) {
		e.watcher = w
	}
}

// WithParams sets the initial progressive-render control block.
//
// Parameters:
//   - p: the params, normally from tile.NewParams
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithParams(p tile.Params) EngineBuilderOption {
	return func(e *engine) {
		e.params = p
	}
}

// WithAnimation moves the first spheres along closed paths while the run is active.
//
// Parameters:
//   - enabled: true to animate
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAnimation(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.animate = enabled
	}
}

// WithAutoRun starts rendering without a Start command and restarts after every completed pass.
// A Pause command is overridden on the next tick.
//
// Parameters:
//   - enabled: true to auto-run
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAutoRun(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.autoRun = enabled
	}
}

// WithMaxPasses stops the engine after n completed passes. 0 means no limit.
//
// Parameters:
//   - n: the pass limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxPasses(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxPasses = max(n, 0)
	}
}

// WithMaxFrames stops the engine after n frames. 0 means no limit.
//
// Parameters:
//   - n: the frame limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithSnapshotCallback registers a function called with every snapshot on the ticking goroutine.
//
// Parameters:
//   - callback: the function to call
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSnapshotCallback(callback func(mirror.Snapshot)) EngineBuilderOption {
	return func(e *engine) {
		e.onSnapshot = callback
	}
}
