package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/mirror"
	"github.com/Carmen-Shannon/oxy-trace/engine/profiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/runstate"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/telemetry"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
	"golang.org/x/sync/errgroup"
)

// ErrStopped is returned by Step once the engine has reached its pass or frame limit.
var ErrStopped = errors.New("engine: stopped")

// commandQueueSize bounds the number of UI commands waiting for the next tick.
const commandQueueSize = 16

// engine implements the Engine interface.
// The simulation state below is owned by whichever goroutine is ticking: the caller of
// Step, or the simulation goroutine started by Run.
type engine struct {
	camera    camera.Camera
	spheres   scene.Spheres
	params    tile.Params
	state     *runstate.Machine
	runTime   telemetry.RunTime
	scheduler tile.Scheduler
	mirror    *mirror.Mirror

	controller camera.CameraController
	animate    bool
	autoRun    bool

	commands chan runstate.Command
	scenes   chan scene.Spheres
	watcher  scene.Watcher

	renderer renderer.Renderer
	window   window.Window

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	tickRate  time.Duration
	maxPasses int
	maxFrames uint64
	passes    atomic.Int64

	status     atomic.Pointer[mirror.Snapshot]
	onSnapshot func(mirror.Snapshot)
	renderMu   sync.Mutex
	lastFrame  renderer.FrameResult
}

// Engine is the simulation domain of the tracer and the driver of its frame loop.
//
// Each tick drains UI commands into the run state machine, applies reset and
// running-state updates, advances the tile cursor, mirrors the state into a Snapshot,
// and then applies the end-of-frame transitions. The Snapshot is handed to the renderer.
type Engine interface {
	// Submit queues a UI command for the next tick. Safe for concurrent use.
	//
	// Parameters:
	//   - cmd: the command
	//
	// Returns:
	//   - bool: false if the queue is full and the command was dropped
	Submit(cmd runstate.Command) bool

	// LoadScene queues a sphere table to replace the current one at the next tick.
	// Only the latest queued table is kept. Safe for concurrent use.
	//
	// Parameters:
	//   - s: the new sphere table
	LoadScene(s scene.Spheres)

	// CameraController returns the controller that pans the camera between ticks.
	CameraController() camera.CameraController

	// Step runs one synchronous frame: a simulation tick with the given frame time,
	// followed by a render frame if a renderer is attached.
	//
	// Parameters:
	//   - dt: frame time in seconds
	//
	// Returns:
	//   - mirror.Snapshot: the frame's snapshot
	//   - error: a fatal render error, or ErrStopped once a limit has been reached
	Step(dt float64) (mirror.Snapshot, error)

	// Run starts the simulation goroutine, the render goroutine and, if configured,
	// the scene watcher, then blocks until ctx is cancelled, the window is closed,
	// a limit is reached, or a goroutine fails.
	// With a window, Run must be called from the thread that created it.
	//
	// Parameters:
	//   - ctx: cancels the run
	//
	// Returns:
	//   - error: the first fatal error, nil on a clean stop
	Run(ctx context.Context) error

	// Status returns the latest mirrored snapshot summary. Safe for concurrent use.
	//
	// Returns:
	//   - mirror.Status: the summary
	//   - bool: false before the first frame
	Status() (mirror.Status, bool)

	// Passes returns the number of completed passes. Safe for concurrent use.
	Passes() int

	// LastFrame returns what the renderer did with the most recent snapshot.
	LastFrame() renderer.FrameResult

	// Renderer returns the attached renderer, or nil.
	Renderer() renderer.Renderer

	// Window returns the attached window, or nil.
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options.
// Defaults: 512x512 image, the default scene, 128 pixel tiles, 1 sample, depth 8, 60 ticks/s.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		camera:     camera.New(512, 512),
		spheres:    scene.DefaultScene(),
		params:     tile.NewParams(128, 1, 8, 0),
		state:      runstate.NewMachine(),
		controller: camera.NewCameraController(),
		commands:   make(chan runstate.Command, commandQueueSize),
		scenes:     make(chan scene.Spheres, 1),
		profiler:   profiler.NewProfiler(),
		tickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	e.scheduler = tile.NewScheduler(int32(e.camera.Width), int32(e.camera.Height))
	e.params.SphereCount = uint32(e.spheres.Count)

	m, err := mirror.New(mirror.Sources{
		Camera: &e.camera,
		Scene:  &e.spheres,
		Params: &e.params,
		State:  e.state,
		Time:   &e.runTime,
	})
	if err != nil {
		panic(fmt.Sprintf("engine: %v", err))
	}
	e.mirror = m

	if e.window != nil {
		e.window.SetKeyDownCallback(e.handleKey)
		if e.renderer != nil {
			e.window.SetResizeCallback(e.renderer.Resize)
		}
	}
	return e
}

func (e *engine) Submit(cmd runstate.Command) bool {
	select {
	case e.commands <- cmd:
		return true
	default:
		common.Logger().Warn("command dropped", "command", cmd.String())
		return false
	}
}

func (e *engine) LoadScene(s scene.Spheres) {
	for {
		select {
		case e.scenes <- s:
			return
		default:
		}
		select {
		case <-e.scenes:
		default:
		}
	}
}

func (e *engine) CameraController() camera.CameraController {
	return e.controller
}

func (e *engine) Step(dt float64) (mirror.Snapshot, error) {
	if e.stopped() {
		return mirror.Snapshot{}, ErrStopped
	}
	snap, err := e.tick(dt)
	if err != nil {
		return snap, err
	}
	return snap, e.render(snap)
}

func (e *engine) Status() (mirror.Status, bool) {
	snap := e.status.Load()
	if snap == nil {
		return mirror.Status{}, false
	}
	return snap.Status(), true
}

func (e *engine) Passes() int {
	return int(e.passes.Load())
}

func (e *engine) LastFrame() renderer.FrameResult {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	return e.lastFrame
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// tick runs the simulation half of one frame and returns its snapshot.
func (e *engine) tick(dt float64) (mirror.Snapshot, error) {
	log := common.Logger()

	e.drainCommands()
	e.drainScenes()

	if e.state.State() == runstate.Reset {
		e.runTime.Reset()
		e.params.Rewind()
		log.Debug("run reset")
	}

	e.controller.Apply(&e.camera)

	passComplete := false
	if e.state.State() == runstate.Running {
		e.runTime.Record(dt)
		if e.animate {
			e.spheres.Animate(e.runTime.Time)
		}
		passComplete = e.scheduler.Advance(&e.params)
	}
	e.params.SphereCount = uint32(e.spheres.Count)

	snap, err := e.mirror.Extract()
	if err != nil {
		return snap, err
	}

	// The last tile of a pass is in the snapshot; reset the cursor for the next pass only now.
	if passComplete {
		e.scheduler.CompletePass(&e.params)
		e.state.Complete()
		passes := e.passes.Add(1)
		log.Info("pass complete", "pass", passes, "seed", snap.Params.Seed, "time", e.runTime.Time)
	}
	e.state.EndFrame()

	e.status.Store(&snap)
	if e.onSnapshot != nil {
		e.onSnapshot(snap)
	}
	return snap, nil
}

func (e *engine) drainCommands() {
	for {
		select {
		case cmd := <-e.commands:
			from := e.state.State()
			if e.state.Apply(cmd) {
				common.Logger().Info("run state changed", "command", cmd.String(), "from", from.String(), "to", e.state.State().String())
			}
		default:
			e.autoAdvance()
			return
		}
	}
}

// autoAdvance starts a waiting run and restarts a finished one when auto-run is enabled.
// It waits for the update pipeline so every tile of the pass reaches the tracer.
func (e *engine) autoAdvance() {
	if !e.autoRun {
		return
	}
	if e.renderer != nil && e.renderer.Readiness() != renderer.ReadinessUpdate {
		return
	}
	switch e.state.State() {
	case runstate.Waiting:
		e.state.Apply(runstate.CommandStart)
	case runstate.Done:
		e.state.Apply(runstate.CommandReset)
	}
}

func (e *engine) drainScenes() {
	var updates <-chan scene.Spheres
	if e.watcher != nil {
		updates = e.watcher.Updates()
	}
	for {
		select {
		case s := <-e.scenes:
			e.spheres = s
		case s := <-updates:
			e.spheres = s
		default:
			return
		}
		common.Logger().Info("scene replaced", "spheres", e.spheres.Count)
	}
}

// stopped reports whether a pass or frame limit has been reached.
func (e *engine) stopped() bool {
	if e.maxPasses > 0 && e.Passes() >= e.maxPasses {
		return true
	}
	return e.maxFrames > 0 && e.mirror.Frame() >= e.maxFrames
}

// render hands one snapshot to the renderer. Without a renderer it is a no-op.
func (e *engine) render(snap mirror.Snapshot) error {
	if e.renderer == nil {
		return nil
	}
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	res, err := e.renderer.Frame(snap)
	if err != nil {
		common.Logger().Error("render frame failed", "frame", snap.Frame, "err", err)
		return fmt.Errorf("engine: frame %d: %w", snap.Frame, err)
	}
	e.lastFrame = res

	if e.profilingEnabled.Load() && e.profiler != nil {
		e.profiler.Tick(snap.Time)
	}
	return nil
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	snaps := make(chan mirror.Snapshot, 1)

	if e.watcher != nil {
		g.Go(func() error {
			return e.watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		defer close(snaps)
		return e.handleSimulation(gctx, snaps)
	})
	g.Go(func() error {
		// A closed snapshot channel means a limit was reached; stop everything else too.
		defer cancel()
		return e.handleRender(gctx, snaps)
	})

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			if gctx.Err() != nil {
				_ = e.window.Close()
				return
			}
			if s, ok := e.Status(); ok {
				e.window.SetTitle(fmt.Sprintf("oxy-trace | %s | %s %.0f%% | %.1f fps", s.Action, s.Text, s.Progress*100, s.AvgFPS))
			}
		})
		e.window.ProcessMessages()
		cancel()
		_ = e.window.Close()
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleSimulation runs the fixed-rate simulation tick loop in its own goroutine and
// hands every snapshot to the render goroutine.
func (e *engine) handleSimulation(ctx context.Context, snaps chan<- mirror.Snapshot) error {
	ticker := time.NewTicker(e.tickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if e.stopped() {
				common.Logger().Info("engine limit reached", "passes", e.Passes(), "frames", e.mirror.Frame())
				return nil
			}
			now := time.Now()
			dt := now.Sub(lastTick).Seconds()
			lastTick = now

			snap, err := e.tick(dt)
			if err != nil {
				return err
			}
			select {
			case snaps <- snap:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// handleRender consumes snapshots until the channel closes or ctx is cancelled.
// Recovers from panics inside the backend and reports them as errors.
func (e *engine) handleRender(ctx context.Context, snaps <-chan mirror.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: render goroutine panic: %v", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if err := e.render(snap); err != nil {
				return err
			}
		}
	}
}

// handleKey maps window keys to run commands and camera pans.
func (e *engine) handleKey(keyCode uint32) {
	switch keyCode {
	case common.KeySpace:
		e.Submit(runstate.CommandToggle)
	case common.KeyEnter:
		e.Submit(runstate.CommandStart)
	case common.KeyP:
		e.Submit(runstate.CommandPause)
	case common.KeyR:
		e.Submit(runstate.CommandReset)
	case common.KeyA, common.KeyLeft:
		e.controller.PanRight(-1)
	case common.KeyD, common.KeyRight:
		e.controller.PanRight(1)
	case common.KeyW, common.KeyUp:
		e.controller.PanUp(1)
	case common.KeyS, common.KeyDown:
		e.controller.PanUp(-1)
	case common.KeyQ:
		e.controller.PanForward(1)
	case common.KeyE:
		e.controller.PanForward(-1)
	}
}
