package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/mirror"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/runstate"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	mu         sync.Mutex
	frames     []mirror.Snapshot
	dispatches []renderer.Dispatch
	failAt     uint64
	failErr    error
	// readyAfter is the number of frames polled before the update pipeline is ready.
	readyAfter int
}

var _ renderer.Renderer = &fakeRenderer{}

func (f *fakeRenderer) Frame(snap mirror.Snapshot) (renderer.FrameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt != 0 && snap.Frame == f.failAt {
		return renderer.FrameResult{Frame: snap.Frame}, f.failErr
	}
	f.frames = append(f.frames, snap)
	readiness := f.readiness()
	dispatch := renderer.SizeDispatch(readiness, snap.State, renderer.DispatchConfig{
		Width: 512, Height: 512, TileSize: 128, InitUnit: 8, UpdateUnit: 8,
	})
	f.dispatches = append(f.dispatches, dispatch)
	return renderer.FrameResult{Frame: snap.Frame, Readiness: readiness, Dispatch: dispatch}, nil
}

func (f *fakeRenderer) readiness() renderer.Readiness {
	switch {
	case len(f.frames) >= f.readyAfter:
		return renderer.ReadinessUpdate
	case len(f.frames) == f.readyAfter-1:
		return renderer.ReadinessInit
	default:
		return renderer.ReadinessLoading
	}
}

func (f *fakeRenderer) Readiness() renderer.Readiness {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readiness()
}

func (f *fakeRenderer) Pipelines() pipeline.Cache     { return pipeline.NewCache() }
func (f *fakeRenderer) Buffers() renderer.BufferCache { return nil }
func (f *fakeRenderer) Resize(width, height int)      {}
func (f *fakeRenderer) Release()                      {}

func (f *fakeRenderer) snapshots() []mirror.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mirror.Snapshot(nil), f.frames...)
}

func (f *fakeRenderer) recorded() []renderer.Dispatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]renderer.Dispatch(nil), f.dispatches...)
}

func step(t *testing.T, e Engine) mirror.Snapshot {
	t.Helper()
	snap, err := e.Step(0.016)
	require.NoError(t, err)
	return snap
}

func TestFullPass(t *testing.T) {
	e := NewEngine()

	snap := step(t, e)
	assert.Equal(t, runstate.Waiting, snap.State)
	assert.Equal(t, int32(-128), snap.Params.X)
	assert.True(t, snap.Time.IsZero(), "time only accumulates while running")

	require.True(t, e.Submit(runstate.CommandStart))
	for i := 1; i <= 16; i++ {
		snap = step(t, e)
		assert.Equal(t, runstate.Running, snap.State)
		assert.Equal(t, int32(i), snap.Params.Count)
		assert.Equal(t, int32((i-1)%4*128), snap.Params.X)
		assert.Equal(t, int32((i-1)/4*128), snap.Params.Y)
		assert.Equal(t, uint32(0), snap.Params.Seed)
	}
	assert.Equal(t, uint64(16), snap.Time.Frames)
	assert.Equal(t, 1, e.Passes())

	snap = step(t, e)
	assert.Equal(t, runstate.Done, snap.State)
	assert.Equal(t, tile.Params{Count: 0, Size: 128, X: -128, Y: 0, Seed: 1, Samples: 1, Depth: 8, SphereCount: 4}, snap.Params)
	assert.Equal(t, uint64(16), snap.Time.Frames, "done frames are not recorded")

	status, ok := e.Status()
	require.True(t, ok)
	assert.Equal(t, "Done!", status.Text)
	assert.Equal(t, 1.0, status.Progress)
}

func TestResetFrame(t *testing.T) {
	e := NewEngine()
	require.True(t, e.Submit(runstate.CommandStart))
	for range 17 {
		step(t, e)
	}

	// Reset is only valid from Done and lasts exactly one frame.
	require.True(t, e.Submit(runstate.CommandReset))
	snap := step(t, e)
	assert.Equal(t, runstate.Reset, snap.State)
	assert.True(t, snap.Time.IsZero())
	assert.Equal(t, int32(0), snap.Params.Count)
	assert.Equal(t, int32(-128), snap.Params.X)
	assert.Equal(t, uint32(1), snap.Params.Seed, "reset keeps the seed")

	snap = step(t, e)
	assert.Equal(t, runstate.Waiting, snap.State)
}

func TestPauseResume(t *testing.T) {
	e := NewEngine()
	e.Submit(runstate.CommandToggle)
	step(t, e)
	step(t, e)

	e.Submit(runstate.CommandToggle)
	snap := step(t, e)
	assert.Equal(t, runstate.Waiting, snap.State)
	assert.Equal(t, int32(2), snap.Params.Count, "paused frames do not advance")

	e.Submit(runstate.CommandToggle)
	snap = step(t, e)
	assert.Equal(t, int32(3), snap.Params.Count)
}

func TestCommandQueue(t *testing.T) {
	e := NewEngine()
	for range commandQueueSize {
		require.True(t, e.Submit(runstate.CommandStart))
	}
	assert.False(t, e.Submit(runstate.CommandStart))

	snap := step(t, e)
	assert.Equal(t, runstate.Running, snap.State)
	assert.True(t, e.Submit(runstate.CommandPause), "the queue drains every tick")
}

func TestCommandsInvalidForStateAreIgnored(t *testing.T) {
	e := NewEngine()
	e.Submit(runstate.CommandReset)
	e.Submit(runstate.CommandPause)
	snap := step(t, e)
	assert.Equal(t, runstate.Waiting, snap.State)
}

func TestSnapshotIsolation(t *testing.T) {
	e := NewEngine()
	e.Submit(runstate.CommandStart)
	first := step(t, e)
	step(t, e)
	assert.Equal(t, int32(1), first.Params.Count)
	assert.Equal(t, uint64(1), first.Frame)
}

func TestLoadScene(t *testing.T) {
	e := NewEngine()
	var s scene.Spheres
	require.NoError(t, s.Add(scene.Sphere{Center: [3]float32{0, 0, -2}, Radius: 1, Alpha: 1}))

	e.LoadScene(scene.DefaultScene())
	e.LoadScene(s)
	snap := step(t, e)
	assert.Equal(t, 1, snap.Scene.Count)
	assert.Equal(t, uint32(1), snap.Params.SphereCount)
}

func TestCameraPan(t *testing.T) {
	e := NewEngine()
	e.CameraController().PanRight(1)
	e.CameraController().PanUp(-2)
	snap := step(t, e)
	assert.InDelta(t, 0.05, snap.Camera.Center[0], 1e-6)
	assert.InDelta(t, -0.1, snap.Camera.Center[1], 1e-6)
}

func TestAnimation(t *testing.T) {
	e := NewEngine(WithAnimation(true))
	e.Submit(runstate.CommandStart)
	snap, err := e.Step(0.5)
	require.NoError(t, err)
	assert.InDelta(t, math.Sin(0.5), snap.Scene.Items[0].Center[0], 1e-6)
	assert.InDelta(t, math.Cos(0.5), snap.Scene.Items[1].Center[0], 1e-6)
}

func TestAutoRunAndLimits(t *testing.T) {
	r := &fakeRenderer{}
	e := NewEngine(WithRenderer(r), WithAutoRun(true), WithMaxPasses(2))

	var err error
	frames := 0
	for err == nil {
		_, err = e.Step(0.016)
		frames++
		require.Less(t, frames, 100)
	}
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 2, e.Passes())

	// Pass 1 is 16 running frames. Auto-run resets the finished run at the next tick,
	// and the Reset frame is followed by a new pass.
	snaps := r.snapshots()
	require.Len(t, snaps, 33)
	assert.Equal(t, runstate.Running, snaps[0].State)
	assert.Equal(t, runstate.Running, snaps[15].State)
	assert.Equal(t, runstate.Reset, snaps[16].State)
	assert.Equal(t, runstate.Running, snaps[17].State)
	assert.Equal(t, int32(1), snaps[17].Params.Count)
	assert.Equal(t, uint32(1), snaps[17].Params.Seed)
}

func TestAutoRunWaitsForUpdatePipeline(t *testing.T) {
	r := &fakeRenderer{readyAfter: 3}
	e := NewEngine(WithRenderer(r), WithAutoRun(true), WithMaxPasses(1))

	var err error
	for frames := 0; err == nil; frames++ {
		require.Less(t, frames, 100)
		_, err = e.Step(0.016)
	}
	require.ErrorIs(t, err, ErrStopped)

	snaps := r.snapshots()
	dispatches := r.recorded()
	require.Len(t, snaps, 19)
	for i := range 3 {
		assert.Equal(t, runstate.Waiting, snaps[i].State, "frame %d runs before the update pipeline", i+1)
	}
	assert.Equal(t, renderer.InitPipelineKey, dispatches[1].Pipeline)

	tiles := map[[2]int32]bool{}
	for i, s := range snaps {
		if s.State != runstate.Running {
			continue
		}
		assert.Equal(t, renderer.UpdatePipelineKey, dispatches[i].Pipeline, "frame %d", s.Frame)
		tiles[[2]int32{s.Params.X, s.Params.Y}] = true
	}
	assert.Len(t, tiles, 16, "every tile of the pass is traced")
	assert.Equal(t, 1, e.Passes())
}

func TestStepRendersSnapshot(t *testing.T) {
	r := &fakeRenderer{}
	e := NewEngine(WithRenderer(r))
	e.Submit(runstate.CommandStart)
	snap := step(t, e)

	got := r.snapshots()
	require.Len(t, got, 1)
	assert.Equal(t, snap, got[0])
	assert.Equal(t, renderer.UpdatePipelineKey, e.LastFrame().Dispatch.Pipeline)
}

func TestRunStopsAtPassLimit(t *testing.T) {
	r := &fakeRenderer{}
	e := NewEngine(WithRenderer(r), WithAutoRun(true), WithMaxPasses(1), WithTickRate(1000))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 1, e.Passes())

	snaps := r.snapshots()
	require.Len(t, snaps, 16)
	for i, s := range snaps {
		assert.Equal(t, uint64(i+1), s.Frame, "every snapshot is rendered in order")
	}
}

func TestRunReturnsRenderError(t *testing.T) {
	boom := errors.New("pipeline failed")
	r := &fakeRenderer{failAt: 3, failErr: boom}
	e := NewEngine(WithRenderer(r), WithAutoRun(true), WithTickRate(1000))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := e.Run(ctx)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, ctx.Err(), "the error stops the run, not the timeout")
}

func TestProfilerToggleDuringRun(t *testing.T) {
	r := &fakeRenderer{}
	e := NewEngine(WithRenderer(r), WithAutoRun(true), WithMaxPasses(3), WithTickRate(1000))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	for i := 0; ; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, 3, e.Passes())
			return
		default:
		}
		if i%2 == 0 {
			e.EnableProfiler()
		} else {
			e.DisableProfiler()
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunCancel(t *testing.T) {
	e := NewEngine(WithTickRate(1000))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	assert.NoError(t, e.Run(ctx))
}
