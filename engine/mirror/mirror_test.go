package mirror

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/runstate"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/telemetry"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cam    camera.Camera
	sph    scene.Spheres
	params tile.Params
	state  *runstate.Machine
	rt     telemetry.RunTime
}

func newFixture() *fixture {
	return &fixture{
		cam:    camera.New(512, 512),
		sph:    scene.DefaultScene(),
		params: tile.NewParams(128, 4, 8, 1),
		state:  runstate.NewMachine(),
	}
}

func (f *fixture) sources() Sources {
	return Sources{Camera: &f.cam, Scene: &f.sph, Params: &f.params, State: f.state, Time: &f.rt}
}

func TestNewMissingSource(t *testing.T) {
	f := newFixture()
	for name, mutate := range map[string]func(*Sources){
		"camera": func(s *Sources) { s.Camera = nil },
		"scene":  func(s *Sources) { s.Scene = nil },
		"params": func(s *Sources) { s.Params = nil },
		"state":  func(s *Sources) { s.State = nil },
		"time":   func(s *Sources) { s.Time = nil },
	} {
		t.Run(name, func(t *testing.T) {
			src := f.sources()
			mutate(&src)
			m, err := New(src)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, ErrMissingSource)
		})
	}
}

func TestExtractCopiesValues(t *testing.T) {
	f := newFixture()
	f.state.Apply(runstate.CommandStart)
	f.rt.Record(0.5)

	m, err := New(f.sources())
	require.NoError(t, err)

	snap, err := m.Extract()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Frame)
	assert.Equal(t, f.cam, snap.Camera)
	assert.Equal(t, f.sph, snap.Scene)
	assert.Equal(t, f.params, snap.Params)
	assert.Equal(t, runstate.Running, snap.State)
	assert.Equal(t, f.rt, snap.Time)
}

func TestExtractIsolation(t *testing.T) {
	f := newFixture()
	m, err := New(f.sources())
	require.NoError(t, err)

	snap, err := m.Extract()
	require.NoError(t, err)
	want := snap

	// Mutate every source after the snapshot was taken.
	f.cam.SetCenter([3]float32{4, 5, 6})
	f.sph.Items[0].Center[0] = 42
	require.NoError(t, f.sph.Add(scene.Sphere{Radius: 9}))
	f.params.Seed = 99
	f.params.Count = 7
	f.state.Apply(runstate.CommandStart)
	f.rt.Record(0.1)

	assert.Equal(t, want, snap)
	assert.Equal(t, float32(-0.5), snap.Scene.Items[0].Center[0])
	assert.Equal(t, runstate.Waiting, snap.State)

	next, err := m.Extract()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Frame)
	assert.Equal(t, uint32(99), next.Params.Seed)
	assert.Equal(t, 5, next.Scene.Count)
	assert.Equal(t, uint64(2), m.Frame())
}

func TestSnapshotStatus(t *testing.T) {
	f := newFixture()
	f.state.Apply(runstate.CommandStart)
	sched := tile.NewScheduler(512, 512)
	for range 4 {
		sched.Advance(&f.params)
	}
	m, err := New(f.sources())
	require.NoError(t, err)
	snap, err := m.Extract()
	require.NoError(t, err)

	st := snap.Status()
	assert.Equal(t, "Running", st.State)
	assert.Equal(t, "Rendering", st.Text)
	assert.Equal(t, "Pause", st.Action)
	assert.Equal(t, int32(4), st.Tile)
	assert.InDelta(t, 0.25, st.Progress, 1e-9)

	snap.State = runstate.Done
	assert.Equal(t, 1.0, snap.Progress())

	snap.Params = tile.Params{}
	snap.State = runstate.Waiting
	assert.Equal(t, 0.0, snap.Progress())
}
