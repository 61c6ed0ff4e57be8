package mirror

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/runstate"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/telemetry"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
	"github.com/jinzhu/copier"
)

// ErrMissingSource is returned by New when a tracked resource is not wired.
var ErrMissingSource = errors.New("mirror: missing source resource")

// Sources points at the simulation-domain resources mirrored every frame.
// All fields are required.
type Sources struct {
	Camera *camera.Camera
	Scene  *scene.Spheres
	Params *tile.Params
	State  *runstate.Machine
	Time   *telemetry.RunTime
}

// Mirror copies the tracked simulation resources into a Snapshot once per frame.
// It is owned by the simulation domain and is not safe for concurrent use.
type Mirror struct {
	src   Sources
	frame uint64
}

// New validates the sources and creates a Mirror.
//
// Parameters:
//   - src: the resources to mirror
//
// Returns:
//   - *Mirror: the mirror
//   - error: ErrMissingSource naming the first nil source
func New(src Sources) (*Mirror, error) {
	switch {
	case src.Camera == nil:
		return nil, fmt.Errorf("%w: camera", ErrMissingSource)
	case src.Scene == nil:
		return nil, fmt.Errorf("%w: scene", ErrMissingSource)
	case src.Params == nil:
		return nil, fmt.Errorf("%w: params", ErrMissingSource)
	case src.State == nil:
		return nil, fmt.Errorf("%w: run state", ErrMissingSource)
	case src.Time == nil:
		return nil, fmt.Errorf("%w: run time", ErrMissingSource)
	}
	return &Mirror{src: src}, nil
}

// Frame returns the number of snapshots taken so far.
func (m *Mirror) Frame() uint64 {
	return m.frame
}

// Extract takes a whole-value deep copy of every tracked resource.
// Later mutation of the sources never changes a returned Snapshot.
//
// Returns:
//   - Snapshot: the frame snapshot, numbered from 1
//   - error: a copy failure
func (m *Mirror) Extract() (Snapshot, error) {
	var snap Snapshot
	if err := deepCopy(&snap.Camera, m.src.Camera); err != nil {
		return Snapshot{}, fmt.Errorf("mirror: camera: %w", err)
	}
	if err := deepCopy(&snap.Scene, m.src.Scene); err != nil {
		return Snapshot{}, fmt.Errorf("mirror: scene: %w", err)
	}
	if err := deepCopy(&snap.Params, m.src.Params); err != nil {
		return Snapshot{}, fmt.Errorf("mirror: params: %w", err)
	}
	if err := deepCopy(&snap.Time, m.src.Time); err != nil {
		return Snapshot{}, fmt.Errorf("mirror: run time: %w", err)
	}
	snap.State = m.src.State.State()

	m.frame++
	snap.Frame = m.frame
	return snap, nil
}

func deepCopy[T any](dst *T, src *T) error {
	return copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true})
}
