package renderer

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
)

// Readiness is the pipeline readiness state of the render node.
type Readiness int

const (
	// ReadinessLoading waits for the init pipeline to compile.
	ReadinessLoading Readiness = iota
	// ReadinessInit has a usable init pipeline and waits for the update pipeline.
	ReadinessInit
	// ReadinessUpdate has both pipelines; normal rendering.
	ReadinessUpdate
	// ReadinessFailed is terminal: a pipeline failed to compile.
	ReadinessFailed
)

func (r Readiness) String() string {
	switch r {
	case ReadinessLoading:
		return "loading"
	case ReadinessInit:
		return "init"
	case ReadinessUpdate:
		return "update"
	case ReadinessFailed:
		return "failed"
	default:
		return fmt.Sprintf("Readiness(%d)", int(r))
	}
}

// ErrPipelineFailed wraps the compile error of a pipeline the tracer depends on.
var ErrPipelineFailed = errors.New("renderer: pipeline failed")

// PipelineStates reports compile progress by pipeline key. pipeline.Cache satisfies it.
type PipelineStates interface {
	State(key string) (pipeline.CompileState, error)
}

// ReadinessMachine advances Loading -> Init -> Update as the init and update pipelines
// finish compiling. It moves at most one step per Poll so the Init state lasts at least
// one frame, and never regresses. Poll is called from one goroutine; State may be read
// from any.
type ReadinessMachine struct {
	initKey   string
	updateKey string
	state     atomic.Int32
	err       error
}

// NewReadinessMachine creates a machine in ReadinessLoading.
//
// Parameters:
//   - initKey: the key of the image-clearing pipeline
//   - updateKey: the key of the tile-tracing pipeline
//
// Returns:
//   - *ReadinessMachine: the machine
func NewReadinessMachine(initKey, updateKey string) *ReadinessMachine {
	return &ReadinessMachine{initKey: initKey, updateKey: updateKey}
}

// State returns the current readiness without polling.
func (m *ReadinessMachine) State() Readiness {
	return Readiness(m.state.Load())
}

// Poll checks the pipelines once and advances if the next one is ready.
//
// Parameters:
//   - states: compile state lookup
//
// Returns:
//   - Readiness: the state after polling
//   - error: ErrPipelineFailed once either pipeline has failed, on every later poll too
func (m *ReadinessMachine) Poll(states PipelineStates) (Readiness, error) {
	current := m.State()
	switch current {
	case ReadinessUpdate:
		return current, nil
	case ReadinessFailed:
		return current, m.err
	}

	for _, key := range []string{m.initKey, m.updateKey} {
		if _, err := states.State(key); err != nil {
			m.err = fmt.Errorf("%w: %s: %w", ErrPipelineFailed, key, err)
			m.state.Store(int32(ReadinessFailed))
			return ReadinessFailed, m.err
		}
	}

	next := m.initKey
	if current == ReadinessInit {
		next = m.updateKey
	}
	if state, _ := states.State(next); state == pipeline.CompileOk {
		current++
		m.state.Store(int32(current))
	}
	return current, nil
}
