package renderer

import "github.com/Carmen-Shannon/oxy-trace/engine/runstate"

// Pipeline keys of the two tracer kernels and the blit.
const (
	InitPipelineKey   = "tracer.init"
	UpdatePipelineKey = "tracer.update"
	BlitPipelineKey   = "blit"
)

// DispatchConfig holds the fixed sizes the dispatch sizer works from.
type DispatchConfig struct {
	// Width and Height are the output image size in pixels.
	Width, Height uint32
	// TileSize is the tile edge length in pixels.
	TileSize uint32
	// InitUnit and UpdateUnit are the workgroup edge lengths of the init and update kernels.
	InitUnit, UpdateUnit uint32
}

// Dispatch is one compute dispatch to record this frame.
// A zero Dispatch (empty Pipeline) means nothing is recorded.
type Dispatch struct {
	Pipeline   string
	Workgroups [3]uint32
}

// Empty reports whether there is no work.
func (d Dispatch) Empty() bool {
	return d.Pipeline == ""
}

// SizeDispatch picks the pipeline and workgroup counts for a frame.
//
//   - Init: init kernel over the whole image.
//   - Update while Running: update kernel over one tile.
//   - Update while Reset: init kernel over the whole image.
//   - Anything else: no dispatch.
//
// Extents round up so partial tiles and images are covered; the kernels bounds-check.
//
// Parameters:
//   - readiness: the pipeline readiness this frame
//   - state: the run state of the snapshot
//   - cfg: image, tile and workgroup sizes
//
// Returns:
//   - Dispatch: the dispatch, empty if nothing should run
func SizeDispatch(readiness Readiness, state runstate.State, cfg DispatchConfig) Dispatch {
	full := Dispatch{
		Pipeline:   InitPipelineKey,
		Workgroups: [3]uint32{ceilDiv(cfg.Width, cfg.InitUnit), ceilDiv(cfg.Height, cfg.InitUnit), 1},
	}

	switch readiness {
	case ReadinessInit:
		return full
	case ReadinessUpdate:
		switch state {
		case runstate.Running:
			n := ceilDiv(cfg.TileSize, cfg.UpdateUnit)
			return Dispatch{Pipeline: UpdatePipelineKey, Workgroups: [3]uint32{n, n, 1}}
		case runstate.Reset:
			return full
		}
	}
	return Dispatch{}
}

func ceilDiv(n, unit uint32) uint32 {
	if unit == 0 {
		return 0
	}
	return (n + unit - 1) / unit
}
