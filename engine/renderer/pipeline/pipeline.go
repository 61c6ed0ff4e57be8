package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment entry points in one module.
	PipelineTypeRender
)

// CompileState is the progress of a pipeline through asynchronous compilation.
// States only move forward: Queued -> Compiling -> Ok or Err.
type CompileState int

const (
	// CompileQueued means the pipeline has been created but no compile has started.
	CompileQueued CompileState = iota
	// CompileCompiling means a worker is validating the shader and building the GPU pipeline.
	CompileCompiling
	// CompileOk means the GPU pipeline exists and can be dispatched.
	CompileOk
	// CompileErr means compilation failed; Err holds the cause.
	CompileErr
)

func (s CompileState) String() string {
	switch s {
	case CompileQueued:
		return "queued"
	case CompileCompiling:
		return "compiling"
	case CompileOk:
		return "ok"
	case CompileErr:
		return "error"
	default:
		return fmt.Sprintf("CompileState(%d)", int(s))
	}
}

// ErrNotCompiling is returned by Finish when the pipeline was never started.
var ErrNotCompiling = errors.New("pipeline: finish without begin")

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string
	entryPoint   string
	shader       shader.Shader

	mu              sync.RWMutex
	state           CompileState
	err             error
	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	// render-only settings
	cullMode  wgpu.CullMode
	topology  wgpu.PrimitiveTopology
	frontFace wgpu.FrontFace
	writeMask wgpu.ColorWriteMask
	blend     *wgpu.BlendState
}

// Pipeline defines the interface for a GPU pipeline, encapsulating either a render pipeline
// or a compute pipeline, together with its compile state. Compile state is safe for concurrent use.
type Pipeline interface {
	// Type returns the type of the pipeline.
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the shader the pipeline is built from.
	//
	// Returns:
	//   - shader.Shader: the pipeline's shader
	Shader() shader.Shader

	// EntryPoint returns the compute entry point name. Empty for render pipelines.
	//
	// Returns:
	//   - string: the entry point
	EntryPoint() string

	// Pipeline returns the underlying pipeline object, either *wgpu.RenderPipeline or *wgpu.ComputePipeline.
	// The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - any: the underlying pipeline object, nil until compiled
	Pipeline() any

	// State returns the current compile state.
	//
	// Returns:
	//   - CompileState: the compile state
	State() CompileState

	// Err returns the compile error once State is CompileErr.
	//
	// Returns:
	//   - error: the compile error, or nil
	Err() error

	// Begin moves a queued pipeline to CompileCompiling.
	//
	// Returns:
	//   - bool: false if the pipeline was not queued
	Begin() bool

	// Finish records the compile result. A nil err moves the pipeline to CompileOk.
	//
	// Parameters:
	//   - err: the compile error, or nil
	//
	// Returns:
	//   - error: ErrNotCompiling if Begin was not called first
	Finish(err error) error

	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state, nil when blending is disabled.
	BlendState() *wgpu.BlendState

	// SetRenderPipeline sets the render pipeline.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// SetComputePipeline sets the compute pipeline.
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline to set
	SetComputePipeline(p *wgpu.ComputePipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a queued Pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline in CompileQueued
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
		state:        CompileQueued,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) EntryPoint() string {
	return p.entryPoint
}

func (p *pipeline) Pipeline() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch p.pipelineType {
	case PipelineTypeRender:
		return p.renderPipeline
	case PipelineTypeCompute:
		return p.computePipeline
	default:
		return nil
	}
}

func (p *pipeline) State() CompileState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *pipeline) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *pipeline) Begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != CompileQueued {
		return false
	}
	p.state = CompileCompiling
	return true
}

func (p *pipeline) Finish(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != CompileCompiling {
		return fmt.Errorf("%w: %s", ErrNotCompiling, p.pipelineKey)
	}
	if err != nil {
		p.state = CompileErr
		p.err = err
		return nil
	}
	p.state = CompileOk
	return nil
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blend
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.mu.Lock()
	p.renderPipeline = rp
	p.mu.Unlock()
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.mu.Lock()
	p.computePipeline = cp
	p.mu.Unlock()
}
