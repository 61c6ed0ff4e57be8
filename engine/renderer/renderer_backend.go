package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

var (
	// ErrNoSurface is returned by surface operations on a headless backend.
	ErrNoSurface = errors.New("renderer: backend has no surface")

	// ErrBindingMissing is returned when a bind group is requested before all of its resources exist.
	ErrBindingMissing = errors.New("renderer: binding resource missing")

	// ErrNoComputeFrame is returned when dispatching outside BeginComputeFrame/EndComputeFrame.
	ErrNoComputeFrame = errors.New("renderer: no compute frame")
)

// RendererBackend is the GPU surface the render node drives. The wgpu backend is the
// production implementation; tests substitute an in-memory one.
//
// Every method is safe to call from multiple goroutines: pipelines are registered from
// compile workers while the render goroutine records frames.
type RendererBackend interface {
	BufferAllocator

	// CreateOutputTexture creates the storage texture the tracer writes and the blit samples.
	//
	// Parameters:
	//   - width: image width in pixels
	//   - height: image height in pixels
	//
	// Returns:
	//   - error: an error if texture creation fails
	CreateOutputTexture(width, height uint32) error

	// EnsureBindGroup builds the tracer's binding set from the output texture and the uniform
	// buffers if it does not exist yet.
	//
	// Parameters:
	//   - descriptor: the layout of group 0 as parsed from the tracer shader
	//
	// Returns:
	//   - error: ErrBindingMissing if a binding has no resource yet, or a creation error
	EnsureBindGroup(descriptor wgpu.BindGroupLayoutDescriptor) error

	// RegisterComputePipeline creates the GPU compute pipeline for p and stores it on p.
	RegisterComputePipeline(p pipeline.Pipeline) error

	// RegisterRenderPipeline creates the GPU render pipeline for p and stores it on p.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// BeginComputeFrame creates the command encoder all of a frame's dispatches are recorded into.
	BeginComputeFrame() error

	// DispatchCompute records one compute pass with the tracer binding set.
	//
	// Parameters:
	//   - p: a compiled compute pipeline
	//   - workgroups: the workgroup counts in x, y and z
	//
	// Returns:
	//   - error: ErrNoComputeFrame or ErrBindingMissing
	DispatchCompute(p pipeline.Pipeline, workgroups [3]uint32) error

	// EndComputeFrame finishes the encoder and submits it to the queue.
	EndComputeFrame() error

	// HasSurface reports whether the backend can present to a window.
	HasSurface() bool

	// ConfigureSurface reconfigures the surface for a new window size.
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// Present draws the output texture onto the surface with the blit pipeline and presents it.
	//
	// Parameters:
	//   - blit: a compiled render pipeline
	//
	// Returns:
	//   - error: ErrNoSurface on a headless backend, or a surface acquisition error
	Present(blit pipeline.Pipeline) error

	// Release frees every GPU object owned by the backend.
	Release()
}
