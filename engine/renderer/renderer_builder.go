package renderer

import (
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithWorkers sets the size of the worker pool used for shader compilation and per-frame buffer marshaling.
//
// Parameters:
//   - n: the maximum number of workers, values below 2 are raised to 2
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = max(n, 2)
	}
}

// WithTracerShader replaces the embedded tracer kernel.
// The shader must declare the init and update compute entry points and the group 0 bindings
// of the embedded kernel.
//
// Parameters:
//   - s: the compute shader
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader option to a renderer
func WithTracerShader(s shader.Shader) RendererBuilderOption {
	return func(r *renderer) {
		r.tracer = s
	}
}

// backendConfig collects BackendBuilderOption values before the device is requested.
type backendConfig struct {
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	width, height        int
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// BackendBuilderOption is a functional option applied to the wgpu backend via NewWGPUBackend.
type BackendBuilderOption func(*backendConfig)

// WithSurface attaches a window surface. The surface is configured for the given size.
//
// Parameters:
//   - desc: the platform-specific surface descriptor, typically from Window.SurfaceDescriptor
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//
// Returns:
//   - BackendBuilderOption: a function that applies the surface option
func WithSurface(desc *wgpu.SurfaceDescriptor, width, height int) BackendBuilderOption {
	return func(c *backendConfig) {
		c.surfaceDescriptor = desc
		c.width = width
		c.height = height
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(c *backendConfig) {
		c.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - BackendBuilderOption: a function that applies the force software renderer option
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}
