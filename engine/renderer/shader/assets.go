package shader

import _ "embed"

// Keys and entry point names of the embedded shaders.
const (
	TracerKey   = "tracer"
	BlitKey     = "blit"
	EntryInit   = "init"
	EntryUpdate = "update"
	EntryVertex = "vs_main"
	EntryFrag   = "fs_main"
)

//go:embed assets/tracer.wgsl
var tracerSource string

//go:embed assets/blit.wgsl
var blitSource string

// Tracer returns the progressive tile tracing kernel.
//
// Bindings in group 0: 0 output storage texture, 1 Params, 2 Camera, 3 Scene.
func Tracer() (Shader, error) {
	return NewShader(TracerKey, ShaderTypeCompute, tracerSource)
}

// Blit returns the fullscreen shader that presents the output texture.
func Blit() (Shader, error) {
	return NewShader(BlitKey, ShaderTypeRender, blitSource)
}
