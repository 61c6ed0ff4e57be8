package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
)

// ErrLayoutMismatch is returned when a uniform block in the kernel and its host struct differ in size.
var ErrLayoutMismatch = errors.New("renderer: uniform layout mismatch")

// bufferKinds lists the uniform buffers in upload order.
var bufferKinds = []BufferKind{BufferParams, BufferCamera, BufferScene}

// wireSizes returns the byte size of each uniform block as the host marshals it.
func wireSizes() map[BufferKind]uint64 {
	var (
		params tile.GPUParams
		cam    camera.GPUCamera
		sc     scene.GPUScene
	)
	return map[BufferKind]uint64{
		BufferParams: uint64(params.Size()),
		BufferCamera: uint64(cam.Size()),
		BufferScene:  uint64(sc.Size()),
	}
}

// CheckLayouts compares the size of every uniform block bound in group 0 of the tracer
// with the host struct uploaded into it.
//
// Parameters:
//   - tracer: the tracer shader
//
// Returns:
//   - error: ErrLayoutMismatch listing every block that differs, nil if all match
func CheckLayouts(tracer shader.Shader) error {
	want := wireSizes()
	var errs []error
	for _, kind := range bufferKinds {
		got, ok := tracer.BindingSize(0, int(kind))
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %s: binding %d is not a sized buffer in %s",
				ErrLayoutMismatch, kind, int(kind), tracer.Key()))
		case got != want[kind]:
			errs = append(errs, fmt.Errorf("%w: %s: %s declares %d bytes, host writes %d",
				ErrLayoutMismatch, kind, tracer.Key(), got, want[kind]))
		}
	}
	return errors.Join(errs...)
}
