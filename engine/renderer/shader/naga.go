package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

var (
	// ErrInvalidSource is returned when naga rejects a shader during parsing, lowering or validation.
	ErrInvalidSource = errors.New("shader: invalid source")

	// ErrEntryPointMismatch is returned when the compiled module disagrees with the parsed entry points.
	ErrEntryPointMismatch = errors.New("shader: entry point mismatch")
)

// Validate runs the shader through naga's front end and validator and checks that every
// compute entry point found by the parser exists with the same workgroup size.
// It does no GPU work and is safe to call from any goroutine.
//
// Parameters:
//   - s: the shader to validate
//
// Returns:
//   - error: nil if the module is valid, otherwise ErrInvalidSource or ErrEntryPointMismatch
func Validate(s Shader) error {
	ast, err := naga.Parse(s.Source())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSource, s.Key(), err)
	}
	module, err := naga.LowerWithSource(ast, s.Source())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSource, s.Key(), err)
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSource, s.Key(), err)
	}
	if len(problems) > 0 {
		errs := make([]error, 0, len(problems))
		for _, p := range problems {
			errs = append(errs, p)
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidSource, s.Key(), errors.Join(errs...))
	}

	for _, ep := range s.EntryPoints() {
		if ep.WorkgroupSize == [3]uint32{} {
			continue
		}
		compiled, ok := findEntryPoint(module, ep.Name)
		if !ok || compiled.Stage != ir.StageCompute {
			return fmt.Errorf("%w: %s: compute entry point %q not found", ErrEntryPointMismatch, s.Key(), ep.Name)
		}
		if compiled.Workgroup != ep.WorkgroupSize {
			return fmt.Errorf("%w: %s: %q workgroup %v, compiled %v", ErrEntryPointMismatch, s.Key(), ep.Name, ep.WorkgroupSize, compiled.Workgroup)
		}
	}
	return nil
}

func findEntryPoint(module *ir.Module, name string) (ir.EntryPoint, bool) {
	for _, ep := range module.EntryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return ir.EntryPoint{}, false
}
