package shader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// scalarLayouts are the 4-byte scalars the tracer's uniform blocks are built from.
var scalarLayouts = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"bool": {4, 4},
}

// vectorComponents maps the short vector spellings (vec3f) to their component type.
var vectorComponents = map[byte]string{'f': "f32", 'i': "i32", 'u': "u32"}

var errRuntimeArray = errors.New("runtime-sized array has no fixed size")

// vectorLayout resolves vec2, vec3 and vec4 of a 4-byte scalar in either spelling
// (vec3<f32> or vec3f). A vec3 is 12 bytes aligned to 16: the word after it is padding.
//
// Parameters:
//   - typeName: the WGSL type name
//
// Returns:
//   - wgslTypeLayout: the vector layout
//   - bool: true if typeName is a supported vector
func vectorLayout(typeName string) (wgslTypeLayout, bool) {
	if len(typeName) < 5 || !strings.HasPrefix(typeName, "vec") {
		return wgslTypeLayout{}, false
	}
	n := uint64(typeName[3] - '0')
	if n < 2 || n > 4 {
		return wgslTypeLayout{}, false
	}

	var component string
	if rest := typeName[4:]; len(rest) == 1 {
		component = vectorComponents[rest[0]]
	} else if strings.HasPrefix(rest, "<") && strings.HasSuffix(rest, ">") {
		component = strings.TrimSpace(rest[1 : len(rest)-1])
	}
	if component == "bool" {
		return wgslTypeLayout{}, false
	}
	scalar, ok := scalarLayouts[component]
	if !ok {
		return wgslTypeLayout{}, false
	}

	size := n * scalar.size
	if n == 3 {
		return wgslTypeLayout{size, 4 * scalar.size}, true
	}
	return wgslTypeLayout{size, size}, true
}

// alignUp rounds value up to a multiple of align, a power of two.
func alignUp(value, align uint64) uint64 {
	if align == 0 {
		return value
	}
	return (value + align - 1) &^ (align - 1)
}

// splitArrayType splits array<T, N> into T and N. A runtime-sized array<T> reports a count of 0.
//
// Parameters:
//   - typeName: the WGSL type name
//
// Returns:
//   - string: the element type
//   - uint64: the element count, 0 if runtime-sized
//   - bool: true if typeName is an array type
func splitArrayType(typeName string) (string, uint64, bool) {
	base, params := splitTypeParams(typeName)
	if base != "array" || params == "" {
		return "", 0, false
	}
	parts := splitAtTopLevelCommas(params)
	elem := strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		return elem, 0, true
	}
	count, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(parts[1]), "u"), 10, 64)
	if err != nil || count == 0 {
		return "", 0, false
	}
	return elem, count, true
}

// layoutResolver computes host-shareable layouts for the structs of one source.
// Structs resolve on demand, so declaration order does not matter.
type layoutResolver struct {
	structs  map[string]parsedStruct
	resolved map[string]wgslTypeLayout
	visiting map[string]bool
}

// newLayoutResolver resolves every struct it is given. Structs that cannot be resolved
// (unknown member types, runtime-sized arrays) are left out.
//
// Parameters:
//   - structs: the parsed struct blocks of a source
//
// Returns:
//   - *layoutResolver: the resolver
func newLayoutResolver(structs []parsedStruct) *layoutResolver {
	r := &layoutResolver{
		structs:  make(map[string]parsedStruct, len(structs)),
		resolved: make(map[string]wgslTypeLayout, len(structs)),
		visiting: make(map[string]bool),
	}
	for _, ps := range structs {
		r.structs[ps.name] = ps
	}
	for _, ps := range structs {
		_, _ = r.resolve(ps.name)
	}
	return r
}

// structSizes returns the layouts of every resolved struct.
func (r *layoutResolver) structSizes() map[string]wgslTypeLayout {
	out := make(map[string]wgslTypeLayout, len(r.resolved))
	for name, layout := range r.resolved {
		if _, ok := r.structs[name]; ok {
			out[name] = layout
		}
	}
	return out
}

// resolve returns the size and alignment of a type. Struct members are placed at their
// next aligned offset and the struct size rounds up to its largest member alignment.
//
// Parameters:
//   - typeName: a scalar, vector, fixed-size array or struct name
//
// Returns:
//   - wgslTypeLayout: the layout
//   - error: if the type is unknown, recursive or runtime-sized
func (r *layoutResolver) resolve(typeName string) (wgslTypeLayout, error) {
	typeName = strings.TrimSpace(typeName)
	if layout, ok := scalarLayouts[typeName]; ok {
		return layout, nil
	}
	if layout, ok := vectorLayout(typeName); ok {
		return layout, nil
	}
	if layout, ok := r.resolved[typeName]; ok {
		return layout, nil
	}

	if elem, count, ok := splitArrayType(typeName); ok {
		if count == 0 {
			return wgslTypeLayout{}, errRuntimeArray
		}
		el, err := r.resolve(elem)
		if err != nil {
			return wgslTypeLayout{}, err
		}
		layout := wgslTypeLayout{count * alignUp(el.size, el.align), el.align}
		r.resolved[typeName] = layout
		return layout, nil
	}

	ps, ok := r.structs[typeName]
	if !ok {
		return wgslTypeLayout{}, fmt.Errorf("unknown type %q", typeName)
	}
	if r.visiting[typeName] {
		return wgslTypeLayout{}, fmt.Errorf("struct %s contains itself", typeName)
	}
	r.visiting[typeName] = true
	defer delete(r.visiting, typeName)

	offset, align := uint64(0), uint64(1)
	for _, field := range ps.fields {
		fl, err := r.resolve(field.typeName)
		if err != nil {
			return wgslTypeLayout{}, fmt.Errorf("%s.%s: %w", typeName, field.name, err)
		}
		offset = alignUp(offset, fl.align) + fl.size
		align = max(align, fl.align)
	}
	layout := wgslTypeLayout{alignUp(offset, align), align}
	r.resolved[typeName] = layout
	return layout, nil
}

// bindingEntry builds the layout entry for one module-scope resource variable. Buffers
// are sized from the resolver; runtime-sized storage arrays are left unsized.
//
// Parameters:
//   - binding: the @binding index
//   - visibility: the stages the binding is visible to
//   - addressSpace: "uniform", "storage[, access]", or empty for handle types
//   - typeName: the variable's WGSL type
//   - layouts: struct layouts of the same source
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the entry
//   - error: ErrUnsupportedBinding for resources the backend cannot bind
func bindingEntry(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string, layouts *layoutResolver) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	base, params := splitTypeParams(typeName)

	switch {
	case addressSpace == "uniform":
		layout, err := layouts.resolve(typeName)
		if err != nil {
			return entry, fmt.Errorf("%w: uniform %s: %w", ErrUnsupportedBinding, typeName, err)
		}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = layout.size
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		if layout, err := layouts.resolve(typeName); err == nil {
			entry.Buffer.MinBindingSize = layout.size
		}
	case addressSpace != "":
		return entry, fmt.Errorf("%w: address space %q", ErrUnsupportedBinding, addressSpace)
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case strings.HasPrefix(base, "texture_storage_"):
		dim, ok := storageTextureDims[base]
		format, access, _ := strings.Cut(params, ",")
		texel, okFormat := texelFormats[strings.TrimSpace(format)]
		mode, okAccess := storageAccess[strings.TrimSpace(access)]
		if !ok || !okFormat || !okAccess {
			return entry, fmt.Errorf("%w: %s", ErrUnsupportedBinding, typeName)
		}
		entry.StorageTexture.ViewDimension = dim
		entry.StorageTexture.Format = texel
		entry.StorageTexture.Access = mode
	case strings.HasPrefix(base, "texture_"):
		dim, ok := sampledTextureDims[base]
		sample, okSample := sampleTypes[params]
		if !ok || !okSample {
			return entry, fmt.Errorf("%w: %s", ErrUnsupportedBinding, typeName)
		}
		entry.Texture.ViewDimension = dim
		entry.Texture.SampleType = sample
	default:
		return entry, fmt.Errorf("%w: %s", ErrUnsupportedBinding, typeName)
	}
	return entry, nil
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32".
// Types without parameters return an empty parameter string.
func splitTypeParams(typeName string) (string, string) {
	base, params, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return strings.TrimSpace(base), strings.TrimSpace(strings.TrimSuffix(params, ">"))
}

// stripComments removes line comments and nested block comments from WGSL source.
// Newlines inside block comments are kept.
//
// Parameters:
//   - source: raw WGSL source
//
// Returns:
//   - string: the source without comments
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		var next byte
		if i+1 < len(source) {
			next = source[i+1]
		}

		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case depth > 0 && c == '*' && next == '/':
			depth--
			i++
		case depth > 0:
			if c == '\n' {
				sb.WriteByte('\n')
			}
		case c == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits s at commas outside angle brackets, so the comma in
// array<Sphere, 10> stays with its type.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch {
		case c == '<':
			depth++
		case c == '>' && depth > 0:
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
