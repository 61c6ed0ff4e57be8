package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies whether a shader feeds a compute pipeline or a render pipeline.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader whose entry points are @compute functions.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeRender indicates a shader carrying a @vertex and @fragment pair in one module.
	ShaderTypeRender
)

var (
	// ErrEmptySource is returned when a shader is created without WGSL source.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrNoEntryPoint is returned when a source declares no entry point for its shader type.
	ErrNoEntryPoint = errors.New("shader: no entry point")

	// ErrUnsupportedBinding is returned when a resource variable cannot be turned into a layout entry.
	ErrUnsupportedBinding = errors.New("shader: unsupported binding")
)

// shader is the implementation of the Shader interface.
// It holds the parsed metadata required for pipeline and bind group creation.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoints                []EntryPoint
	structSizes                map[string]wgslTypeLayout
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded and parsed WGSL shader. It exposes the shader's
// unique key, source code, entry points, bind group layout descriptors and struct sizes
// needed for pipeline creation and buffer sizing.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the type of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeCompute or ShaderTypeRender
	ShaderType() ShaderType

	// EntryPoints returns every entry point in source order.
	//
	// Returns:
	//   - []EntryPoint: the parsed entry points
	EntryPoints() []EntryPoint

	// EntryPoint looks up an entry point by function name.
	//
	// Parameters:
	//   - name: the WGSL function name
	//
	// Returns:
	//   - EntryPoint: the entry point, zero value if not found
	//   - bool: true if the entry point exists
	EntryPoint(name string) (EntryPoint, bool)

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a given group and variable name.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// StructSize returns the host-shareable byte size of a WGSL struct declared in the source.
	//
	// Parameters:
	//   - name: the struct name
	//
	// Returns:
	//   - uint64: the struct size in bytes
	//   - bool: true if the struct was found and fully resolved
	StructSize(name string) (uint64, bool)

	// BindingSize returns the byte size of the struct bound to a buffer binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - uint64: the bound type's size in bytes
	//   - bool: false if the binding is not a buffer or its type has no fixed size
	BindingSize(group, binding int) (uint64, bool)

	// Module returns the wgpu.ShaderModuleDescriptor built from the source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader parses WGSL source into a Shader.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the kind of pipeline the shader feeds
//   - source: the WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrEmptySource or ErrNoEntryPoint
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, key)
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}
	if err := s.parse(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewShaderFromPath reads WGSL source from disk and parses it.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the kind of pipeline the shader feeds
//   - path: the file path to read WGSL source from
//
// Returns:
//   - Shader: the parsed shader
//   - error: a read error, or any error from NewShader
func NewShaderFromPath(key string, shaderType ShaderType, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader: read %q: %w", path, err)
	}
	return NewShader(key, shaderType, string(data))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoints() []EntryPoint {
	return s.entryPoints
}

func (s *shader) EntryPoint(name string) (EntryPoint, bool) {
	for _, ep := range s.entryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	if s.bindingVarNames[group] == nil {
		return -1, false
	}
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) StructSize(name string) (uint64, bool) {
	layout, ok := s.structSizes[name]
	return layout.size, ok
}

func (s *shader) BindingSize(group, binding int) (uint64, bool) {
	for _, e := range s.bindGroupLayoutDescriptors[group].Entries {
		if int(e.Binding) != binding {
			continue
		}
		if e.Buffer.Type == wgpu.BufferBindingTypeUndefined || e.Buffer.MinBindingSize == 0 {
			return 0, false
		}
		return e.Buffer.MinBindingSize, true
	}
	return 0, false
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

// parse extracts entry points, struct layouts and bind group layouts from the source.
// Compute shaders bind for the compute stage; render shaders bind for fragment and vertex.
func (s *shader) parse() error {
	clean := stripComments(s.source)

	var visibility wgpu.ShaderStage
	var want wgpu.ShaderStage
	switch s.shaderType {
	case ShaderTypeCompute:
		visibility = wgpu.ShaderStageCompute
		want = wgpu.ShaderStageCompute
	case ShaderTypeRender:
		visibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
		want = wgpu.ShaderStageFragment
	default:
		visibility = wgpu.ShaderStageNone
	}

	for _, ep := range parseEntryPoints(clean) {
		if ep.Stage&visibility != 0 {
			s.entryPoints = append(s.entryPoints, ep)
		}
	}
	found := false
	for _, ep := range s.entryPoints {
		if ep.Stage == want {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoEntryPoint, s.key)
	}

	layouts := newLayoutResolver(parseStructBlocks(clean))
	s.structSizes = layouts.structSizes()
	groups, names, err := parseBindGroupLayouts(clean, visibility, layouts)
	if err != nil {
		return fmt.Errorf("%s: %w", s.key, err)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = groups, names
	return nil
}
