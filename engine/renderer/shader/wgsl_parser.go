package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// sampledTextureDims maps sampled texture types to their view dimension.
var sampledTextureDims = map[string]wgpu.TextureViewDimension{
	"texture_2d":       wgpu.TextureViewDimension2D,
	"texture_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_3d":       wgpu.TextureViewDimension3D,
	"texture_cube":     wgpu.TextureViewDimensionCube,
}

// storageTextureDims maps storage texture types to their view dimension.
var storageTextureDims = map[string]wgpu.TextureViewDimension{
	"texture_storage_2d":       wgpu.TextureViewDimension2D,
	"texture_storage_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_storage_3d":       wgpu.TextureViewDimension3D,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var storageAccess = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read":       wgpu.StorageTextureAccessReadOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

// texelFormats are the storage formats the output image may use.
var texelFormats = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// fieldRegex matches a struct member: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// entryPointRegex captures the attribute run in front of a function and the function name.
	// Only runs that carry a stage attribute are entry points.
	entryPointRegex = regexp.MustCompile(`((?:@\w+(?:\([^)]*\))?\s*)+)fn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(1) var<uniform> params: Params;
	// or handle types: @group(0) @binding(0) var output: texture_storage_2d<rgba8unorm, write>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseBindGroupLayouts extracts bind group layout descriptors and binding variable names from WGSL source.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - visibility: the shader stages every entry is visible to
//   - layouts: struct layouts of the same source, used to size buffer bindings
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index, entries sorted by binding
//   - map[int]map[int]string: variable names keyed by group and binding
//   - error: ErrUnsupportedBinding if a resource cannot be bound
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage, layouts *layoutResolver) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, error) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		varName := strings.TrimSpace(match[4])

		entry, err := bindingEntry(uint32(binding), visibility, strings.TrimSpace(match[3]), strings.TrimSpace(match[5]), layouts)
		if err != nil {
			return nil, nil, fmt.Errorf("%s (group %d, binding %d): %w", varName, group, binding, err)
		}
		groups[group] = append(groups[group], entry)

		if varNames[group] == nil {
			varNames[group] = make(map[int]string)
		}
		varNames[group][binding] = varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{
			Entries: entries,
		}
	}
	return result, varNames, nil
}

// parseEntryPoints finds every @compute, @vertex and @fragment function in source order.
// Compute entry points carry their own @workgroup_size; omitted dimensions default to 1.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []EntryPoint: the entry points found
func parseEntryPoints(source string) []EntryPoint {
	var entries []EntryPoint
	for _, match := range entryPointRegex.FindAllStringSubmatch(source, -1) {
		attrs, name := match[1], match[2]
		ep := EntryPoint{Name: name}
		switch {
		case strings.Contains(attrs, "@compute"):
			ep.Stage = wgpu.ShaderStageCompute
			ep.WorkgroupSize = parseWorkgroupSize(attrs)
		case strings.Contains(attrs, "@vertex"):
			ep.Stage = wgpu.ShaderStageVertex
		case strings.Contains(attrs, "@fragment"):
			ep.Stage = wgpu.ShaderStageFragment
		default:
			continue
		}
		entries = append(entries, ep)
	}
	return entries
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions from an attribute run.
// Omitted dimensions default to 1; a missing attribute yields [1, 1, 1].
//
// Parameters:
//   - attrs: the attributes preceding a compute entry point
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z]
func parseWorkgroupSize(attrs string) [3]uint32 {
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(attrs)
	if match == nil {
		return result
	}
	for i := range 3 {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields splits a struct body into members.
//
// Parameters:
//   - body: the content between { and } of a struct declaration
//
// Returns:
//   - []parsedField: all fields found in the struct body
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		fields = append(fields, parsedField{
			name:     fm[1],
			typeName: strings.TrimSpace(fm[2]),
		})
	}
	return fields
}
