package shader

import "github.com/cogentcore/webgpu/wgpu"

// wgslTypeLayout holds the byte size and alignment of a WGSL type in host-shareable memory.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is one member of a WGSL struct.
type parsedField struct {
	name     string
	typeName string
}

// parsedStruct is a WGSL struct block.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// EntryPoint describes one entry point function found in a shader source.
type EntryPoint struct {
	// Name is the WGSL function name, passed to pipeline creation.
	Name string
	// Stage is the pipeline stage the function is declared for.
	Stage wgpu.ShaderStage
	// WorkgroupSize is the @workgroup_size of a compute entry point; [0, 0, 0] for other stages.
	WorkgroupSize [3]uint32
}
