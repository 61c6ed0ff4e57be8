package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracerLayout(t *testing.T) {
	s, err := Tracer()
	require.NoError(t, err)
	assert.Equal(t, ShaderTypeCompute, s.ShaderType())

	sizes := map[string]uint64{
		"Params": 48,
		"Camera": 112,
		"Sphere": 32,
		"Scene":  320,
	}
	for name, want := range sizes {
		got, ok := s.StructSize(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 4)
	for i, e := range desc.Entries {
		assert.Equal(t, uint32(i), e.Binding)
		assert.Equal(t, wgpu.ShaderStageCompute, e.Visibility)
	}

	out := desc.Entries[0]
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, out.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, out.StorageTexture.Access)
	assert.Equal(t, wgpu.TextureViewDimension2D, out.StorageTexture.ViewDimension)

	for binding, size := range map[int]uint64{1: 48, 2: 112, 3: 320} {
		e := desc.Entries[binding]
		assert.Equal(t, wgpu.BufferBindingTypeUniform, e.Buffer.Type, "binding %d", binding)
		assert.Equal(t, size, e.Buffer.MinBindingSize, "binding %d", binding)
		got, ok := s.BindingSize(0, binding)
		require.True(t, ok, "binding %d", binding)
		assert.Equal(t, size, got, "binding %d", binding)
	}
	_, ok := s.BindingSize(0, 0)
	assert.False(t, ok, "the output image is not a buffer")

	assert.Equal(t, "output", s.BindGroupVarName(0, 0))
	assert.Equal(t, "params", s.BindGroupVarName(0, 1))
	b, ok := s.BindGroupFromVarName(0, "scene")
	assert.True(t, ok)
	assert.Equal(t, 3, b)
	_, ok = s.BindGroupFromVarName(1, "scene")
	assert.False(t, ok)
}

func TestTracerEntryPoints(t *testing.T) {
	s, err := Tracer()
	require.NoError(t, err)

	require.Len(t, s.EntryPoints(), 2)
	for _, name := range []string{EntryInit, EntryUpdate} {
		ep, ok := s.EntryPoint(name)
		require.True(t, ok, name)
		assert.Equal(t, wgpu.ShaderStageCompute, ep.Stage)
		assert.Equal(t, [3]uint32{8, 8, 1}, ep.WorkgroupSize)
	}
	_, ok := s.EntryPoint("main")
	assert.False(t, ok)
}

func TestBlitLayout(t *testing.T) {
	s, err := Blit()
	require.NoError(t, err)

	vs, ok := s.EntryPoint(EntryVertex)
	require.True(t, ok)
	assert.Equal(t, wgpu.ShaderStageVertex, vs.Stage)
	fs, ok := s.EntryPoint(EntryFrag)
	require.True(t, ok)
	assert.Equal(t, wgpu.ShaderStageFragment, fs.Stage)

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, desc.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, desc.Entries[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, desc.Entries[1].Sampler.Type)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("empty", ShaderTypeCompute, "")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = NewShader("frag-only", ShaderTypeCompute, "@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = NewShaderFromPath("missing", ShaderTypeCompute, filepath.Join(t.TempDir(), "nope.wgsl"))
	assert.Error(t, err)
}

func TestNewShaderFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fill.wgsl")
	src := `
/* block /* nested */ comment */
@group(0) @binding(0) var<storage, read_write> data: array<f32>; // trailing
@compute @workgroup_size(64)
fn fill(@builtin(global_invocation_id) id: vec3<u32>) {
	data[id.x] = 1.0;
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	s, err := NewShaderFromPath("fill", ShaderTypeCompute, path)
	require.NoError(t, err)
	ep, ok := s.EntryPoint("fill")
	require.True(t, ok)
	assert.Equal(t, [3]uint32{64, 1, 1}, ep.WorkgroupSize)

	e := s.BindGroupLayoutDescriptor(0).Entries[0]
	assert.Equal(t, wgpu.BufferBindingTypeStorage, e.Buffer.Type)
	assert.Equal(t, uint64(0), e.Buffer.MinBindingSize, "runtime-sized arrays are unsized")
	_, ok = s.BindingSize(0, 0)
	assert.False(t, ok)
	assert.Equal(t, "fill", s.Module().Label)
}

func TestValidate(t *testing.T) {
	tracer, err := Tracer()
	require.NoError(t, err)
	assert.NoError(t, Validate(tracer))

	blit, err := Blit()
	require.NoError(t, err)
	assert.NoError(t, Validate(blit))

	broken, err := NewShader("broken", ShaderTypeCompute, "@compute @workgroup_size(1) fn main() { let x: f32 = ; }")
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(broken), ErrInvalidSource)
}

func TestSplitAtTopLevelCommas(t *testing.T) {
	parts := splitAtTopLevelCommas("a: f32, b: array<Sphere, 10>, c: vec3<f32>")
	require.Len(t, parts, 3)
	assert.Equal(t, " b: array<Sphere, 10>", parts[1])
}

func TestLayoutResolver(t *testing.T) {
	src := stripComments(`
struct Scene { spheres: array<Sphere, 2u>, }
struct Sphere { center: vec3f, radius: f32, }
struct Padded { a: f32, b: vec3<f32>, c: vec3<f32>, }
struct Loop { next: Loop, }
struct Tail { n: u32, items: array<f32>, }
`)
	layouts := newLayoutResolver(parseStructBlocks(src))
	sizes := layouts.structSizes()

	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Sphere"])
	assert.Equal(t, wgslTypeLayout{32, 16}, sizes["Scene"], "structs resolve regardless of declaration order")
	assert.Equal(t, wgslTypeLayout{48, 16}, sizes["Padded"], "a vec3 starts on a 16-byte boundary")
	assert.NotContains(t, sizes, "Loop")
	assert.NotContains(t, sizes, "Tail")
	assert.NotContains(t, sizes, "array<Sphere, 2u>", "only structs are reported")

	_, err := layouts.resolve("Tail")
	assert.ErrorIs(t, err, errRuntimeArray)
	_, err = layouts.resolve("vec3<bool>")
	assert.Error(t, err)
}

func TestUnsupportedBinding(t *testing.T) {
	for name, decl := range map[string]string{
		"workgroup":    "@group(0) @binding(0) var<workgroup> tmp: f32;",
		"texel format": "@group(0) @binding(0) var out: texture_storage_2d<r8uint, write>;",
		"depth":        "@group(0) @binding(0) var shadow: texture_depth_2d;",
		"uniform":      "@group(0) @binding(0) var<uniform> p: Missing;",
	} {
		src := decl + "\n@compute @workgroup_size(1) fn main() {}\n"
		_, err := NewShader(name, ShaderTypeCompute, src)
		assert.ErrorIs(t, err, ErrUnsupportedBinding, name)
	}
}

func TestStripComments(t *testing.T) {
	got := stripComments("a /* x\n /* y */ z */ b // c\nd")
	assert.Equal(t, "a \n b \nd", got)
}
