package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileLifecycle(t *testing.T) {
	p := NewPipeline("init", PipelineTypeCompute, WithEntryPoint("init"))
	assert.Equal(t, CompileQueued, p.State())
	assert.Equal(t, "init", p.EntryPoint())
	assert.ErrorIs(t, p.Finish(nil), ErrNotCompiling)

	require.True(t, p.Begin())
	assert.False(t, p.Begin())
	assert.Equal(t, CompileCompiling, p.State())

	require.NoError(t, p.Finish(nil))
	assert.Equal(t, CompileOk, p.State())
	assert.NoError(t, p.Err())
	assert.ErrorIs(t, p.Finish(nil), ErrNotCompiling)
	assert.Equal(t, CompileOk, p.State())
}

func TestCompileFailure(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline("update", PipelineTypeCompute)
	require.True(t, p.Begin())
	require.NoError(t, p.Finish(boom))
	assert.Equal(t, CompileErr, p.State())
	assert.ErrorIs(t, p.Err(), boom)
}

func TestRenderDefaults(t *testing.T) {
	p := NewPipeline("blit", PipelineTypeRender, WithCullMode(wgpu.CullModeBack))
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Nil(t, p.BlendState())
	assert.Empty(t, p.EntryPoint())
}

func TestCache(t *testing.T) {
	c := NewCache()
	a := NewPipeline("b", PipelineTypeCompute)
	b := NewPipeline("a", PipelineTypeCompute)
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))
	assert.ErrorIs(t, c.Add(NewPipeline("a", PipelineTypeRender)), ErrDuplicateKey)
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, err := c.State("missing")
	assert.ErrorIs(t, err, ErrUnknownKey)

	state, err := c.State("a")
	assert.NoError(t, err)
	assert.Equal(t, CompileQueued, state)

	boom := errors.New("boom")
	b.Begin()
	require.NoError(t, b.Finish(boom))
	state, err = c.State("a")
	assert.Equal(t, CompileErr, state)
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentBegin(t *testing.T) {
	p := NewPipeline("race", PipelineTypeCompute)
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Begin() {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}
