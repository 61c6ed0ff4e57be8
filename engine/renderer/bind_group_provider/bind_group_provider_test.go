package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyProvider(t *testing.T) {
	p := NewBindGroupProvider("tracer")
	assert.Equal(t, "tracer", p.Label())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.BindGroupLayout())
	assert.Nil(t, p.Buffer(1))
	assert.Nil(t, p.TextureView(0))
	assert.Nil(t, p.Sampler(1))

	p.SetBuffer(1, nil)
	assert.Nil(t, p.Buffer(1))
	assert.NotPanics(t, p.Release)
}
