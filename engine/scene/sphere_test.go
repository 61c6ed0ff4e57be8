package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScene(t *testing.T) {
	s := DefaultScene()
	require.Equal(t, 4, s.Count)
	assert.Equal(t, [3]float32{-0.5, 0, -1}, s.Items[0].Center)
	assert.Equal(t, float32(0.5), s.Items[0].Radius)
	assert.Equal(t, [3]float32{0.1, 0.1, 0.7}, s.Items[2].Color)
	assert.Equal(t, float32(100), s.Items[3].Radius)
	for _, sp := range s.Active() {
		assert.Equal(t, float32(1), sp.Alpha)
	}
	assert.Equal(t, Sphere{}, s.Items[4])
}

func TestAddPastCapacity(t *testing.T) {
	var s Spheres
	for i := range MaxSpheres {
		require.NoError(t, s.Add(Sphere{Radius: float32(i + 1)}))
	}
	assert.ErrorIs(t, s.Add(Sphere{Radius: 99}), ErrSceneFull)
	assert.Equal(t, MaxSpheres, s.Count)
	assert.Equal(t, float32(MaxSpheres), s.Items[MaxSpheres-1].Radius)
}

func TestSetAndRemove(t *testing.T) {
	s := DefaultScene()

	require.NoError(t, s.Set(1, Sphere{Radius: 7}))
	assert.Equal(t, float32(7), s.Items[1].Radius)
	assert.ErrorIs(t, s.Set(4, Sphere{}), ErrSphereIndex)
	assert.ErrorIs(t, s.Set(-1, Sphere{}), ErrSphereIndex)

	require.NoError(t, s.Remove(0))
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, float32(7), s.Items[0].Radius)
	assert.Equal(t, Sphere{}, s.Items[3])
	assert.ErrorIs(t, s.Remove(3), ErrSphereIndex)

	s.Clear()
	assert.Equal(t, 0, s.Count)
	assert.Empty(t, s.Active())
}

func TestAnimate(t *testing.T) {
	s := DefaultScene()
	s.Animate(0)
	assert.Equal(t, float32(0), s.Items[0].Center[0])
	assert.Equal(t, float32(1), s.Items[1].Center[0])
	assert.Equal(t, float32(1), s.Items[2].Center[1])
	// Ground is never moved.
	assert.Equal(t, [3]float32{0, -100.5, -1}, s.Items[3].Center)

	s.Animate(math.Pi / 2)
	assert.InDelta(t, 1, s.Items[0].Center[0], 1e-6)
	assert.InDelta(t, 0, s.Items[1].Center[0], 1e-6)

	var one Spheres
	require.NoError(t, one.Add(Sphere{Center: [3]float32{5, 5, 5}}))
	one.Animate(0)
	assert.Equal(t, [3]float32{0, 5, 5}, one.Items[0].Center)
	assert.Equal(t, Sphere{}, one.Items[1])
}

func TestGPUSceneLayout(t *testing.T) {
	s := DefaultScene()
	g := s.GPU()

	require.Equal(t, 320, g.Size())
	buf := g.Marshal()
	require.Len(t, buf, 320)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(-0.5), f(0))
	assert.Equal(t, float32(-1), f(8))
	assert.Equal(t, float32(0.5), f(12))
	assert.Equal(t, float32(0.7), f(16))
	assert.Equal(t, float32(1), f(28))
	// Sphere 3 is the ground.
	assert.Equal(t, float32(-100.5), f(3*32+4))
	assert.Equal(t, float32(100), f(3*32+12))
	// Inactive slots are zero.
	for off := 4 * 32; off < 320; off += 4 {
		assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[off:]))
	}
}
