package tile

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCoversImageOncePerPass(t *testing.T) {
	type testCase struct {
		width, height, size int32
	}
	cases := []testCase{
		{512, 512, 128},
		{256, 128, 32},
		{64, 64, 8},
		{1024, 256, 256},
	}

	for index, s := range cases {
		sch := NewScheduler(s.width, s.height)
		p := NewParams(s.size, 4, 8, 0)

		tiles := sch.TilesPerPass(s.size)
		seen := make(map[[2]int32]bool, tiles)
		for i := int64(1); i <= tiles; i++ {
			complete := sch.Advance(&p)
			seen[[2]int32{p.X, p.Y}] = true
			assert.Equal(t, i == tiles, complete, "[case %d] tick %d", index, i)
		}
		require.Len(t, seen, int(tiles), "[case %d] every tile visited exactly once", index)
		for key := range seen {
			assert.True(t, key[0] >= 0 && key[0] < s.width, "[case %d] x %d in bounds", index, key[0])
			assert.True(t, key[1] >= 0 && key[1] < s.height, "[case %d] y %d in bounds", index, key[1])
			assert.Zero(t, key[0]%s.size)
			assert.Zero(t, key[1]%s.size)
		}

		sch.CompletePass(&p)
		assert.Equal(t, int32(0), p.Count)
		assert.Equal(t, uint32(1), p.Seed)
		assert.Equal(t, -s.size, p.X)
		assert.Equal(t, int32(0), p.Y)
	}
}

func TestTickScenario512(t *testing.T) {
	sch := NewScheduler(512, 512)
	p := NewParams(128, 1, 4, 0)
	require.Equal(t, int64(16), sch.TilesPerPass(128))

	completed := 0
	for i := 0; i < 16; i++ {
		if sch.Tick(&p) {
			completed++
			assert.Equal(t, 15, i, "pass completes on the 16th tick")
		}
	}

	assert.Equal(t, 1, completed)
	assert.Equal(t, uint32(1), p.Seed)
	assert.Equal(t, int32(0), p.Count)
	assert.Equal(t, int32(-128), p.X)
	assert.Equal(t, int32(0), p.Y)
}

func TestSeedIncrementsOncePerPass(t *testing.T) {
	sch := NewScheduler(128, 128)
	p := NewParams(64, 1, 1, 7)
	for pass := 0; pass < 5; pass++ {
		for i := 0; i < 4; i++ {
			sch.Tick(&p)
		}
	}
	assert.Equal(t, uint32(12), p.Seed)
}

func TestCountMonotonicWithinPass(t *testing.T) {
	sch := NewScheduler(256, 256)
	p := NewParams(64, 1, 1, 0)
	last := p.Count
	for i := 0; i < 15; i++ {
		sch.Advance(&p)
		assert.Greater(t, p.Count, last)
		last = p.Count
	}
}

func TestTilesPerPassLargeImage(t *testing.T) {
	sch := NewScheduler(65536, 65536)
	assert.Equal(t, int64(1)<<26, sch.TilesPerPass(8), "W*H does not fit in 32 bits")
	assert.Equal(t, int64(0), sch.TilesPerPass(0))
}

func TestNonMultipleTilesExtendPastImage(t *testing.T) {
	sch := NewScheduler(500, 300)
	p := NewParams(128, 1, 1, 0)

	assert.Equal(t, int64(9), sch.TilesPerPass(128))

	for i := 0; i < 4; i++ {
		sch.Advance(&p)
	}
	// Fourth tile starts at x=384 and covers up to 512, past the 500 pixel edge.
	assert.Equal(t, int32(384), p.X)
	assert.Greater(t, p.X+p.Size, sch.Width)

	// The wrap uses x mod width, so the next row starts at 512 % 500.
	sch.Advance(&p)
	assert.Equal(t, int32(12), p.X)
	assert.Equal(t, int32(128), p.Y)
}

func TestRewindKeepsSeed(t *testing.T) {
	p := NewParams(32, 1, 1, 3)
	NewScheduler(128, 128).Advance(&p)
	p.Rewind()
	assert.Equal(t, int32(-32), p.X)
	assert.Equal(t, int32(0), p.Y)
	assert.Equal(t, int32(0), p.Count)
	assert.Equal(t, uint32(3), p.Seed)
}

func TestGPUParamsLayout(t *testing.T) {
	p := Params{Count: 3, Size: 128, X: -128, Y: 256, Seed: 9, Samples: 16, Depth: 8, SphereCount: 4, Mode: RenderModeNormals}
	g := p.GPU()
	require.Equal(t, 48, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, 48)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(128), binary.LittleEndian.Uint32(buf[4:]))
	assert.Equal(t, int32(-128), int32(binary.LittleEndian.Uint32(buf[8:])))
	assert.Equal(t, uint32(256), binary.LittleEndian.Uint32(buf[12:]))
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(buf[16:]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(buf[20:]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(buf[24:]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(buf[28:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[32:]))
	assert.Equal(t, make([]byte, 12), buf[36:])
}

func TestParseRenderMode(t *testing.T) {
	m, ok := ParseRenderMode("normals")
	assert.True(t, ok)
	assert.Equal(t, RenderModeNormals, m)

	m, ok = ParseRenderMode("")
	assert.True(t, ok)
	assert.Equal(t, RenderModeShaded, m)

	_, ok = ParseRenderMode("wireframe")
	assert.False(t, ok)
}
