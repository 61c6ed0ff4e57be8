package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p := cfg.NewParams()
	assert.Equal(t, int32(128), p.Size)
	assert.Equal(t, int32(-128), p.X)
	assert.Equal(t, tile.RenderModeShaded, p.Mode)

	cam := cfg.NewCamera()
	assert.Equal(t, 512, cam.Width)
	assert.Equal(t, float32(1), cam.FocalLength)

	assert.Equal(t, renderer.DispatchConfig{Width: 512, Height: 512, TileSize: 128, InitUnit: 8, UpdateUnit: 8}, cfg.DispatchConfig(8, 8))
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode([]byte(`
[image]
width = 640
height = 480

[tile]
size = 64

[sampling]
mode = "normals"

[camera]
center = [0.0, 0.5, 1.0]
`))
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Image.Width)
	assert.Equal(t, 480, cfg.Image.Height)
	assert.Equal(t, int32(64), cfg.Tile.Size)
	assert.Equal(t, uint32(4), cfg.Sampling.Samples, "missing keys keep their defaults")
	assert.Equal(t, tile.RenderModeNormals, cfg.NewParams().Mode)
	assert.Equal(t, [3]float32{0, 0.5, 1}, cfg.NewCamera().Center)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "[image]\ndepth = 3\n"},
		{"zero tile", "[tile]\nsize = 0\n"},
		{"image too large", "[image]\nwidth = 65536\nheight = 65536\n"},
		{"tile larger than image", "[tile]\nsize = 1024\n"},
		{"bad mode", "[sampling]\nmode = \"wireframe\"\n"},
		{"bad present mode", "[engine]\npresent_mode = \"mailbox\"\n"},
		{"watch without path", "[scene]\nwatch = true\n"},
		{"bad scene extension", "[scene]\npath = \"spheres.json\"\n"},
		{"control without addr", "[control]\nenabled = true\naddr = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Decode([]byte("[image\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(`
spheres:
  - center: [0, 0, -1]
    radius: 0.5
    color: [1, 0, 0]
`), 0o644))

	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[scene]\npath = \""+filepath.ToSlash(scenePath)+"\"\nanimate = true\n"), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.True(t, cfg.Scene.Animate)

	s, err := cfg.LoadScene()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, float32(1), s.Items[0].Alpha)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeIsLoadable(t *testing.T) {
	data, err := Default().Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "[image]")
	assert.Contains(t, string(data), "present_mode")

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Default().Image, got.Image)
	assert.Equal(t, Default().Engine, got.Engine)
}

func TestParsePresentMode(t *testing.T) {
	m, ok := ParsePresentMode("uncapped")
	assert.True(t, ok)
	assert.Equal(t, renderer.PresentModeUncapped, m)

	_, ok = ParsePresentMode("fifo")
	assert.False(t, ok)
}
