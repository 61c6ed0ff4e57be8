package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// DefaultPath is the configuration file read when no path is given and the file exists.
const DefaultPath = "~/.config/oxy-trace/config.toml"

// MaxImageSize is the largest image edge, the default WebGPU limit for a 2D texture dimension.
const MaxImageSize = 8192

// Config is the full runtime configuration of the tracer.
type Config struct {
	Image    ImageConfig    `toml:"image"`
	Tile     TileConfig     `toml:"tile"`
	Sampling SamplingConfig `toml:"sampling"`
	Camera   CameraConfig   `toml:"camera"`
	Scene    SceneConfig    `toml:"scene"`
	Engine   EngineConfig   `toml:"engine"`
	Control  ControlConfig  `toml:"control"`
}

// ImageConfig sizes the output image.
type ImageConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// TileConfig sizes the progressive tiles.
type TileConfig struct {
	Size int32 `toml:"size"`
}

// SamplingConfig controls the kernel's stochastic sampling.
type SamplingConfig struct {
	Samples uint32 `toml:"samples"`
	Depth   uint32 `toml:"depth"`
	Seed    uint32 `toml:"seed"`
	// Mode is "shaded" or "normals".
	Mode string `toml:"mode"`
}

// CameraConfig positions the camera.
type CameraConfig struct {
	FocalLength    float32    `toml:"focal_length"`
	ViewportHeight float32    `toml:"viewport_height"`
	Center         [3]float32 `toml:"center"`
	PanSpeed       float32    `toml:"pan_speed"`
}

// SceneConfig selects the sphere table.
type SceneConfig struct {
	// Path is a .toml or .yaml scene file. Empty uses the default scene.
	Path string `toml:"path"`
	// Watch reloads Path whenever it changes.
	Watch bool `toml:"watch"`
	// Animate moves the first spheres while rendering.
	Animate bool `toml:"animate"`
}

// EngineConfig tunes the frame loop and GPU backend.
type EngineConfig struct {
	TickRate  float64 `toml:"tick_rate"`
	Workers   int     `toml:"workers"`
	Profiling bool    `toml:"profiling"`
	// PresentMode is "vsync" or "uncapped".
	PresentMode string `toml:"present_mode"`
	Software    bool   `toml:"software"`
}

// ControlConfig configures the websocket control channel.
type ControlConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Image:    ImageConfig{Width: 512, Height: 512},
		Tile:     TileConfig{Size: 128},
		Sampling: SamplingConfig{Samples: 4, Depth: 8, Mode: "shaded"},
		Camera: CameraConfig{
			FocalLength:    camera.DefaultFocalLength,
			ViewportHeight: camera.DefaultViewportHeight,
			PanSpeed:       camera.DefaultPanSpeed,
		},
		Engine:  EngineConfig{TickRate: 60, Workers: 4, PresentMode: "vsync"},
		Control: ControlConfig{Addr: "127.0.0.1:7878"},
	}
}

// Load reads a TOML file over the defaults and validates the result.
// A leading ~ in path is expanded. Keys missing from the file keep their defaults;
// unknown keys are an error.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the loaded configuration
//   - error: read, decode or ErrInvalidConfig errors
func Load(path string) (Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: expand %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", expanded, err)
	}
	cfg, err := Decode(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", expanded, err)
	}
	return cfg, nil
}

// LoadDefault reads DefaultPath if it exists, otherwise returns the defaults.
//
// Returns:
//   - Config: the configuration
//   - error: decode or validation errors of an existing file
func LoadDefault() (Config, error) {
	expanded, err := homedir.Expand(DefaultPath)
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(expanded); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(expanded)
}

// Decode parses TOML data over the defaults and validates the result.
//
// Parameters:
//   - data: TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: decode errors or ErrInvalidConfig
func Decode(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode serializes the configuration as TOML.
//
// Returns:
//   - []byte: the TOML document
//   - error: encode errors
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks every value the engine depends on.
//
// Returns:
//   - error: ErrInvalidConfig describing every problem found, or nil
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Image.Width > 0 && c.Image.Height > 0, "image size %dx%d must be positive", c.Image.Width, c.Image.Height)
	check(c.Image.Width <= MaxImageSize && c.Image.Height <= MaxImageSize,
		"image size %dx%d exceeds %d", c.Image.Width, c.Image.Height, MaxImageSize)
	check(c.Tile.Size > 0, "tile size %d must be positive", c.Tile.Size)
	if c.Tile.Size > 0 && c.Image.Width > 0 && c.Image.Height > 0 {
		check(int(c.Tile.Size) <= min(c.Image.Width, c.Image.Height), "tile size %d exceeds the image", c.Tile.Size)
	}
	check(c.Sampling.Samples > 0, "samples must be positive")
	check(c.Sampling.Depth > 0, "depth must be positive")
	_, ok := tile.ParseRenderMode(c.Sampling.Mode)
	check(ok, "unknown render mode %q", c.Sampling.Mode)
	check(c.Camera.FocalLength > 0, "focal length must be positive")
	check(c.Camera.ViewportHeight > 0, "viewport height must be positive")
	check(c.Engine.TickRate > 0, "tick rate must be positive")
	check(c.Engine.Workers > 0, "workers must be positive")
	_, ok = ParsePresentMode(c.Engine.PresentMode)
	check(ok, "unknown present mode %q", c.Engine.PresentMode)
	if c.Scene.Path != "" {
		_, err := scene.FormatFromPath(c.Scene.Path)
		check(err == nil, "scene path %q must be .toml, .yaml or .yml", c.Scene.Path)
	}
	check(!c.Scene.Watch || c.Scene.Path != "", "scene.watch needs scene.path")
	check(!c.Control.Enabled || c.Control.Addr != "", "control.addr is required when control is enabled")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ParsePresentMode maps a config name to a renderer.PresentMode.
//
// Parameters:
//   - name: "vsync" or "uncapped"
//
// Returns:
//   - renderer.PresentMode: the mode
//   - bool: false if the name is unknown
func ParsePresentMode(name string) (renderer.PresentMode, bool) {
	switch name {
	case "", "vsync":
		return renderer.PresentModeVSync, true
	case "uncapped":
		return renderer.PresentModeUncapped, true
	}
	return renderer.PresentModeVSync, false
}

// NewCamera builds the configured camera for the configured image.
func (c Config) NewCamera() camera.Camera {
	return camera.New(c.Image.Width, c.Image.Height,
		camera.WithFocalLength(c.Camera.FocalLength),
		camera.WithViewportHeight(c.Camera.ViewportHeight),
		camera.WithCenter(c.Camera.Center[0], c.Camera.Center[1], c.Camera.Center[2]),
	)
}

// NewParams builds the initial params block.
func (c Config) NewParams() tile.Params {
	p := tile.NewParams(c.Tile.Size, c.Sampling.Samples, c.Sampling.Depth, c.Sampling.Seed)
	p.Mode, _ = tile.ParseRenderMode(c.Sampling.Mode)
	return p
}

// LoadScene returns the configured sphere table, or the default scene when no path is set.
//
// Returns:
//   - scene.Spheres: the table
//   - error: scene file errors
func (c Config) LoadScene() (scene.Spheres, error) {
	if c.Scene.Path == "" {
		return scene.DefaultScene(), nil
	}
	path, err := c.ScenePath()
	if err != nil {
		return scene.Spheres{}, err
	}
	return scene.Load(path)
}

// ScenePath returns the scene path with a leading ~ expanded.
func (c Config) ScenePath() (string, error) {
	path, err := homedir.Expand(c.Scene.Path)
	if err != nil {
		return "", fmt.Errorf("config: expand %s: %w", c.Scene.Path, err)
	}
	return path, nil
}

// DispatchConfig returns the dispatch sizes for kernels with the given workgroup edges.
//
// Parameters:
//   - initUnit: the init kernel's workgroup edge
//   - updateUnit: the update kernel's workgroup edge
//
// Returns:
//   - renderer.DispatchConfig: the sizes
func (c Config) DispatchConfig(initUnit, updateUnit uint32) renderer.DispatchConfig {
	return renderer.DispatchConfig{
		Width:      uint32(c.Image.Width),
		Height:     uint32(c.Image.Height),
		TileSize:   uint32(c.Tile.Size),
		InitUnit:   initUnit,
		UpdateUnit: updateUnit,
	}
}
