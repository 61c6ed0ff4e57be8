package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a scene file encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// ErrUnsupportedFormat is returned for scene files whose extension is not .toml, .yaml or .yml.
var ErrUnsupportedFormat = errors.New("scene: unsupported scene file format")

// sphereRecord is the on-disk shape of one sphere.
// Alpha is optional and defaults to 1.
type sphereRecord struct {
	Center [3]float32 `toml:"center" yaml:"center"`
	Radius float32    `toml:"radius" yaml:"radius"`
	Color  [3]float32 `toml:"color" yaml:"color"`
	Alpha  *float32   `toml:"alpha,omitempty" yaml:"alpha,omitempty"`
}

type sceneFile struct {
	Spheres []sphereRecord `toml:"spheres" yaml:"spheres"`
}

// FormatFromPath picks the encoding from a file extension.
//
// Parameters:
//   - path: the scene file path
//
// Returns:
//   - Format: the detected format
//   - error: ErrUnsupportedFormat for unknown extensions
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Load reads and decodes a scene file.
//
// Parameters:
//   - path: path to a .toml, .yaml or .yml file
//
// Returns:
//   - Spheres: the decoded table
//   - error: read, format, decode or capacity errors
func Load(path string) (Spheres, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Spheres{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Spheres{}, fmt.Errorf("scene: read %s: %w", path, err)
	}
	return Decode(data, format)
}

// Decode parses scene data in the given format.
//
// Parameters:
//   - data: raw file contents
//   - format: the encoding of data
//
// Returns:
//   - Spheres: the decoded table
//   - error: decode errors, or ErrSceneFull if more than MaxSpheres spheres are listed
func Decode(data []byte, format Format) (Spheres, error) {
	var f sceneFile
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatYAML:
		err = yaml.Unmarshal(data, &f)
	default:
		return Spheres{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Spheres{}, fmt.Errorf("scene: decode: %w", err)
	}

	var s Spheres
	for i, rec := range f.Spheres {
		alpha := float32(1)
		if rec.Alpha != nil {
			alpha = *rec.Alpha
		}
		if err := s.Add(Sphere{Center: rec.Center, Radius: rec.Radius, Color: rec.Color, Alpha: alpha}); err != nil {
			return Spheres{}, fmt.Errorf("scene: sphere %d: %w", i, err)
		}
	}
	return s, nil
}

// Encode serializes the active spheres in the given format.
//
// Parameters:
//   - s: the table to encode
//   - format: the target encoding
//
// Returns:
//   - []byte: the encoded document
//   - error: encode errors
func Encode(s Spheres, format Format) ([]byte, error) {
	f := sceneFile{Spheres: make([]sphereRecord, 0, s.Count)}
	for _, sp := range s.Active() {
		alpha := sp.Alpha
		f.Spheres = append(f.Spheres, sphereRecord{Center: sp.Center, Radius: sp.Radius, Color: sp.Color, Alpha: &alpha})
	}
	switch format {
	case FormatTOML:
		return toml.Marshal(f)
	case FormatYAML:
		return yaml.Marshal(f)
	}
	return nil, ErrUnsupportedFormat
}

// Save encodes s into path, choosing the format from the extension.
//
// Parameters:
//   - path: destination file
//   - s: the table to write
//
// Returns:
//   - error: format, encode or write errors
func Save(path string, s Spheres) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(s, format)
	if err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
