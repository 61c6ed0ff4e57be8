package tile

// RenderMode selects what the update kernel writes for each pixel.
type RenderMode uint32

const (
	// RenderModeShaded writes the diffuse path traced color.
	RenderModeShaded RenderMode = iota

	// RenderModeNormals writes the surface normal of the first hit, mapped to [0, 1].
	RenderModeNormals
)

// ParseRenderMode maps a config name to a RenderMode.
//
// Parameters:
//   - name: "shaded" or "normals"
//
// Returns:
//   - RenderMode: the parsed mode
//   - bool: false if the name is unknown
func ParseRenderMode(name string) (RenderMode, bool) {
	switch name {
	case "", "shaded":
		return RenderModeShaded, true
	case "normals":
		return RenderModeNormals, true
	default:
		return RenderModeShaded, false
	}
}

// Params is the progressive-render control block. It is owned by the simulation domain,
// advanced by the Scheduler, and uploaded to the kernel every frame.
type Params struct {
	// Count is the number of tiles advanced to in the current pass.
	Count int32
	// Size is the tile edge length in pixels.
	Size int32
	// X is the left edge of the current tile. It starts at -Size before the first tick of a pass.
	X int32
	// Y is the top edge of the current tile.
	Y int32
	// Seed decorrelates stochastic sampling between passes.
	Seed uint32
	// Samples is the number of samples per pixel taken by one update dispatch.
	Samples uint32
	// Depth is the maximum bounce depth.
	Depth uint32
	// SphereCount is the number of active entries in the sphere table.
	SphereCount uint32
	// Mode is the render mode flag.
	Mode RenderMode
}

// NewParams creates a Params block positioned before the first tile of a pass.
//
// Parameters:
//   - size: tile edge length in pixels
//   - samples: samples per pixel
//   - depth: maximum bounce depth
//   - seed: initial pass seed
//
// Returns:
//   - Params: the initialized block
func NewParams(size int32, samples, depth, seed uint32) Params {
	return Params{
		Count:   0,
		Size:    size,
		X:       -size,
		Y:       0,
		Seed:    seed,
		Samples: samples,
		Depth:   depth,
	}
}

// Rewind moves the cursor back before the first tile without touching the seed.
// Used when the run is reset rather than completed.
func (p *Params) Rewind() {
	p.X = -p.Size
	p.Y = 0
	p.Count = 0
}
