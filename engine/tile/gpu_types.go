package tile

import (
	"encoding/binary"
	"unsafe"
)

// GPUParams is the GPU-aligned representation of the Params uniform block.
// Matches the WGSL Params struct in the tracer kernel exactly.
// Size: 48 bytes (nine 4-byte scalars padded to a 16-byte multiple).
type GPUParams struct {
	Count       int32     // offset  0
	TileSize    int32     // offset  4
	X           int32     // offset  8
	Y           int32     // offset 12
	Seed        uint32    // offset 16
	Samples     uint32    // offset 20
	Depth       uint32    // offset 24
	SphereCount uint32    // offset 28
	Mode        uint32    // offset 32
	_pad        [3]uint32 // offset 36: padding to 48 bytes
}

// GPU converts Params into its GPU layout.
//
// Returns:
//   - GPUParams: the uniform block
func (p Params) GPU() GPUParams {
	return GPUParams{
		Count:       p.Count,
		TileSize:    p.Size,
		X:           p.X,
		Y:           p.Y,
		Seed:        p.Seed,
		Samples:     p.Samples,
		Depth:       p.Depth,
		SphereCount: p.SphereCount,
		Mode:        uint32(p.Mode),
	}
}

// Size returns the size of the GPUParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized 48-byte buffer
func (g *GPUParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], uint32(g.Count))
	binary.LittleEndian.PutUint32(buf[4:], uint32(g.TileSize))
	binary.LittleEndian.PutUint32(buf[8:], uint32(g.X))
	binary.LittleEndian.PutUint32(buf[12:], uint32(g.Y))
	binary.LittleEndian.PutUint32(buf[16:], g.Seed)
	binary.LittleEndian.PutUint32(buf[20:], g.Samples)
	binary.LittleEndian.PutUint32(buf[24:], g.Depth)
	binary.LittleEndian.PutUint32(buf[28:], g.SphereCount)
	binary.LittleEndian.PutUint32(buf[32:], g.Mode)
	// bytes 36..47 stay zero (_pad)
	return buf
}
