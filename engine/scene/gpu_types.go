package scene

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSphere is the GPU-aligned representation of one sphere record.
// Size: 32 bytes.
type GPUSphere struct {
	CenterRadius [4]float32 // offset  0: xyz = center, w = radius
	ColorAlpha   [4]float32 // offset 16: rgb = color, a = alpha
}

// GPUScene is the GPU-aligned sphere table bound as the Scene uniform block.
// Inactive slots are zero.
// Size: 320 bytes.
type GPUScene struct {
	Spheres [MaxSpheres]GPUSphere
}

// GPU converts the sphere table into its GPU layout.
//
// Returns:
//   - GPUScene: the uniform block
func (s Spheres) GPU() GPUScene {
	var g GPUScene
	for i := 0; i < s.Count && i < MaxSpheres; i++ {
		sp := s.Items[i]
		g.Spheres[i] = GPUSphere{
			CenterRadius: [4]float32{sp.Center[0], sp.Center[1], sp.Center[2], sp.Radius},
			ColorAlpha:   [4]float32{sp.Color[0], sp.Color[1], sp.Color[2], sp.Alpha},
		}
	}
	return g
}

// Size returns the size of the GPUScene struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (320)
func (g *GPUScene) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUScene struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized 320-byte buffer
func (g *GPUScene) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, sp := range g.Spheres {
		base := i * 32
		for j := range 4 {
			binary.LittleEndian.PutUint32(buf[base+j*4:], math.Float32bits(sp.CenterRadius[j]))
			binary.LittleEndian.PutUint32(buf[base+16+j*4:], math.Float32bits(sp.ColorAlpha[j]))
		}
	}
	return buf
}
