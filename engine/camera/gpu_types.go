package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCamera is the GPU-aligned representation of the Camera uniform block.
// Every vec3<f32> is followed by one padding word so each field starts on a 16-byte boundary.
// Size: 112 bytes.
type GPUCamera struct {
	CameraCenter      [3]float32 // offset   0
	_pad0             uint32     // offset  12
	ViewportU         [3]float32 // offset  16
	_pad1             uint32     // offset  28
	ViewportV         [3]float32 // offset  32
	_pad2             uint32     // offset  44
	PixelDeltaU       [3]float32 // offset  48
	_pad3             uint32     // offset  60
	PixelDeltaV       [3]float32 // offset  64
	_pad4             uint32     // offset  76
	ViewportUpperLeft [3]float32 // offset  80
	_pad5             uint32     // offset  92
	Pixel00Loc        [3]float32 // offset  96
	_pad6             uint32     // offset 108
}

// GPU converts the Camera into its GPU layout.
//
// Returns:
//   - GPUCamera: the uniform block
func (c Camera) GPU() GPUCamera {
	return GPUCamera{
		CameraCenter:      c.Center,
		ViewportU:         c.ViewportU,
		ViewportV:         c.ViewportV,
		PixelDeltaU:       c.PixelDeltaU,
		PixelDeltaV:       c.PixelDeltaV,
		ViewportUpperLeft: c.ViewportUpperLeft,
		Pixel00Loc:        c.Pixel00Loc,
	}
}

// Size returns the size of the GPUCamera struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUCamera) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCamera struct into a byte buffer suitable for GPU upload.
// Padding words are written as zero.
//
// Returns:
//   - []byte: the serialized 112-byte buffer
func (g *GPUCamera) Marshal() []byte {
	buf := make([]byte, g.Size())
	fields := [7][3]float32{
		g.CameraCenter,
		g.ViewportU,
		g.ViewportV,
		g.PixelDeltaU,
		g.PixelDeltaV,
		g.ViewportUpperLeft,
		g.Pixel00Loc,
	}
	for f, v := range fields {
		base := f * 16
		for i := range 3 {
			binary.LittleEndian.PutUint32(buf[base+i*4:], math.Float32bits(v[i]))
		}
		binary.LittleEndian.PutUint32(buf[base+12:], 0) // _pad
	}
	return buf
}
