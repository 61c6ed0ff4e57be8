package camera

import "github.com/Carmen-Shannon/oxy-trace/common"

// Default viewport parameters used when no option overrides them.
const (
	DefaultFocalLength    float32 = 1.0
	DefaultViewportHeight float32 = 2.0
)

// Camera holds the viewport geometry the kernel uses to generate primary rays.
// All vectors are derived from the image size, focal length and viewport height;
// only the center can be edited afterwards, which re-derives the rest.
//
// Camera is plain data so the simulation domain can hand a full copy to the render domain.
type Camera struct {
	// Width and Height are the output image size in pixels.
	Width  int
	Height int
	// FocalLength is the distance from the center to the viewport plane.
	FocalLength float32
	// ViewportHeight is the height of the viewport in world units.
	ViewportHeight float32

	Center            [3]float32
	ViewportU         [3]float32
	ViewportV         [3]float32
	PixelDeltaU       [3]float32
	PixelDeltaV       [3]float32
	ViewportUpperLeft [3]float32
	Pixel00Loc        [3]float32
}

// New creates a Camera for an image of the given size and derives its geometry.
//
// Parameters:
//   - width: image width in pixels (must be > 0)
//   - height: image height in pixels (must be > 0)
//   - options: functional options overriding focal length, viewport height or center
//
// Returns:
//   - Camera: the derived camera
func New(width, height int, options ...CameraBuilderOption) Camera {
	c := Camera{
		Width:          width,
		Height:         height,
		FocalLength:    DefaultFocalLength,
		ViewportHeight: DefaultViewportHeight,
	}
	for _, opt := range options {
		opt(&c)
	}
	c.derive()
	return c
}

// Aspect returns width / height.
func (c *Camera) Aspect() float32 {
	if c.Height == 0 {
		return 0
	}
	return float32(c.Width) / float32(c.Height)
}

// SetCenter moves the camera and re-derives the viewport.
//
// Parameters:
//   - center: new world-space camera center
func (c *Camera) SetCenter(center [3]float32) {
	c.Center = center
	c.derive()
}

// Translate offsets the camera center by delta and re-derives the viewport.
//
// Parameters:
//   - delta: world-space offset
func (c *Camera) Translate(delta [3]float32) {
	c.SetCenter(common.Add3(c.Center, delta))
}

// derive recomputes every dependent vector from the construction inputs and the center.
func (c *Camera) derive() {
	viewportWidth := c.ViewportHeight * c.Aspect()

	// Vectors across the horizontal and down the vertical viewport edges.
	c.ViewportU = [3]float32{viewportWidth, 0, 0}
	c.ViewportV = [3]float32{0, -c.ViewportHeight, 0}

	if c.Width > 0 && c.Height > 0 {
		c.PixelDeltaU = common.Scale3(c.ViewportU, 1/float32(c.Width))
		c.PixelDeltaV = common.Scale3(c.ViewportV, 1/float32(c.Height))
	} else {
		c.PixelDeltaU = [3]float32{}
		c.PixelDeltaV = [3]float32{}
	}

	upperLeft := common.Sub3(c.Center, [3]float32{0, 0, c.FocalLength})
	upperLeft = common.Sub3(upperLeft, common.Scale3(c.ViewportU, 0.5))
	upperLeft = common.Sub3(upperLeft, common.Scale3(c.ViewportV, 0.5))
	c.ViewportUpperLeft = upperLeft

	c.Pixel00Loc = common.Add3(upperLeft, common.Scale3(common.Add3(c.PixelDeltaU, c.PixelDeltaV), 0.5))
}
