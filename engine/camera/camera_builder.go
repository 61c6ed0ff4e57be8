package camera

// CameraBuilderOption is a functional option applied to a Camera before its geometry is derived.
type CameraBuilderOption func(*Camera)

// WithFocalLength sets the distance from the camera center to the viewport plane.
//
// Parameters:
//   - focalLength: focal length in world units
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFocalLength(focalLength float32) CameraBuilderOption {
	return func(c *Camera) {
		if focalLength > 0 {
			c.FocalLength = focalLength
		}
	}
}

// WithViewportHeight sets the viewport height in world units. The width follows from the aspect ratio.
//
// Parameters:
//   - height: viewport height in world units
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithViewportHeight(height float32) CameraBuilderOption {
	return func(c *Camera) {
		if height > 0 {
			c.ViewportHeight = height
		}
	}
}

// WithCenter sets the initial camera center.
//
// Parameters:
//   - x, y, z: world-space center
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithCenter(x, y, z float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Center = [3]float32{x, y, z}
	}
}
