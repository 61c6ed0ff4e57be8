package camera

// CameraController defines planar translation controls for the ray tracing camera.
// The camera always looks down -Z, so panning moves the center along the world axes.
// Pan calls accumulate an offset that is applied to a Camera by Apply, which keeps
// keyboard input off the Camera value the simulation domain mirrors each frame.
type CameraController interface {
	// PanRight queues a translation along +X. Negative delta moves left.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanRight(delta float32)

	// PanUp queues a translation along +Y. Negative delta moves down.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanUp(delta float32)

	// PanForward queues a translation along -Z (toward the scene).
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanForward(delta float32)

	// PanSpeed returns the pan speed multiplier.
	//
	// Returns:
	//   - float32: world units per unit of delta
	PanSpeed() float32

	// Pending reports whether a translation is queued.
	//
	// Returns:
	//   - bool: true if Apply would move the camera
	Pending() bool

	// Apply moves cam by the queued offset and clears it.
	//
	// Parameters:
	//   - cam: the camera to translate
	//
	// Returns:
	//   - bool: true if the camera moved
	Apply(cam *Camera) bool
}
