package camera

import "sync"

// DefaultPanSpeed is the pan speed used when WithPanSpeed is not supplied.
const DefaultPanSpeed float32 = 0.05

type cameraControllerImpl struct {
	mu       sync.Mutex
	panSpeed float32
	offset   [3]float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new CameraController with the provided options.
//
// Parameters:
//   - options: variadic list of CameraControllerOption functions
//
// Returns:
//   - CameraController: the configured controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		panSpeed: DefaultPanSpeed,
	}
	for _, opt := range options {
		opt(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) PanRight(delta float32) {
	cc.queue(0, delta)
}

func (cc *cameraControllerImpl) PanUp(delta float32) {
	cc.queue(1, delta)
}

func (cc *cameraControllerImpl) PanForward(delta float32) {
	cc.queue(2, -delta)
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	return cc.panSpeed
}

func (cc *cameraControllerImpl) Pending() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.offset != [3]float32{}
}

func (cc *cameraControllerImpl) Apply(cam *Camera) bool {
	cc.mu.Lock()
	offset := cc.offset
	cc.offset = [3]float32{}
	cc.mu.Unlock()

	if cam == nil || offset == [3]float32{} {
		return false
	}
	cam.Translate(offset)
	return true
}

// queue adds delta*panSpeed to one axis of the pending offset.
func (cc *cameraControllerImpl) queue(axis int, delta float32) {
	cc.mu.Lock()
	cc.offset[axis] += delta * cc.panSpeed
	cc.mu.Unlock()
}
