package scene

import (
	"errors"
	"fmt"
	"math"
)

// MaxSpheres is the fixed capacity of the sphere table shared with the kernel.
const MaxSpheres = 10

var (
	// ErrSceneFull is returned when adding a sphere to a table that already holds MaxSpheres entries.
	ErrSceneFull = errors.New("scene: sphere table is full")
	// ErrSphereIndex is returned when addressing a slot outside the active range.
	ErrSphereIndex = errors.New("scene: sphere index out of range")
)

// Sphere is a single sphere record: position and radius plus a surface color.
// Alpha is carried to the kernel but not used for shading.
type Sphere struct {
	Center [3]float32
	Radius float32
	Color  [3]float32
	Alpha  float32
}

// Spheres is the fixed-capacity sphere table. Only the first Count entries are active;
// the remaining slots are zero and are still uploaded so the GPU layout stays constant.
type Spheres struct {
	Items [MaxSpheres]Sphere
	Count int
}

// DefaultScene returns three small spheres resting on a large ground sphere.
//
// Returns:
//   - Spheres: the default table
func DefaultScene() Spheres {
	var s Spheres
	_ = s.Add(Sphere{Center: [3]float32{-0.5, 0, -1}, Radius: 0.5, Color: [3]float32{0.7, 0.1, 0.1}, Alpha: 1})
	_ = s.Add(Sphere{Center: [3]float32{0.5, 0, -1}, Radius: 0.25, Color: [3]float32{0.1, 0.7, 0.1}, Alpha: 1})
	_ = s.Add(Sphere{Center: [3]float32{0.5, 0, -1}, Radius: 0.25, Color: [3]float32{0.1, 0.1, 0.7}, Alpha: 1})
	_ = s.Add(Sphere{Center: [3]float32{0, -100.5, -1}, Radius: 100, Color: [3]float32{0.5, 0.5, 0.5}, Alpha: 1})
	return s
}

// Add appends a sphere to the table.
//
// Parameters:
//   - sp: the sphere to append
//
// Returns:
//   - error: ErrSceneFull if the table is at capacity
func (s *Spheres) Add(sp Sphere) error {
	if s.Count >= MaxSpheres {
		return ErrSceneFull
	}
	s.Items[s.Count] = sp
	s.Count++
	return nil
}

// Set replaces the active sphere at index i.
//
// Parameters:
//   - i: index in [0, Count)
//   - sp: the replacement sphere
//
// Returns:
//   - error: ErrSphereIndex if i is not an active slot
func (s *Spheres) Set(i int, sp Sphere) error {
	if i < 0 || i >= s.Count {
		return fmt.Errorf("%w: %d (count %d)", ErrSphereIndex, i, s.Count)
	}
	s.Items[i] = sp
	return nil
}

// Remove deletes the active sphere at index i and shifts later entries down.
//
// Parameters:
//   - i: index in [0, Count)
//
// Returns:
//   - error: ErrSphereIndex if i is not an active slot
func (s *Spheres) Remove(i int) error {
	if i < 0 || i >= s.Count {
		return fmt.Errorf("%w: %d (count %d)", ErrSphereIndex, i, s.Count)
	}
	copy(s.Items[i:s.Count], s.Items[i+1:s.Count])
	s.Count--
	s.Items[s.Count] = Sphere{}
	return nil
}

// Clear empties the table.
func (s *Spheres) Clear() {
	*s = Spheres{}
}

// Active returns a copy of the active entries.
func (s *Spheres) Active() []Sphere {
	out := make([]Sphere, s.Count)
	copy(out, s.Items[:s.Count])
	return out
}

// Animate moves the first three spheres along closed paths driven by the accumulated run time.
// Sphere 0 swings on X with sin(t), sphere 1 on X with cos(t) and sphere 2 on Y with cos(t).
// Slots that are not active are left untouched.
//
// Parameters:
//   - t: accumulated run time in seconds
func (s *Spheres) Animate(t float64) {
	sin, cos := float32(math.Sin(t)), float32(math.Cos(t))
	if s.Count > 0 {
		s.Items[0].Center[0] = sin
	}
	if s.Count > 1 {
		s.Items[1].Center[0] = cos
	}
	if s.Count > 2 {
		s.Items[2].Center[1] = cos
	}
}
