package common

// Add3 returns a + b.
//
// Parameters:
//   - a, b: the vectors to add
//
// Returns:
//   - [3]float32: the component-wise sum
func Add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub3 returns a - b.
//
// Parameters:
//   - a, b: the vectors to subtract
//
// Returns:
//   - [3]float32: the component-wise difference
func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Scale3 returns v * s.
//
// Parameters:
//   - v: the vector to scale
//   - s: the scalar factor
//
// Returns:
//   - [3]float32: the scaled vector
func Scale3(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}
