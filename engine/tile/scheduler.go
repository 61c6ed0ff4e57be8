package tile

// Scheduler advances the progressive tile cursor in raster order across an image.
// Tiles are equal-size squares; when the image is not an exact multiple of the tile
// size the last row and column extend past the image and the kernel clamps per pixel.
type Scheduler struct {
	Width  int32
	Height int32
}

// NewScheduler creates a Scheduler for an image of the given size.
//
// Parameters:
//   - width: image width in pixels
//   - height: image height in pixels
//
// Returns:
//   - Scheduler: the scheduler
func NewScheduler(width, height int32) Scheduler {
	return Scheduler{Width: width, Height: height}
}

// TilesPerPass returns the number of tiles in one full sweep of the image.
//
// Parameters:
//   - size: tile edge length in pixels
//
// Returns:
//   - int64: W*H / (size*size), or 0 for a non-positive size
func (s Scheduler) TilesPerPass(size int32) int64 {
	if size <= 0 {
		return 0
	}
	return (int64(s.Width) * int64(s.Height)) / (int64(size) * int64(size))
}

// Advance moves the cursor to the next tile and counts it.
// It does not reset the cursor; call CompletePass once the returned flag is set and
// the final tile has been handed to the render domain.
//
// Parameters:
//   - p: the params block to advance
//
// Returns:
//   - bool: true when every tile of the pass has been advanced to
func (s Scheduler) Advance(p *Params) bool {
	p.X += p.Size
	if p.X >= s.Width {
		p.Y += p.Size
	}
	if s.Width > 0 {
		p.X %= s.Width
	}
	p.Count++
	return int64(p.Count) >= s.TilesPerPass(p.Size)
}

// CompletePass resets the cursor for the next pass and increments the seed exactly once.
//
// Parameters:
//   - p: the params block to reset
func (s Scheduler) CompletePass(p *Params) {
	p.X = -p.Size
	p.Y = 0
	p.Count = 0
	p.Seed++
}

// Tick advances the cursor and immediately completes the pass when the sweep is over.
//
// Parameters:
//   - p: the params block to advance
//
// Returns:
//   - bool: true if this tick completed the pass
func (s Scheduler) Tick(p *Params) bool {
	if !s.Advance(p) {
		return false
	}
	s.CompletePass(p)
	return true
}
