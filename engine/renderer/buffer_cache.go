package renderer

import (
	"errors"
	"fmt"
	"sync"
)

// BufferKind identifies one of the uniform buffers the tracer kernel reads.
// The value is the buffer's binding index in group 0.
type BufferKind int

const (
	BufferParams BufferKind = 1
	BufferCamera BufferKind = 2
	BufferScene  BufferKind = 3
)

func (k BufferKind) String() string {
	switch k {
	case BufferParams:
		return "params"
	case BufferCamera:
		return "camera"
	case BufferScene:
		return "scene"
	default:
		return fmt.Sprintf("BufferKind(%d)", int(k))
	}
}

// BufferHandle refers to an allocated buffer of a fixed size.
type BufferHandle struct {
	Kind BufferKind
	Size uint64
}

var (
	// ErrBufferSizeMismatch is returned when a buffer kind is requested again with a different size.
	ErrBufferSizeMismatch = errors.New("renderer: buffer size mismatch")

	// ErrUnknownBuffer is returned when writing through a handle the cache did not allocate.
	ErrUnknownBuffer = errors.New("renderer: unknown buffer")

	// ErrWriteSize is returned when a write does not cover the whole buffer.
	ErrWriteSize = errors.New("renderer: write size does not match buffer size")
)

// BufferAllocator is the part of the backend the buffer cache drives.
type BufferAllocator interface {
	CreateBuffer(kind BufferKind, size uint64) error
	WriteBuffer(kind BufferKind, data []byte) error
}

// BufferCache lazily allocates one GPU buffer per kind and uploads full byte images into it.
type BufferCache interface {
	// EnsureBuffer returns the buffer for kind, allocating exactly size bytes on first use.
	//
	// Parameters:
	//   - kind: the buffer kind
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - BufferHandle: the handle for writes
	//   - error: ErrBufferSizeMismatch if kind exists with another size, or a backend allocation error
	EnsureBuffer(kind BufferKind, size uint64) (BufferHandle, error)

	// Write uploads data covering the whole buffer.
	//
	// Parameters:
	//   - h: a handle from EnsureBuffer
	//   - data: the full byte image, len(data) must equal h.Size
	//
	// Returns:
	//   - error: ErrUnknownBuffer, ErrWriteSize, or a backend write error
	Write(h BufferHandle, data []byte) error

	// Len returns the number of allocated buffers.
	Len() int
}

type bufferCache struct {
	mu      sync.Mutex
	backend BufferAllocator
	sizes   map[BufferKind]uint64
}

var _ BufferCache = &bufferCache{}

// NewBufferCache creates an empty BufferCache over a backend.
//
// Parameters:
//   - backend: the allocator that owns the GPU buffers
//
// Returns:
//   - BufferCache: the cache
func NewBufferCache(backend BufferAllocator) BufferCache {
	return &bufferCache{
		backend: backend,
		sizes:   make(map[BufferKind]uint64),
	}
}

func (c *bufferCache) EnsureBuffer(kind BufferKind, size uint64) (BufferHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.sizes[kind]; ok {
		if existing != size {
			return BufferHandle{}, fmt.Errorf("%w: %s has %d bytes, requested %d", ErrBufferSizeMismatch, kind, existing, size)
		}
		return BufferHandle{Kind: kind, Size: size}, nil
	}

	if err := c.backend.CreateBuffer(kind, size); err != nil {
		return BufferHandle{}, fmt.Errorf("renderer: create %s buffer: %w", kind, err)
	}
	c.sizes[kind] = size
	return BufferHandle{Kind: kind, Size: size}, nil
}

func (c *bufferCache) Write(h BufferHandle, data []byte) error {
	c.mu.Lock()
	size, ok := c.sizes[h.Kind]
	c.mu.Unlock()

	if !ok || size != h.Size {
		return fmt.Errorf("%w: %s", ErrUnknownBuffer, h.Kind)
	}
	if uint64(len(data)) != size {
		return fmt.Errorf("%w: %s has %d bytes, got %d", ErrWriteSize, h.Kind, size, len(data))
	}
	if err := c.backend.WriteBuffer(h.Kind, data); err != nil {
		return fmt.Errorf("renderer: write %s buffer: %w", h.Kind, err)
	}
	return nil
}

func (c *bufferCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sizes)
}
