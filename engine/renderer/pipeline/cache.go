package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateKey is returned when a pipeline key is added twice.
	ErrDuplicateKey = errors.New("pipeline: duplicate key")

	// ErrUnknownKey is returned when a key has no pipeline.
	ErrUnknownKey = errors.New("pipeline: unknown key")
)

// Cache holds pipelines by key. It is safe for concurrent use.
type Cache interface {
	// Add stores a pipeline under its key.
	//
	// Parameters:
	//   - p: the pipeline to add
	//
	// Returns:
	//   - error: ErrDuplicateKey if the key is taken
	Add(p Pipeline) error

	// Get looks up a pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - Pipeline: the pipeline, nil if missing
	//   - bool: true if found
	Get(key string) (Pipeline, bool)

	// State reports the compile state of a pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - CompileState: the compile state
	//   - error: ErrUnknownKey if missing, or the compile error when the state is CompileErr
	State(key string) (CompileState, error)

	// Keys returns every key in sorted order.
	Keys() []string
}

type cache struct {
	mu        sync.RWMutex
	pipelines map[string]Pipeline
}

var _ Cache = &cache{}

// NewCache creates an empty Cache.
func NewCache() Cache {
	return &cache{pipelines: make(map[string]Pipeline)}
}

func (c *cache) Add(p Pipeline) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pipelines[p.PipelineKey()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, p.PipelineKey())
	}
	c.pipelines[p.PipelineKey()] = p
	return nil
}

func (c *cache) Get(key string) (Pipeline, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pipelines[key]
	return p, ok
}

func (c *cache) State(key string) (CompileState, error) {
	p, ok := c.Get(key)
	if !ok {
		return CompileQueued, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	state := p.State()
	if state == CompileErr {
		return state, p.Err()
	}
	return state, nil
}

func (c *cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.pipelines))
	for k := range c.pipelines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
