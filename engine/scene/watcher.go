package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period a scene file needs before it is reloaded.
const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a scene file whenever it changes on disk. Bursts of change events
// (an editor writing in chunks) coalesce into one reload after the file goes quiet.
type Watcher interface {
	// Run watches until ctx is cancelled. Successfully decoded scenes are delivered on Updates;
	// files that fail to decode are logged and skipped.
	//
	// Parameters:
	//   - ctx: cancels the watch
	//
	// Returns:
	//   - error: nil on cancellation, or a watcher setup error
	Run(ctx context.Context) error

	// Updates returns the channel of reloaded scenes. Only the latest unread scene is kept.
	//
	// Returns:
	//   - <-chan Spheres: reloaded scenes
	Updates() <-chan Spheres

	// Path returns the watched file.
	Path() string
}

type watcherImpl struct {
	path     string
	debounce time.Duration
	updates  chan Spheres

	// watching is closed once the directory watch is registered.
	watching chan struct{}
	loads    atomic.Int64
}

var _ Watcher = &watcherImpl{}

// NewWatcher creates a Watcher for a scene file. The format is validated up front.
//
// Parameters:
//   - path: the scene file to watch
//   - options: functional options
//
// Returns:
//   - Watcher: the watcher
//   - error: ErrUnsupportedFormat for unknown extensions
func NewWatcher(path string, options ...WatcherOption) (Watcher, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scene: resolve %s: %w", path, err)
	}
	w := &watcherImpl{
		path:     abs,
		debounce: defaultDebounce,
		updates:  make(chan Spheres, 1),
		watching: make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	return w, nil
}

func (w *watcherImpl) Path() string {
	return w.path
}

func (w *watcherImpl) Updates() <-chan Spheres {
	return w.updates
}

func (w *watcherImpl) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("scene: create watcher: %w", err)
	}
	defer fw.Close()

	// Editors often save by rename, so watch the directory and filter by name.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("scene: watch %s: %w", w.path, err)
	}
	close(w.watching)
	log := common.Logger().With("component", "scene-watcher", "path", w.path)
	log.Info("watching scene file", "debounce", w.debounce)

	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			quiet.Reset(w.debounce)
		case <-quiet.C:
			w.loads.Add(1)
			s, err := Load(w.path)
			if err != nil {
				log.Warn("scene reload failed", "err", err)
				continue
			}
			log.Info("scene reloaded", "spheres", s.Count)
			w.publish(s)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)
		}
	}
}

// publish replaces any unread scene with s.
func (w *watcherImpl) publish(s Spheres) {
	select {
	case <-w.updates:
	default:
	}
	w.updates <- s
}
