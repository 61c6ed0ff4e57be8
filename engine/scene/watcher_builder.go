package scene

import "time"

// WatcherOption is a functional option for configuring a Watcher.
type WatcherOption func(*watcherImpl)

// WithDebounce sets how long the file must be quiet before it is reloaded.
// Values <= 0 keep the default (100ms).
//
// Parameters:
//   - d: the quiet period after the last change event
//
// Returns:
//   - WatcherOption: functional option to set the debounce period
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *watcherImpl) {
		if d > 0 {
			w.debounce = d
		}
	}
}
