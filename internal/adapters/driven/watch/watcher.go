// Package watch monitors a drop directory for new document batch files.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/coursetta-labs/coursetta/internal/logger"
)

// Default settings for the drop-dir watcher.
const (
	DefaultDebounce = 500 * time.Millisecond
)

// defaultExtensions are the batch file types picked up from the drop dir.
var defaultExtensions = []string{".json"}

// Watcher emits the paths of batch files created or rewritten in a
// watched directory. Editors and sync tools write files in bursts, so
// events for the same path are debounced before being emitted.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	debounce   time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExtensions sets the file extensions that trigger events.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// WithDebounce sets the quiet period before a path is emitted.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a drop-dir watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:    fsw,
		extensions: defaultExtensions,
		debounce:   DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts monitoring dir and returns a channel of settled file
// paths. The channel closes when ctx is cancelled or the watcher stops.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	paths := make(chan string, 16)

	go func() {
		defer close(paths)

		pending := make(map[string]time.Time)
		ticker := time.NewTicker(w.debounce / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					delete(pending, event.Name)
					continue
				}
				pending[event.Name] = time.Now()

			case now := <-ticker.C:
				for path, last := range pending {
					if now.Sub(last) < w.debounce {
						continue
					}
					delete(pending, path)
					select {
					case paths <- path:
					case <-ctx.Done():
						return
					}
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch: %v", err)
			}
		}
	}()

	return paths, nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
