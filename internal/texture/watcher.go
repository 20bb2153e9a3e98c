package texture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cache entries when their files change on disk and
// reports the change. Directories are watched rather than files so that
// editors that replace files on save are still seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	cache    *Cache
	onChange func(path string)
	log      *slog.Logger

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
}

// NewWatcher creates a watcher for cache. onChange runs on the watcher
// goroutine after the entry has been invalidated.
func NewWatcher(cache *Cache, onChange func(path string), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("texture: watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fs:       fw,
		cache:    cache,
		onChange: onChange,
		log:      logger,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}, nil
}

// Track starts watching the file behind ref. Uploads and unknown
// references are ignored.
func (w *Watcher) Track(ref string) error {
	path, ok := w.cache.Path(ref)
	if !ok {
		return nil
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[path] {
		return nil
	}
	if !w.dirs[dir] {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("texture: watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[path] = true
	return nil
}

// Run dispatches file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			path := filepath.Clean(ev.Name)
			w.mu.Lock()
			tracked := w.files[path]
			w.mu.Unlock()
			if !tracked {
				continue
			}
			w.cache.InvalidatePath(path)
			w.log.Debug("texture: asset changed", "path", path, "op", ev.Op.String())
			if w.onChange != nil {
				w.onChange(path)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("texture: watcher error", "err", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
