package source

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"fleet-ops-report/internal/logger"
)

// Watcher invalidates cached file batches when their file changes on disk.
// Parent directories are watched so editors that replace files by rename are
// still noticed.
type Watcher struct {
	cache *Cache
	log   logger.Logger
	w     *fsnotify.Watcher

	mu           sync.RWMutex
	keys         map[string]string // cleaned path -> cache key
	onInvalidate []func(key string)
}

func NewWatcher(cache *Cache, log logger.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("feed watcher: %w", err)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Watcher{cache: cache, log: log, w: w, keys: make(map[string]string)}, nil
}

// Add starts tracking src.
func (fw *Watcher) Add(src *FileSource) error {
	path := filepath.Clean(src.Path())
	if err := fw.w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("feed watcher add %s: %w", path, err)
	}
	fw.mu.Lock()
	fw.keys[path] = src.Key()
	fw.mu.Unlock()
	return nil
}

// OnInvalidate registers a callback invoked after a key is dropped.
func (fw *Watcher) OnInvalidate(fn func(key string)) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.onInvalidate = append(fw.onInvalidate, fn)
}

// Start runs the event loop in the background. Call the returned stop
// function to release the watcher.
func (fw *Watcher) Start() (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case ev, ok := <-fw.w.Events:
				if !ok {
					return
				}
				fw.handle(ev)
			case err, ok := <-fw.w.Errors:
				if !ok {
					return
				}
				fw.log.Warnf("feed watcher: %v", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
			fw.w.Close()
		})
	}
}

func (fw *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	fw.mu.RLock()
	key, ok := fw.keys[filepath.Clean(ev.Name)]
	callbacks := make([]func(string), len(fw.onInvalidate))
	copy(callbacks, fw.onInvalidate)
	fw.mu.RUnlock()
	if !ok {
		return
	}

	fw.cache.Invalidate(key)
	fw.log.Infow("feed changed, cache invalidated", map[string]any{"path": ev.Name, "op": ev.Op.String()})
	for _, fn := range callbacks {
		fn(key)
	}
}
