// Package watcher re-triggers work when scene files change on disk.
package watcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// DefaultDebounce collapses the burst of events an editor produces on save
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a set of files and reports changes after a quiet period.
// The parent directories are watched so that editors that save by renaming a
// temporary file over the original are still seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   core.Logger

	mu    sync.Mutex
	files map[string]bool
}

// New creates a watcher. A nil logger discards watcher errors.
func New(debounce time.Duration, logger core.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		logger:   logger,
		files:    make(map[string]bool),
	}, nil
}

// Add starts watching the given files
func (w *Watcher) Add(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		if err := w.fsw.Add(filepath.Dir(absPath)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", absPath, err)
		}
		w.files[absPath] = true
	}
	return nil
}

// Run delivers debounced changes to onChange until ctx is cancelled or the
// watcher is closed. onChange runs on the calling goroutine, so a slow
// callback never overlaps with the next one.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	fire := make(chan string, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			name := filepath.Clean(event.Name)
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- name:
				default: // A change is already pending
				}
			})

		case path := <-fire:
			onChange(path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("Watcher error: %v\n", err)
		}
	}
}

// relevant reports whether event writes or replaces a watched file
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	absPath, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[absPath]
}

// Close stops the watcher; a running Run call returns
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
