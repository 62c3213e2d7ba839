package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/catsync/internal/core/ports/driven"
	"github.com/custodia-labs/catsync/internal/logger"
)

// Watcher reports payload changes in a directory on the real filesystem.
type Watcher struct {
	dir string
	ext string

	mu     sync.Mutex
	closed bool
}

var _ driven.PresenceWatcher = (*Watcher)(nil)

// NewWatcher creates a watcher for payloads with ext in dir.
func NewWatcher(dir, ext string) *Watcher {
	return &Watcher{dir: dir, ext: ext}
}

// Watch blocks until ctx is cancelled, calling onChange for every create,
// write, remove or rename of a payload file.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return fmt.Errorf("watcher is closed")
	}

	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("payload directory error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("payload directory error: %s is not a directory", w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				onChange()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Payload watcher error: %v", err)
		}
	}
}

// Close prevents further Watch calls.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// relevant filters out chmod events, hidden files and other extensions.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if base == "" || base[0] == '.' {
		return false
	}
	ext := w.ext
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext == "" || strings.EqualFold(filepath.Ext(base), ext)
}
