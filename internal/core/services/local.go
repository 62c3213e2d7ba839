package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/logger"
)

// DiscoverLocal rescans local storage. Unknown payloads become items with no
// source; known items get their local presence refreshed.
func (e *Engine) DiscoverLocal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discoverLocalLocked()
}

func (e *Engine) discoverLocalLocked() {
	names, err := e.payloads.List()
	if err != nil {
		logger.Warn("List local payloads: %v", err)
		return
	}

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
		if _, known := e.items[name]; !known {
			e.insertLocked(domain.Item{Name: name, LocallyPresent: true})
			logger.Debug("Discovered local item %s", name)
		}
	}

	for name, item := range e.items {
		if item.LocallyPresent == present[name] {
			continue
		}
		if _, busy := e.pending[name]; busy && !present[name] {
			// A download in flight will set presence when it lands.
			continue
		}
		item.LocallyPresent = present[name]
		e.markItemsLocked()
	}
	e.purgeOrphansLocked()
}

// RemoveLocal deletes the local payload of name. Items without a remote
// source are purged straight away.
func (e *Engine) RemoveLocal(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.items[name]
	if !ok {
		return fmt.Errorf("item %s: %w", name, domain.ErrNotFound)
	}
	if _, busy := e.pending[name]; busy {
		return fmt.Errorf("remove %s: %w", name, domain.ErrAlreadyPending)
	}
	if !item.LocallyPresent {
		return fmt.Errorf("remove %s: %w", name, domain.ErrNotLocal)
	}
	if err := e.payloads.Remove(name); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}

	item.LocallyPresent = false
	item.LastDownload = time.Time{}
	item.UpdateAvailable = false
	e.markItemsLocked()
	e.purgeOrphansLocked()
	logger.Info("Removed local copy of %s", name)
	return nil
}

// PayloadPath returns where name's payload is stored.
func (e *Engine) PayloadPath(name string) string {
	return e.payloads.Path(name)
}

// ReadPayload returns name's local payload.
func (e *Engine) ReadPayload(name string) ([]byte, error) {
	e.mu.RLock()
	item, ok := e.items[name]
	local := ok && item.LocallyPresent
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("item %s: %w", name, domain.ErrNotFound)
	}
	if !local {
		return nil, fmt.Errorf("read %s: %w", name, domain.ErrNotLocal)
	}
	data, err := e.payloads.Read(name)
	if errors.Is(err, domain.ErrNotFound) {
		e.NotifyLocalChange()
		return nil, fmt.Errorf("read %s: %w", name, domain.ErrNotLocal)
	}
	return data, err
}
