package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/logger"
)

// Enqueue starts a download or update check for name.
// At most one operation per item is in flight, whatever its kind.
func (e *Engine) Enqueue(name string, kind domain.OperationKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enqueueLocked(name, kind, e.now())
}

func (e *Engine) enqueueLocked(name string, kind domain.OperationKind, now time.Time) error {
	if !kind.IsItemKind() {
		return fmt.Errorf("%w: operation kind %q", domain.ErrInvalidInput, kind)
	}
	if existing, busy := e.pending[name]; busy {
		logger.Debug("Rejected %s for %s: %s already pending", kind, name, existing.kind)
		return fmt.Errorf("%s %s: %w", kind, name, domain.ErrAlreadyPending)
	}

	item, ok := e.items[name]
	if !ok {
		return fmt.Errorf("item %s: %w", name, domain.ErrNotFound)
	}
	target := item.TargetURL(kind)
	if target == "" {
		return fmt.Errorf("%s %s: %w", kind, name, domain.ErrNoSource)
	}

	op := newPendingOperation(name, kind, domain.FetchRequest{
		URL:             target,
		IfModifiedSince: item.LastDownload,
		UserAgent:       e.settings.UserAgent,
	}, now)
	e.pending[name] = op
	e.launchLocked(op)
	return nil
}

// drainQueueLocked retires every completed operation and applies its result.
func (e *Engine) drainQueueLocked(now time.Time) int {
	retired := 0
	for name, op := range e.pending {
		result, ok := op.ready()
		if !ok {
			continue
		}
		delete(e.pending, name)
		retired++

		item, exists := e.items[name]
		if !exists {
			logger.Debug("Dropping %s result for removed item %s", op.kind, name)
			continue
		}
		e.applyLocked(item, op, result, now)
	}
	return retired
}

// applyLocked updates item for a completed operation.
// LastUpdateCheck advances on every completed attempt, success or not.
func (e *Engine) applyLocked(item *domain.Item, op *pendingOperation, result *domain.FetchResult, now time.Time) {
	state := result.State()
	e.lastResults[item.Name] = state

	switch state {
	case domain.StateSuccess:
		if op.kind == domain.OperationDownload {
			if err := e.payloads.Write(item.Name, result.Response.Body); err != nil {
				logger.Warn("Write payload for %s failed: %v", item.Name, err)
				e.lastResults[item.Name] = domain.StateError
				item.LastUpdateCheck = now
				e.setHealthyLocked(true)
				break
			}
			item.LastDownload = now
			item.LastUpdateCheck = now
			item.UpdateAvailable = false
			item.LocallyPresent = true
			logger.Info("Downloaded %s (%d bytes)", item.Name, len(result.Response.Body))
		} else {
			item.UpdateAvailable = true
			item.LastUpdateCheck = now
			logger.Info("Update available for %s", item.Name)
		}
		e.setHealthyLocked(true)

	case domain.StateNotModified:
		item.LastUpdateCheck = now
		if op.kind == domain.OperationUpdateCheck {
			item.UpdateAvailable = false
		}
		logger.Debug("%s %s: not modified", op.kind, item.Name)
		e.setHealthyLocked(true)

	default:
		item.LastUpdateCheck = now
		logger.Warn("%s %s failed: %v", op.kind, item.Name, result.Err)
		e.setHealthyLocked(false)
	}
	e.markItemsLocked()
}
