package services

import (
	"sort"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

// agingPassLocked queues update checks for local items whose last check is
// older than the update interval. Returns the number queued.
func (e *Engine) agingPassLocked(now time.Time) int {
	return e.queueChecksLocked(now, func(item *domain.Item) bool {
		return item.CheckDue(now, e.settings.UpdateInterval)
	})
}

// CheckAllForUpdates queues an update check for every local item,
// ignoring the interval. Items already busy are skipped.
func (e *Engine) CheckAllForUpdates() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.queueChecksLocked(e.now(), func(item *domain.Item) bool {
		return item.LocallyPresent && item.MetaURL != ""
	})
}

func (e *Engine) queueChecksLocked(now time.Time, due func(*domain.Item) bool) int {
	names := make([]string, 0, len(e.items))
	for name, item := range e.items {
		if _, busy := e.pending[name]; busy {
			continue
		}
		if due(item) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	queued := 0
	for _, name := range names {
		if err := e.enqueueLocked(name, domain.OperationUpdateCheck, now); err == nil {
			queued++
		}
	}
	return queued
}
