package services

import (
	"bytes"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/logger"
)

// RefreshCatalog starts a catalog fetch. It is a no-op while one is in flight.
func (e *Engine) RefreshCatalog() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.catalogOp != nil {
		logger.Debug("Catalog refresh already in flight, ignoring trigger")
		return
	}
	e.startCatalogLocked(e.now())
}

// catalogDueLocked reports whether the refresh interval has passed since the
// last attempt. Attempt time, not success time, bounds retries after failures.
func (e *Engine) catalogDueLocked(now time.Time) bool {
	if e.catalogOp != nil {
		return false
	}
	return now.Sub(e.lastCatalogAttempt) >= e.settings.CatalogInterval
}

func (e *Engine) startCatalogLocked(now time.Time) {
	e.lastCatalogAttempt = now

	req := domain.FetchRequest{
		URL:       e.settings.CatalogURL,
		UserAgent: e.settings.UserAgent,
	}
	// Without a snapshot a 304 would leave nothing to replay.
	if e.catalog.HasSnapshot() {
		req.IfModifiedSince = e.catalog.LastRefresh
	}

	op := newPendingOperation("", domain.OperationCatalogRefresh, req, now)
	e.catalogOp = op
	e.launchLocked(op)
}

// drainCatalogLocked applies a completed catalog fetch.
// Returns true if an operation was retired.
func (e *Engine) drainCatalogLocked(now time.Time) bool {
	op := e.catalogOp
	if op == nil {
		return false
	}
	result, ok := op.ready()
	if !ok {
		return false
	}
	e.catalogOp = nil

	switch result.State() {
	case domain.StateSuccess:
		body := result.Response.Body
		records, err := e.parser.ParseCatalog(body)
		if err != nil {
			// The server answered, so the connection is fine, but the
			// previous snapshot stays and the refresh time does not advance.
			logger.Warn("Catalog body rejected (%d bytes): %v", len(body), err)
			e.setHealthyLocked(true)
			return true
		}
		logger.Info("Catalog refreshed: %d records", len(records))
		e.reconcileLocked(records)
		if !bytes.Equal(e.catalog.Snapshot, body) {
			e.catalog.Snapshot = bytes.Clone(body)
		}
		e.catalog.LastRefresh = now
		e.catalogDirty = true
		e.changed = true
		e.setHealthyLocked(true)

	case domain.StateNotModified:
		logger.Debug("Catalog not modified, replaying snapshot")
		if e.catalog.HasSnapshot() {
			records, err := e.parser.ParseCatalog(e.catalog.Snapshot)
			if err != nil {
				logger.Warn("Stored catalog snapshot unreadable: %v", err)
			} else {
				e.reconcileLocked(records)
			}
		}
		e.catalog.LastRefresh = now
		e.catalogDirty = true
		e.setHealthyLocked(true)

	default:
		logger.Warn("Catalog refresh failed: %v", result.Err)
		e.setHealthyLocked(false)
	}
	return true
}

// reconcileLocked merges catalog records into the item map.
// Replaying the same records twice leaves the map unchanged.
func (e *Engine) reconcileLocked(records []domain.CatalogRecord) {
	ext := e.settings.NormalisedExtension()
	inserted, relocated := 0, 0
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		name, ok := domain.NameFromURL(rec.DownloadURL, ext)
		if !ok {
			continue
		}
		// First record wins when names differ only by extension case.
		if seen[name] {
			logger.Debug("Skipping duplicate catalog entry %s", rec.DownloadURL)
			continue
		}
		seen[name] = true

		item, exists := e.items[name]
		if !exists {
			e.insertLocked(domain.Item{
				Name:           name,
				SourceURL:      rec.DownloadURL,
				MetaURL:        rec.MetaURL,
				LocallyPresent: e.payloads.Exists(name),
			})
			inserted++
			continue
		}

		// The catalog is authoritative for location, not for local presence.
		if item.SourceURL != rec.DownloadURL || item.MetaURL != rec.MetaURL {
			item.SourceURL = rec.DownloadURL
			item.MetaURL = rec.MetaURL
			e.markItemsLocked()
			relocated++
		}
	}

	purged := e.purgeOrphansLocked()
	if inserted+relocated+purged > 0 {
		logger.Debug("Reconciled catalog: %d new, %d relocated, %d purged", inserted, relocated, purged)
	}
}
