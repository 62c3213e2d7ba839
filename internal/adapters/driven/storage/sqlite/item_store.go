package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
)

// ==================== Item Store ====================

// itemStore implements driven.ItemStore.
type itemStore struct {
	store *Store
}

var _ driven.ItemStore = (*itemStore)(nil)

// ListItems returns every stored item, ordered by name.
func (s *itemStore) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT name, source_url, meta_url, last_download, last_update_check,
		       update_available, locally_present
		FROM items
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var (
			item                     domain.Item
			sourceURL, metaURL       sql.NullString
			lastDownload, lastCheck  sql.NullString
			updateAvailable, present int
		)
		if err := rows.Scan(&item.Name, &sourceURL, &metaURL, &lastDownload, &lastCheck,
			&updateAvailable, &present); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.SourceURL = sourceURL.String
		item.MetaURL = metaURL.String
		if item.LastDownload, err = parseNullableTime(lastDownload); err != nil {
			return nil, fmt.Errorf("item %s last_download: %w", item.Name, err)
		}
		if item.LastUpdateCheck, err = parseNullableTime(lastCheck); err != nil {
			return nil, fmt.Errorf("item %s last_update_check: %w", item.Name, err)
		}
		item.UpdateAvailable = updateAvailable != 0
		item.LocallyPresent = present != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceItems atomically replaces the stored set with items.
func (s *itemStore) ReplaceItems(ctx context.Context, items []domain.Item) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (name, source_url, meta_url, last_download, last_update_check,
		                   update_available, locally_present)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		item := &items[i]
		if item.Name == "" {
			return fmt.Errorf("%w: item without name", domain.ErrInvalidInput)
		}
		_, err := stmt.ExecContext(ctx,
			item.Name,
			nullString(item.SourceURL),
			nullString(item.MetaURL),
			formatNullableTime(item.LastDownload),
			formatNullableTime(item.LastUpdateCheck),
			boolToInt(item.UpdateAvailable),
			boolToInt(item.LocallyPresent),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("item %s: %w", item.Name, domain.ErrAlreadyExists)
			}
			return fmt.Errorf("inserting item %s: %w", item.Name, err)
		}
	}

	return tx.Commit()
}

// ==================== Catalog State Store ====================

// catalogStateStore implements driven.CatalogStateStore.
// The state is a single row with id = 1.
type catalogStateStore struct {
	store *Store
}

var _ driven.CatalogStateStore = (*catalogStateStore)(nil)

// GetCatalogState returns the stored state, or a zero state.
func (s *catalogStateStore) GetCatalogState(ctx context.Context) (*domain.CatalogState, error) {
	var (
		snapshot    []byte
		lastRefresh sql.NullString
	)
	err := s.store.db.QueryRowContext(ctx,
		"SELECT snapshot, last_refresh FROM catalog_state WHERE id = 1",
	).Scan(&snapshot, &lastRefresh)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.CatalogState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying catalog state: %w", err)
	}

	refreshed, err := parseNullableTime(lastRefresh)
	if err != nil {
		return nil, fmt.Errorf("catalog last_refresh: %w", err)
	}
	return &domain.CatalogState{Snapshot: snapshot, LastRefresh: refreshed}, nil
}

// SaveCatalogState stores the state, replacing any previous value.
func (s *catalogStateStore) SaveCatalogState(ctx context.Context, state *domain.CatalogState) error {
	if state == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO catalog_state (id, snapshot, last_refresh) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, last_refresh = excluded.last_refresh
	`, state.Snapshot, formatNullableTime(state.LastRefresh))
	if err != nil {
		return fmt.Errorf("saving catalog state: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// formatNullableTime formats a time as RFC3339Nano UTC, or nil if zero.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseNullableTime parses a nullable RFC3339Nano string.
// NULL and empty strings are the zero time.
func parseNullableTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s.String)
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
