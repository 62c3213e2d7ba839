package driven

import (
	"context"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

// ItemStore persists the item map across restarts.
type ItemStore interface {
	// ListItems returns every stored item, ordered by name.
	ListItems(ctx context.Context) ([]domain.Item, error)

	// ReplaceItems atomically replaces the stored set with items.
	// Items absent from the slice are deleted.
	ReplaceItems(ctx context.Context, items []domain.Item) error
}

// CatalogStateStore persists the catalog snapshot and refresh time.
type CatalogStateStore interface {
	// GetCatalogState returns the stored state.
	// Returns a zero state and no error if nothing has been stored yet.
	GetCatalogState(ctx context.Context) (*domain.CatalogState, error)

	// SaveCatalogState stores the state, replacing any previous value.
	SaveCatalogState(ctx context.Context, state *domain.CatalogState) error
}
