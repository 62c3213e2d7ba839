package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.ItemStore         = (*ItemStore)(nil)
	_ driven.CatalogStateStore = (*CatalogStateStore)(nil)
)

// ItemStore is an in-memory implementation of driven.ItemStore.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string]domain.Item
}

// NewItemStore creates a new in-memory item store.
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string]domain.Item),
	}
}

// ListItems returns every stored item, ordered by name.
func (s *ItemStore) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// ReplaceItems replaces the stored set with items.
func (s *ItemStore) ReplaceItems(_ context.Context, items []domain.Item) error {
	next := make(map[string]domain.Item, len(items))
	for _, item := range items {
		if item.Name == "" {
			return fmt.Errorf("%w: item without name", domain.ErrInvalidInput)
		}
		if _, dup := next[item.Name]; dup {
			return fmt.Errorf("item %s: %w", item.Name, domain.ErrAlreadyExists)
		}
		next[item.Name] = item
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = next
	return nil
}

// CatalogStateStore is an in-memory implementation of driven.CatalogStateStore.
type CatalogStateStore struct {
	mu    sync.RWMutex
	state domain.CatalogState
}

// NewCatalogStateStore creates a new in-memory catalog state store.
func NewCatalogStateStore() *CatalogStateStore {
	return &CatalogStateStore{}
}

// GetCatalogState returns a copy of the stored state.
func (s *CatalogStateStore) GetCatalogState(_ context.Context) (*domain.CatalogState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &domain.CatalogState{
		Snapshot:    bytes.Clone(s.state.Snapshot),
		LastRefresh: s.state.LastRefresh,
	}, nil
}

// SaveCatalogState stores a copy of state.
func (s *CatalogStateStore) SaveCatalogState(_ context.Context, state *domain.CatalogState) error {
	if state == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.CatalogState{
		Snapshot:    bytes.Clone(state.Snapshot),
		LastRefresh: state.LastRefresh,
	}
	return nil
}
