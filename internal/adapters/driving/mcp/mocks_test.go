package mcp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driving"
)

// mockEngine is a hand-written driving.SyncEngine for testing.
// Triggered downloads complete on the next Tick.
type mockEngine struct {
	mu          sync.Mutex
	items       map[string]domain.Item
	payloads    map[string]string
	pending     map[string]bool
	refreshing  bool
	healthy     bool
	checkAll    int
	downloadErr error
	notModified map[string]bool
	results     map[string]domain.OperationState
}

var _ driving.SyncEngine = (*mockEngine)(nil)

func newMockEngine(items ...domain.Item) *mockEngine {
	m := &mockEngine{
		items:    make(map[string]domain.Item),
		payloads: make(map[string]string),
		pending:     make(map[string]bool),
		notModified: make(map[string]bool),
		results:     make(map[string]domain.OperationState),
		healthy:     true,
	}
	for _, item := range items {
		m.items[item.Name] = item
	}
	return m
}

func (m *mockEngine) Items() []domain.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.items))
	for name := range m.items {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]domain.Item, 0, len(names))
	for _, name := range names {
		out = append(out, m.items[name])
	}
	return out
}

func (m *mockEngine) Item(name string) (domain.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[name]
	return item, ok
}

func (m *mockEngine) IsBusyDownloading(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[name]
}

func (m *mockEngine) IsCatalogRefreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

func (m *mockEngine) ConnectionHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

func (m *mockEngine) LastResult(name string) domain.OperationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.results[name]; ok {
		return state
	}
	return domain.StateIdle
}

func (m *mockEngine) TriggerDownload(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downloadErr != nil {
		return m.downloadErr
	}
	if _, ok := m.items[name]; !ok {
		return domain.ErrNotFound
	}
	m.pending[name] = true
	return nil
}

func (m *mockEngine) TriggerCatalogRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing = true
}

func (m *mockEngine) TriggerCheckAllForUpdates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkAll++
	n := 0
	for _, item := range m.items {
		if item.LocallyPresent {
			n++
		}
	}
	return n
}

func (m *mockEngine) RemoveLocal(string) error { return nil }

func (m *mockEngine) PayloadPath(name string) string { return "/items/" + name + ".cs" }

func (m *mockEngine) ReadPayload(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[name]; !ok {
		return nil, domain.ErrNotFound
	}
	data, ok := m.payloads[name]
	if !ok {
		return nil, domain.ErrNotLocal
	}
	return []byte(data), nil
}

func (m *mockEngine) Subscribe(func()) func() { return func() {} }

func (m *mockEngine) Tick(context.Context) domain.TickResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result domain.TickResult
	for name := range m.pending {
		delete(m.pending, name)
		if m.notModified[name] {
			m.results[name] = domain.StateNotModified
			result.Completed++
			continue
		}
		m.results[name] = domain.StateSuccess
		item := m.items[name]
		item.LocallyPresent = true
		item.LastDownload = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		m.items[name] = item
		m.payloads[name] = "payload of " + name
		result.Completed++
	}
	if m.refreshing {
		m.refreshing = false
		result.Completed++
	}
	result.Changed = result.Completed > 0
	return result
}

func (m *mockEngine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing || len(m.pending) > 0
}

func (m *mockEngine) RunUntilIdle(ctx context.Context, _ time.Duration) error {
	m.Tick(ctx)
	return nil
}
