package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driving"
)

// mockEngine implements driving.SyncEngine. Queued work completes on Tick.
type mockEngine struct {
	mu sync.Mutex

	items       map[string]domain.Item
	payloads    map[string]string
	pending     map[string]bool
	refreshing  bool
	healthy     bool
	failFetches bool
	failCatalog bool
	notModified map[string]bool
	results     map[string]domain.OperationState
	checked     int
	subs        []func()
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
	out := make([]domain.Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
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
	item, ok := m.items[name]
	if !ok {
		return domain.ErrNotFound
	}
	if item.SourceURL == "" {
		return domain.ErrNoSource
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
	n := 0
	for name, item := range m.items {
		if item.LocallyPresent {
			item.UpdateAvailable = true
			m.items[name] = item
			n++
		}
	}
	m.checked += n
	return n
}

func (m *mockEngine) RemoveLocal(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[name]
	if !ok {
		return domain.ErrNotFound
	}
	if !item.LocallyPresent {
		return domain.ErrNotLocal
	}
	item.LocallyPresent = false
	item.LastDownload = time.Time{}
	m.items[name] = item
	return nil
}

func (m *mockEngine) PayloadPath(name string) string { return "/items/" + name + ".cs" }

func (m *mockEngine) ReadPayload(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.payloads[name]
	if !ok {
		return nil, domain.ErrNotLocal
	}
	return []byte(data), nil
}

func (m *mockEngine) Subscribe(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
	return func() {}
}

func (m *mockEngine) Tick(context.Context) domain.TickResult {
	m.mu.Lock()
	res := domain.TickResult{}
	for name := range m.pending {
		delete(m.pending, name)
		res.Completed++
		if m.failFetches {
			m.results[name] = domain.StateError
			m.healthy = false
			continue
		}
		if m.notModified[name] {
			m.results[name] = domain.StateNotModified
			continue
		}
		m.results[name] = domain.StateSuccess
		item := m.items[name]
		item.LocallyPresent = true
		item.UpdateAvailable = false
		item.LastDownload = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		m.items[name] = item
		m.payloads[name] = "payload of " + name
	}
	if m.refreshing {
		m.refreshing = false
		res.Completed++
		if m.failFetches || m.failCatalog {
			m.healthy = false
		}
	}
	res.Changed = res.Completed > 0
	subs := append([]func(){}, m.subs...)
	m.mu.Unlock()

	if res.Changed {
		for _, fn := range subs {
			fn()
		}
	}
	return res
}

func (m *mockEngine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing || len(m.pending) > 0
}

func (m *mockEngine) RunUntilIdle(ctx context.Context, _ time.Duration) error {
	for {
		m.Tick(ctx)
		if !m.Busy() {
			return nil
		}
	}
}

// mockSettings implements driving.SettingsService over a map.
type mockSettings struct {
	values map[string]string
}

var _ driving.SettingsService = (*mockSettings)(nil)

func newMockSettings(catalogURL string) *mockSettings {
	return &mockSettings{values: map[string]string{
		"catalog.url":       catalogURL,
		"catalog.extension": ".cs",
		"http.token":        "",
		"engine.tick_ms":    "10",
	}}
}

func (m *mockSettings) Get() (*domain.SyncSettings, error) {
	s := domain.DefaultSyncSettings()
	s.CatalogURL = m.values["catalog.url"]
	s.Token = m.values["http.token"]
	s.TickInterval = 10 * time.Millisecond
	return &s, nil
}

func (m *mockSettings) Set(key, value string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettings) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return v, nil
}

func (m *mockSettings) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettings) Validate() error {
	if m.values["catalog.url"] == "" {
		return fmt.Errorf("%w: catalog.url is empty", domain.ErrNotConfigured)
	}
	return nil
}

func (m *mockSettings) GetDefaults() domain.SyncSettings { return domain.DefaultSyncSettings() }

// mockActions implements driving.ActionService.
type mockActions struct {
	output string
	err    error
	ran    []string
}

var _ driving.ActionService = (*mockActions)(nil)

func (m *mockActions) Register(string, domain.Action) error { return nil }
func (m *mockActions) Names() []string                      { return []string{"checksum", "path", "print"} }

func (m *mockActions) Resolve(string) (string, domain.Action, error) { return "print", nil, nil }

func (m *mockActions) Run(_ context.Context, itemName, actionName string) (string, error) {
	m.ran = append(m.ran, itemName+":"+actionName)
	return m.output, m.err
}

// mockScheduler ticks the engine once and returns.
type mockScheduler struct {
	engine  driving.SyncEngine
	started int
	stopped int
}

var _ driving.Scheduler = (*mockScheduler)(nil)

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started++
	m.engine.Tick(ctx)
	return nil
}

func (m *mockScheduler) Stop() error {
	m.stopped++
	return nil
}

func testItems() []domain.Item {
	return []domain.Item{
		{Name: "Alpha", SourceURL: "https://example.com/Alpha.cs", MetaURL: "https://example.com/meta/Alpha"},
		{Name: "ReplaceSelectedObjects", SourceURL: "https://example.com/ReplaceSelectedObjects.cs", LocallyPresent: true,
			LastDownload: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
		{Name: "Orphan", LocallyPresent: true},
	}
}

func newTestServices() (*Services, *mockEngine) {
	engine := newMockEngine(testItems()...)
	return &Services{
		Engine:    engine,
		Settings:  newMockSettings("https://example.com/catalog"),
		Actions:   &mockActions{output: "done"},
		Scheduler: &mockScheduler{engine: engine},
	}, engine
}

// execute runs the root command against s and returns its output.
func execute(t *testing.T, s *Services, args ...string) (string, error) {
	t.Helper()

	SetServices(s)
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		SetServices(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag in the tree to its default between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
