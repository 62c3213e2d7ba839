package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/catsync/internal/connectors/filesystem"
	"github.com/custodia-labs/catsync/internal/connectors/github"
	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
)

const (
	testCatalogURL = "https://api.test/repos/o/r/contents/items"
	testItemsDir   = "/items"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// --- Mock implementations for engine testing ---

type reply struct {
	body string
	err  error
}

// mockFetcher answers from a URL table. With a gate set, every Fetch
// waits for one receive on it before answering.
type mockFetcher struct {
	mu       sync.Mutex
	replies  map[string]reply
	requests []domain.FetchRequest
	gate     chan struct{}
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{replies: make(map[string]reply)}
}

func (f *mockFetcher) set(url string, r reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[url] = r
}

func (f *mockFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrTransportFailure, ctx.Err())
		}
	}

	f.mu.Lock()
	r, ok := f.replies[req.URL]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("GET %s: 404: %w", req.URL, domain.ErrUnexpectedStatus)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &domain.FetchResponse{StatusCode: 200, Body: []byte(r.body)}, nil
}

func (f *mockFetcher) requestsFor(url string) []domain.FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FetchRequest
	for _, r := range f.requests {
		if r.URL == url {
			out = append(out, r)
		}
	}
	return out
}

var _ driven.Fetcher = (*mockFetcher)(nil)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// engineFixture bundles an engine with its collaborators.
type engineFixture struct {
	engine   *Engine
	fetcher  *mockFetcher
	clock    *fakeClock
	fs       afero.Fs
	payloads *filesystem.PayloadStore
	items    *memory.ItemStore
	catalog  *memory.CatalogStateStore
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	payloads, err := filesystem.NewPayloadStore(fs, testItemsDir, ".cs")
	require.NoError(t, err)

	settings := domain.DefaultSyncSettings()
	settings.CatalogURL = testCatalogURL

	f := &engineFixture{
		fetcher:  newMockFetcher(),
		clock:    &fakeClock{now: t0},
		fs:       fs,
		payloads: payloads,
		items:    memory.NewItemStore(),
		catalog:  memory.NewCatalogStateStore(),
	}
	f.engine = NewEngine(settings, f.fetcher, github.NewCatalogParser(), payloads, f.items, f.catalog)
	f.engine.now = f.clock.Now
	t.Cleanup(func() { _ = f.engine.Close() })
	return f
}

// load runs Engine.Load against the fixture stores.
func (f *engineFixture) load(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.Load(context.Background()))
}

// writeLocal places a payload on the in-memory filesystem.
func (f *engineFixture) writeLocal(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, f.payloads.Write(name, []byte(content)))
}

// waitPublished blocks until every in-flight operation has a result.
func (f *engineFixture) waitPublished(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.engine.mu.RLock()
		defer f.engine.mu.RUnlock()
		if op := f.engine.catalogOp; op != nil {
			if _, ok := op.ready(); !ok {
				return false
			}
		}
		for _, op := range f.engine.pending {
			if _, ok := op.ready(); !ok {
				return false
			}
		}
		return true
	}, time.Second, time.Millisecond)
}

// tick waits for in-flight results then runs one tick.
func (f *engineFixture) tick(t *testing.T) domain.TickResult {
	t.Helper()
	f.waitPublished(t)
	return f.engine.Tick(context.Background())
}

func (f *engineFixture) item(t *testing.T, name string) domain.Item {
	t.Helper()
	item, ok := f.engine.Item(name)
	require.True(t, ok, "item %s missing", name)
	return item
}

func catalogBody(entries ...string) string {
	body := "["
	for i, name := range entries {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(
			`{"name":%q,"path":"items/%s","type":"file","sha":"abc","size":10,"download_url":"https://raw.test/items/%s","url":"https://api.test/contents/items/%s"}`,
			name, name, name, name)
	}
	return body + "]"
}

func rawURL(file string) string  { return "https://raw.test/items/" + file }
func metaURL(file string) string { return "https://api.test/contents/items/" + file }

func notModified() reply {
	return reply{err: fmt.Errorf("GET: 304: %w", domain.ErrNotModified)}
}

func transportFailure() reply {
	return reply{err: fmt.Errorf("dial tcp: connection refused: %w", domain.ErrTransportFailure)}
}
