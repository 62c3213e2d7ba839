package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
)

func seedItems(t *testing.T, f *engineFixture, items ...domain.Item) {
	t.Helper()
	require.NoError(t, f.items.ReplaceItems(context.Background(), items))
}

func suppressCatalog(f *engineFixture) {
	f.engine.lastCatalogAttempt = f.clock.Now()
}

func TestEngine_FirstCatalogFetch(t *testing.T) {
	f := newEngineFixture(t)
	f.fetcher.set(testCatalogURL, reply{body: catalogBody("Foo.cs")})
	f.load(t)

	first := f.engine.Tick(context.Background())
	assert.Equal(t, 1, first.Started)
	assert.True(t, f.engine.IsCatalogRefreshing())

	second := f.tick(t)
	assert.Equal(t, 1, second.Completed)
	assert.True(t, second.Changed)
	assert.False(t, f.engine.IsCatalogRefreshing())

	items := f.engine.Items()
	require.Len(t, items, 1)
	foo := items[0]
	assert.Equal(t, "Foo", foo.Name)
	assert.Equal(t, rawURL("Foo.cs"), foo.SourceURL)
	assert.Equal(t, metaURL("Foo.cs"), foo.MetaURL)
	assert.False(t, foo.LocallyPresent)
	assert.False(t, foo.UpdateAvailable)
	assert.True(t, foo.LastDownload.IsZero())

	reqs := f.fetcher.requestsFor(testCatalogURL)
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].IfModifiedSince.IsZero(), "first poll must be unconditional")
	assert.Equal(t, domain.DefaultUserAgent, reqs[0].UserAgent)

	assert.Equal(t, t0, f.engine.LastRefresh())
	assert.True(t, f.engine.ConnectionHealthy())
}

func TestEngine_CatalogSkipsOtherExtensions(t *testing.T) {
	f := newEngineFixture(t)
	f.fetcher.set(testCatalogURL, reply{body: catalogBody("Foo.cs", "README.md", "Bar.CS")})
	f.load(t)

	f.engine.Tick(context.Background())
	f.tick(t)

	items := f.engine.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Bar", items[0].Name)
	assert.Equal(t, "Foo", items[1].Name)
}

func TestEngine_CatalogMarksExistingLocalPayload(t *testing.T) {
	f := newEngineFixture(t)
	f.fetcher.set(testCatalogURL, reply{body: catalogBody("Foo.cs")})
	f.load(t)
	f.writeLocal(t, "Foo", "class Foo {}")

	f.engine.Tick(context.Background())
	f.tick(t)

	assert.True(t, f.item(t, "Foo").LocallyPresent)
}

func TestEngine_Enqueue_AtMostOnePendingPerItem(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{Name: "Foo", SourceURL: rawURL("Foo.cs"), MetaURL: metaURL("Foo.cs")})
	f.load(t)
	suppressCatalog(f)

	gate := make(chan struct{})
	f.fetcher.gate = gate
	f.fetcher.set(rawURL("Foo.cs"), reply{body: "payload"})

	require.NoError(t, f.engine.TriggerDownload("Foo"))
	assert.ErrorIs(t, f.engine.TriggerDownload("Foo"), domain.ErrAlreadyPending)
	assert.ErrorIs(t, f.engine.Enqueue("Foo", domain.OperationUpdateCheck), domain.ErrAlreadyPending)
	assert.Equal(t, 1, f.engine.PendingCount())
	assert.True(t, f.engine.IsBusyDownloading("Foo"))

	// Still in flight: ticking must not block or retire it.
	result := f.engine.Tick(context.Background())
	assert.Equal(t, 0, result.Completed)
	assert.Equal(t, 1, f.engine.PendingCount())

	close(gate)
	result = f.tick(t)
	assert.Equal(t, 1, result.Completed)
	assert.False(t, f.engine.IsBusyDownloading("Foo"))
	assert.Equal(t, 0, f.engine.PendingCount())

	require.NoError(t, f.engine.Enqueue("Foo", domain.OperationUpdateCheck))
}

func TestEngine_Enqueue_Errors(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f,
		domain.Item{Name: "Local", LocallyPresent: true},
		domain.Item{Name: "Remote", SourceURL: rawURL("Remote.cs")},
	)
	f.writeLocal(t, "Local", "x")
	f.load(t)

	assert.ErrorIs(t, f.engine.TriggerDownload("Missing"), domain.ErrNotFound)
	assert.ErrorIs(t, f.engine.TriggerDownload("Local"), domain.ErrNoSource)
	assert.ErrorIs(t, f.engine.Enqueue("Remote", domain.OperationUpdateCheck), domain.ErrNoSource)
	assert.ErrorIs(t, f.engine.Enqueue("Remote", domain.OperationCatalogRefresh), domain.ErrInvalidInput)
	assert.False(t, f.engine.Busy())
}

func TestEngine_DownloadNotModified_OnlyTouchesCheckTime(t *testing.T) {
	f := newEngineFixture(t)
	lastDownload := t0.Add(-2 * time.Hour)
	seedItems(t, f, domain.Item{
		Name:            "Foo",
		SourceURL:       rawURL("Foo.cs"),
		MetaURL:         metaURL("Foo.cs"),
		LastDownload:    lastDownload,
		LastUpdateCheck: lastDownload,
		UpdateAvailable: true,
	})
	f.load(t)
	suppressCatalog(f)
	f.fetcher.set(rawURL("Foo.cs"), notModified())

	require.NoError(t, f.engine.TriggerDownload("Foo"))
	f.tick(t)

	foo := f.item(t, "Foo")
	assert.Equal(t, rawURL("Foo.cs"), foo.SourceURL)
	assert.Equal(t, lastDownload, foo.LastDownload)
	assert.Equal(t, t0, foo.LastUpdateCheck)
	assert.True(t, foo.UpdateAvailable, "download 304 leaves the flag alone")
	assert.False(t, foo.LocallyPresent)
	assert.False(t, f.payloads.Exists("Foo"))
	assert.True(t, f.engine.ConnectionHealthy())

	reqs := f.fetcher.requestsFor(rawURL("Foo.cs"))
	require.Len(t, reqs, 1)
	assert.Equal(t, lastDownload, reqs[0].IfModifiedSince)
}

func TestEngine_UpdateCheckNotModified_ClearsFlag(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{
		Name:            "Foo",
		SourceURL:       rawURL("Foo.cs"),
		MetaURL:         metaURL("Foo.cs"),
		UpdateAvailable: true,
		LocallyPresent:  true,
	})
	f.writeLocal(t, "Foo", "old")
	f.load(t)
	suppressCatalog(f)
	f.fetcher.set(metaURL("Foo.cs"), notModified())

	require.NoError(t, f.engine.Enqueue("Foo", domain.OperationUpdateCheck))
	f.tick(t)

	foo := f.item(t, "Foo")
	assert.False(t, foo.UpdateAvailable)
	assert.Equal(t, t0, foo.LastUpdateCheck)
}

func TestEngine_Download_NeverDownloadedOmitsConditionalTime(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{Name: "Foo", SourceURL: rawURL("Foo.cs")})
	f.load(t)
	suppressCatalog(f)
	f.fetcher.set(rawURL("Foo.cs"), reply{body: "class Foo {}"})

	require.NoError(t, f.engine.TriggerDownload("Foo"))
	f.tick(t)

	reqs := f.fetcher.requestsFor(rawURL("Foo.cs"))
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].IfModifiedSince.IsZero())
}

func TestEngine_Scenario_UpdateCheckThenDownload(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{
		Name:            "Foo",
		SourceURL:       rawURL("Foo.cs"),
		MetaURL:         metaURL("Foo.cs"),
		LastDownload:    t0,
		LastUpdateCheck: t0,
		LocallyPresent:  true,
	})
	f.writeLocal(t, "Foo", "old")
	f.load(t)
	suppressCatalog(f)

	f.fetcher.set(metaURL("Foo.cs"), reply{body: `{"sha":"new"}`})
	f.fetcher.set(rawURL("Foo.cs"), reply{body: "new"})

	// The aging pass queues the check once the interval has passed.
	t1 := t0.Add(61 * time.Minute)
	f.clock.Advance(61 * time.Minute)
	suppressCatalog(f)

	started := f.engine.Tick(context.Background())
	assert.Equal(t, 1, started.Started)
	assert.True(t, f.engine.IsBusyDownloading("Foo"))

	f.tick(t)
	foo := f.item(t, "Foo")
	assert.True(t, foo.UpdateAvailable)
	assert.Equal(t, t1, foo.LastUpdateCheck)
	assert.Equal(t, t0, foo.LastDownload)

	data, err := f.payloads.Read("Foo")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "update check must not write storage")

	checks := f.fetcher.requestsFor(metaURL("Foo.cs"))
	require.Len(t, checks, 1)
	assert.Equal(t, t0, checks[0].IfModifiedSince)

	// Download the newer version.
	f.clock.Advance(time.Minute)
	t2 := t1.Add(time.Minute)
	require.NoError(t, f.engine.TriggerDownload("Foo"))
	f.tick(t)

	foo = f.item(t, "Foo")
	assert.False(t, foo.UpdateAvailable)
	assert.Equal(t, t2, foo.LastDownload)
	assert.Equal(t, foo.LastDownload, foo.LastUpdateCheck)
	assert.True(t, foo.LocallyPresent)

	data, err = f.payloads.Read("Foo")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestEngine_FailedAttemptsAdvanceCheckTime(t *testing.T) {
	for _, kind := range []domain.OperationKind{domain.OperationDownload, domain.OperationUpdateCheck} {
		t.Run(kind.String(), func(t *testing.T) {
			f := newEngineFixture(t)
			seedItems(t, f, domain.Item{
				Name:            "Foo",
				SourceURL:       rawURL("Foo.cs"),
				MetaURL:         metaURL("Foo.cs"),
				UpdateAvailable: true,
			})
			f.load(t)
			suppressCatalog(f)
			f.fetcher.set(rawURL("Foo.cs"), transportFailure())
			f.fetcher.set(metaURL("Foo.cs"), transportFailure())

			require.NoError(t, f.engine.Enqueue("Foo", kind))
			f.tick(t)

			foo := f.item(t, "Foo")
			assert.Equal(t, t0, foo.LastUpdateCheck)
			assert.True(t, foo.LastDownload.IsZero())
			assert.True(t, foo.UpdateAvailable)
			assert.False(t, f.engine.ConnectionHealthy())
			assert.Equal(t, 0, f.engine.PendingCount())
		})
	}
}

// failingWrites rejects every payload write.
type failingWrites struct {
	driven.PayloadStore
}

func (failingWrites) Write(string, []byte) error { return errors.New("disk full") }

func TestEngine_DownloadWriteFailure_OnlyTouchesCheckTime(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{
		Name:            "Foo",
		SourceURL:       rawURL("Foo.cs"),
		MetaURL:         metaURL("Foo.cs"),
		UpdateAvailable: true,
	})
	f.load(t)
	suppressCatalog(f)
	f.engine.payloads = failingWrites{f.payloads}
	f.fetcher.set(rawURL("Foo.cs"), reply{body: "new"})

	require.NoError(t, f.engine.TriggerDownload("Foo"))
	f.tick(t)

	foo := f.item(t, "Foo")
	assert.Equal(t, t0, foo.LastUpdateCheck)
	assert.True(t, foo.LastDownload.IsZero())
	assert.True(t, foo.UpdateAvailable)
	assert.False(t, foo.LocallyPresent)
	assert.True(t, f.engine.ConnectionHealthy())
	assert.False(t, f.payloads.Exists("Foo"))
}

func TestEngine_LastResult_PerItem(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{
		Name:           "Foo",
		SourceURL:      rawURL("Foo.cs"),
		MetaURL:        metaURL("Foo.cs"),
		LastDownload:   t0.Add(-time.Hour),
		LocallyPresent: true,
	})
	f.writeLocal(t, "Foo", "x")
	f.load(t)
	f.fetcher.set(testCatalogURL, transportFailure())
	f.fetcher.set(rawURL("Foo.cs"), notModified())

	assert.Equal(t, domain.StateIdle, f.engine.LastResult("Foo"))
	require.NoError(t, f.engine.TriggerDownload("Foo"))
	require.NoError(t, f.engine.RunUntilIdle(context.Background(), time.Millisecond))

	assert.False(t, f.engine.ConnectionHealthy(), "catalog poll failed")
	assert.Equal(t, domain.StateNotModified, f.engine.LastResult("Foo"))
	assert.Equal(t, t0.Add(-time.Hour), f.item(t, "Foo").LastDownload)

	f.fetcher.set(rawURL("Foo.cs"), reply{body: "new"})
	f.engine.payloads = failingWrites{f.payloads}
	require.NoError(t, f.engine.TriggerDownload("Foo"))
	f.tick(t)
	assert.Equal(t, domain.StateError, f.engine.LastResult("Foo"))
}

func TestEngine_HealthClearedByNextSuccess(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{Name: "Foo", SourceURL: rawURL("Foo.cs")})
	f.load(t)
	suppressCatalog(f)

	f.fetcher.set(rawURL("Foo.cs"), reply{err: domain.ErrUnexpectedStatus})
	require.NoError(t, f.engine.TriggerDownload("Foo"))
	f.tick(t)
	assert.False(t, f.engine.ConnectionHealthy())

	f.fetcher.set(rawURL("Foo.cs"), reply{body: "ok"})
	require.NoError(t, f.engine.TriggerDownload("Foo"))
	f.tick(t)
	assert.True(t, f.engine.ConnectionHealthy())
}

func TestEngine_CatalogFailure_RetriesByAttemptTime(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f, domain.Item{Name: "Foo", SourceURL: rawURL("Foo.cs"), MetaURL: metaURL("Foo.cs")})
	f.load(t)
	f.fetcher.set(testCatalogURL, transportFailure())
	before := f.engine.Items()

	f.engine.Tick(context.Background())
	f.tick(t)

	assert.Equal(t, before, f.engine.Items())
	assert.False(t, f.engine.ConnectionHealthy())
	assert.True(t, f.engine.LastRefresh().IsZero())

	f.clock.Advance(4 * time.Minute)
	assert.Equal(t, 0, f.tick(t).Started)

	f.clock.Advance(time.Minute)
	assert.Equal(t, 1, f.tick(t).Started)
	f.waitPublished(t)
	assert.Len(t, f.fetcher.requestsFor(testCatalogURL), 2)
}

func TestEngine_CatalogNotModified_ReplaysSnapshot(t *testing.T) {
	f := newEngineFixture(t)
	lastRefresh := t0.Add(-time.Hour)
	require.NoError(t, f.catalog.SaveCatalogState(context.Background(), &domain.CatalogState{
		Snapshot:    []byte(catalogBody("Foo.cs")),
		LastRefresh: lastRefresh,
	}))
	f.load(t)
	f.engine.healthy = false
	f.fetcher.set(testCatalogURL, notModified())

	f.engine.Tick(context.Background())
	f.tick(t)

	reqs := f.fetcher.requestsFor(testCatalogURL)
	require.Len(t, reqs, 1)
	assert.Equal(t, lastRefresh, reqs[0].IfModifiedSince)

	foo := f.item(t, "Foo")
	assert.Equal(t, rawURL("Foo.cs"), foo.SourceURL)
	assert.Equal(t, t0, f.engine.LastRefresh())
	assert.True(t, f.engine.ConnectionHealthy())

	state, err := f.catalog.GetCatalogState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, t0, state.LastRefresh)
}

func TestEngine_CatalogReplay_CaseVariantsStable(t *testing.T) {
	f := newEngineFixture(t)
	require.NoError(t, f.catalog.SaveCatalogState(context.Background(), &domain.CatalogState{
		Snapshot:    []byte(catalogBody("Foo.cs", "Foo.CS")),
		LastRefresh: t0.Add(-time.Hour),
	}))
	f.load(t)
	f.fetcher.set(testCatalogURL, notModified())

	f.engine.Tick(context.Background())
	first := f.tick(t)
	assert.True(t, first.Changed)
	require.Len(t, f.engine.Items(), 1)
	assert.Equal(t, rawURL("Foo.cs"), f.item(t, "Foo").SourceURL)

	for i := 0; i < 3; i++ {
		f.clock.Advance(5 * time.Minute)
		started := f.engine.Tick(context.Background())
		require.Equal(t, 1, started.Started)
		replay := f.tick(t)
		assert.Equal(t, 1, replay.Completed)
		assert.False(t, replay.Changed, "replay %d must not mutate", i)
		assert.Equal(t, rawURL("Foo.cs"), f.item(t, "Foo").SourceURL)
	}
}

func TestEngine_CatalogMalformed_KeepsSnapshot(t *testing.T) {
	f := newEngineFixture(t)
	lastRefresh := t0.Add(-time.Hour)
	snapshot := catalogBody("Foo.cs")
	require.NoError(t, f.catalog.SaveCatalogState(context.Background(), &domain.CatalogState{
		Snapshot:    []byte(snapshot),
		LastRefresh: lastRefresh,
	}))
	f.load(t)
	f.engine.healthy = false
	f.fetcher.set(testCatalogURL, reply{body: `{"message":"oops"`})

	f.engine.Tick(context.Background())
	f.tick(t)

	assert.Empty(t, f.engine.Items())
	assert.Equal(t, lastRefresh, f.engine.LastRefresh())
	assert.True(t, f.engine.ConnectionHealthy())

	state, err := f.catalog.GetCatalogState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot, string(state.Snapshot))
}

func TestEngine_Reconcile_Idempotent(t *testing.T) {
	f := newEngineFixture(t)
	f.writeLocal(t, "Bar", "x")
	f.load(t)

	records, err := f.engine.parser.ParseCatalog([]byte(catalogBody("Foo.cs", "Bar.cs")))
	require.NoError(t, err)

	f.engine.mu.Lock()
	f.engine.reconcileLocked(records)
	first := f.engine.sortedItemsLocked()
	f.engine.itemsDirty, f.engine.changed = false, false

	f.engine.reconcileLocked(records)
	second := f.engine.sortedItemsLocked()
	dirty := f.engine.itemsDirty
	f.engine.mu.Unlock()

	assert.Equal(t, first, second)
	assert.False(t, dirty, "second pass must not mutate")
	require.Len(t, second, 2)
	assert.True(t, second[0].LocallyPresent, "Bar keeps its local presence")
}

func TestEngine_Reconcile_RelocatesAndPurgesOrphans(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f,
		domain.Item{Name: "Foo", SourceURL: "https://old.test/Foo.cs", MetaURL: "https://old.test/api/Foo.cs"},
		domain.Item{Name: "Local", LocallyPresent: true},
	)
	f.writeLocal(t, "Local", "x")
	f.load(t)

	// Becomes an orphan after load; the next reconciliation drops it.
	f.engine.mu.Lock()
	f.engine.items["Gone"] = &domain.Item{Name: "Gone"}
	f.engine.mu.Unlock()

	f.fetcher.set(testCatalogURL, reply{body: catalogBody("Foo.cs")})
	f.engine.Tick(context.Background())
	f.tick(t)

	_, gone := f.engine.Item("Gone")
	assert.False(t, gone)

	foo := f.item(t, "Foo")
	assert.Equal(t, rawURL("Foo.cs"), foo.SourceURL)
	assert.Equal(t, metaURL("Foo.cs"), foo.MetaURL)

	assert.True(t, f.item(t, "Local").LocallyPresent)
}

func TestEngine_InsertCollisionPanics(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()

	f.engine.insertLocked(domain.Item{Name: "Foo", SourceURL: "x"})
	assert.Panics(t, func() {
		f.engine.insertLocked(domain.Item{Name: "Foo", SourceURL: "y"})
	})
}

func TestEngine_OneNotificationPerTick(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f,
		domain.Item{Name: "A", SourceURL: rawURL("A.cs")},
		domain.Item{Name: "B", SourceURL: rawURL("B.cs")},
	)
	f.load(t)
	f.fetcher.set(testCatalogURL, reply{body: catalogBody("A.cs", "B.cs", "C.cs")})
	f.fetcher.set(rawURL("A.cs"), reply{body: "a"})
	f.fetcher.set(rawURL("B.cs"), reply{body: "b"})

	var calls atomic.Int32
	unsubscribe := f.engine.Subscribe(func() { calls.Add(1) })

	f.engine.RefreshCatalog()
	require.NoError(t, f.engine.TriggerDownload("A"))
	require.NoError(t, f.engine.TriggerDownload("B"))

	result := f.tick(t)
	assert.Equal(t, 3, result.Completed)
	assert.Equal(t, int32(1), calls.Load())

	// Nothing happened: no notification.
	f.engine.Tick(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	unsubscribe()
	unsubscribe()
	f.fetcher.set(rawURL("C.cs"), reply{body: "c"})
	require.NoError(t, f.engine.TriggerDownload("C"))
	f.tick(t)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEngine_PersistsAfterTick(t *testing.T) {
	f := newEngineFixture(t)
	f.fetcher.set(testCatalogURL, reply{body: catalogBody("Foo.cs")})
	f.load(t)

	f.engine.Tick(context.Background())
	f.tick(t)

	stored, err := f.items.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Foo", stored[0].Name)

	state, err := f.catalog.GetCatalogState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalogBody("Foo.cs"), string(state.Snapshot))
	assert.Equal(t, t0, state.LastRefresh)

	// A restarted engine resumes with a conditional poll.
	restarted := NewEngine(f.engine.Settings(), f.fetcher, f.engine.parser, f.payloads, f.items, f.catalog)
	restarted.now = f.clock.Now
	defer restarted.Close()
	require.NoError(t, restarted.Load(context.Background()))
	assert.Equal(t, f.engine.Items(), restarted.Items())

	f.clock.Advance(time.Minute)
	restarted.Tick(context.Background())
	require.Eventually(t, func() bool {
		return len(f.fetcher.requestsFor(testCatalogURL)) == 2
	}, time.Second, time.Millisecond)
	reqs := f.fetcher.requestsFor(testCatalogURL)
	assert.Equal(t, t0, reqs[1].IfModifiedSince)
}

func TestEngine_RunUntilIdle(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.now = time.Now
	f.fetcher.set(testCatalogURL, reply{body: catalogBody("Foo.cs", "Bar.cs")})
	f.load(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.engine.RunUntilIdle(ctx, time.Millisecond))

	assert.False(t, f.engine.Busy())
	assert.Len(t, f.engine.Items(), 2)
}

func TestEngine_RunUntilIdle_ContextCancelled(t *testing.T) {
	f := newEngineFixture(t)
	f.fetcher.gate = make(chan struct{})
	f.load(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := f.engine.RunUntilIdle(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_CloseAbandonsInFlight(t *testing.T) {
	f := newEngineFixture(t)
	f.fetcher.gate = make(chan struct{})
	f.load(t)

	f.engine.RefreshCatalog()
	assert.True(t, f.engine.Busy())

	done := make(chan struct{})
	go func() {
		_ = f.engine.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
}

func TestEngine_Load_RecomputesLocalPresence(t *testing.T) {
	f := newEngineFixture(t)
	seedItems(t, f,
		domain.Item{Name: "Stale", SourceURL: rawURL("Stale.cs"), LocallyPresent: true},
		domain.Item{Name: "Fresh", SourceURL: rawURL("Fresh.cs")},
	)
	require.NoError(t, afero.WriteFile(f.fs, testItemsDir+"/Fresh.cs", []byte("x"), 0o644))
	f.load(t)

	assert.False(t, f.item(t, "Stale").LocallyPresent)
	assert.True(t, f.item(t, "Fresh").LocallyPresent)
}
