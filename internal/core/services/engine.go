package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
	"github.com/custodia-labs/catsync/internal/core/ports/driving"
	"github.com/custodia-labs/catsync/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.SyncEngine = (*Engine)(nil)

// Engine owns the item map, the catalog snapshot and the download queue.
//
// All mutation happens under mu, either in Tick or in a trigger method.
// Network operations run on their own goroutines and only publish into
// their result slot; Tick drains the slots and applies the results.
type Engine struct {
	settings     domain.SyncSettings
	fetcher      driven.Fetcher
	parser       driven.CatalogParser
	payloads     driven.PayloadStore
	itemStore    driven.ItemStore
	catalogStore driven.CatalogStateStore

	mu                 sync.RWMutex
	items              map[string]*domain.Item
	catalog            domain.CatalogState
	lastCatalogAttempt time.Time
	catalogOp          *pendingOperation
	pending            map[string]*pendingOperation
	lastResults        map[string]domain.OperationState
	healthy            bool
	itemsDirty         bool
	catalogDirty       bool
	changed            bool

	// Set by the presence watcher, applied on the next tick.
	localChanged atomic.Bool

	subsMu  sync.Mutex
	subs    map[int]func()
	nextSub int

	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine. Call Load before the first Tick.
func NewEngine(
	settings domain.SyncSettings,
	fetcher driven.Fetcher,
	parser driven.CatalogParser,
	payloads driven.PayloadStore,
	itemStore driven.ItemStore,
	catalogStore driven.CatalogStateStore,
) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		settings:     settings,
		fetcher:      fetcher,
		parser:       parser,
		payloads:     payloads,
		itemStore:    itemStore,
		catalogStore: catalogStore,
		items:        make(map[string]*domain.Item),
		pending:      make(map[string]*pendingOperation),
		lastResults:  make(map[string]domain.OperationState),
		healthy:      true,
		subs:         make(map[int]func()),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Load reads persisted items and catalog state, then reconciles local presence.
func (e *Engine) Load(ctx context.Context) error {
	items, err := e.itemStore.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	state, err := e.catalogStore.GetCatalogState(ctx)
	if err != nil {
		return fmt.Errorf("load catalog state: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = make(map[string]*domain.Item, len(items))
	for i := range items {
		e.insertLocked(items[i])
	}
	if state != nil {
		e.catalog = *state
	}
	e.itemsDirty = false
	e.changed = false
	logger.Debug("Loaded %d items (snapshot %d bytes, last refresh %s)",
		len(items), len(e.catalog.Snapshot), formatTime(e.catalog.LastRefresh))

	e.discoverLocalLocked()
	return nil
}

// Settings returns the settings the engine was built with.
func (e *Engine) Settings() domain.SyncSettings {
	return e.settings
}

// Items returns a snapshot of all items ordered by name.
func (e *Engine) Items() []domain.Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sortedItemsLocked()
}

// Item returns a snapshot of one item.
func (e *Engine) Item(name string) (domain.Item, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	item, ok := e.items[name]
	if !ok {
		return domain.Item{}, false
	}
	return *item, true
}

// IsBusyDownloading reports whether name has an operation in flight.
func (e *Engine) IsBusyDownloading(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.pending[name]
	return ok
}

// IsCatalogRefreshing reports whether a catalog fetch is in flight.
func (e *Engine) IsCatalogRefreshing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalogOp != nil
}

// ConnectionHealthy reports the advisory connection health flag.
func (e *Engine) ConnectionHealthy() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.healthy
}

// LastResult returns how the most recent per-item operation on name
// completed, or StateIdle if none has completed in this process.
// A failed payload write after a 200 counts as StateError.
func (e *Engine) LastResult(name string) domain.OperationState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	state, ok := e.lastResults[name]
	if !ok {
		return domain.StateIdle
	}
	return state
}

// LastRefresh returns when the catalog was last refreshed successfully.
func (e *Engine) LastRefresh() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.LastRefresh
}

// Busy reports whether any network operation is in flight.
func (e *Engine) Busy() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalogOp != nil || len(e.pending) > 0
}

// PendingCount returns the number of queued per-item operations.
func (e *Engine) PendingCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pending)
}

// TriggerDownload queues a payload download for name.
func (e *Engine) TriggerDownload(name string) error {
	return e.Enqueue(name, domain.OperationDownload)
}

// TriggerCatalogRefresh starts a catalog fetch unless one is in flight.
func (e *Engine) TriggerCatalogRefresh() {
	e.RefreshCatalog()
}

// TriggerCheckAllForUpdates queues update checks for every local item.
func (e *Engine) TriggerCheckAllForUpdates() int {
	return e.CheckAllForUpdates()
}

// Subscribe registers fn for the once-per-tick change notification.
func (e *Engine) Subscribe(fn func()) func() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subsMu.Lock()
			defer e.subsMu.Unlock()
			delete(e.subs, id)
		})
	}
}

// NotifyLocalChange records that payloads changed on disk.
// Safe to call from any goroutine; the next Tick rescans local storage.
func (e *Engine) NotifyLocalChange() {
	e.localChanged.Store(true)
}

// Tick is the single driver step. In order it:
//  1. drains the catalog result
//  2. drains completed queue entries
//  3. starts a catalog refresh if due
//  4. queues update checks for aged items
//
// then persists if dirty and notifies subscribers once if anything changed.
// Tick never waits on the network.
func (e *Engine) Tick(ctx context.Context) domain.TickResult {
	var result domain.TickResult

	e.mu.Lock()
	now := e.now()

	if e.localChanged.Swap(false) {
		e.discoverLocalLocked()
	}
	if e.drainCatalogLocked(now) {
		result.Completed++
	}
	result.Completed += e.drainQueueLocked(now)

	if e.catalogDueLocked(now) {
		e.startCatalogLocked(now)
		result.Started++
	}
	result.Started += e.agingPassLocked(now)

	e.persistLocked(ctx)
	result.Changed = e.changed
	e.changed = false
	e.mu.Unlock()

	if result.Changed {
		e.notify()
	}
	return result
}

// RunUntilIdle ticks every interval until nothing is in flight.
func (e *Engine) RunUntilIdle(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		e.Tick(ctx)
		if !e.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Flush persists any state changed outside a tick.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked(ctx)
}

// Close cancels in-flight operations and waits for their goroutines.
// Results of abandoned operations are dropped.
func (e *Engine) Close() error {
	e.cancel()
	e.wg.Wait()
	return nil
}

func (e *Engine) notify() {
	e.subsMu.Lock()
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.subs[id])
	}
	e.subsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.saveLocked(ctx); err != nil {
		logger.Warn("Persist failed, will retry next tick: %v", err)
	}
}

func (e *Engine) saveLocked(ctx context.Context) error {
	var errs []error
	if e.itemsDirty {
		if err := e.itemStore.ReplaceItems(ctx, e.sortedItemsLocked()); err != nil {
			errs = append(errs, fmt.Errorf("save items: %w", err))
		} else {
			e.itemsDirty = false
		}
	}
	if e.catalogDirty {
		state := e.catalog
		if err := e.catalogStore.SaveCatalogState(ctx, &state); err != nil {
			errs = append(errs, fmt.Errorf("save catalog state: %w", err))
		} else {
			e.catalogDirty = false
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) sortedItemsLocked() []domain.Item {
	items := make([]domain.Item, 0, len(e.items))
	for _, item := range e.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// insertLocked adds a new item. A name collision is a programming error.
func (e *Engine) insertLocked(item domain.Item) {
	if _, exists := e.items[item.Name]; exists {
		panic(fmt.Sprintf("catsync: item %q inserted twice", item.Name))
	}
	e.items[item.Name] = &item
	e.markItemsLocked()
}

// purgeOrphansLocked removes items with neither a local payload nor a source.
func (e *Engine) purgeOrphansLocked() int {
	purged := 0
	for name, item := range e.items {
		if !item.IsOrphan() {
			continue
		}
		if _, busy := e.pending[name]; busy {
			continue
		}
		delete(e.items, name)
		purged++
		logger.Debug("Purged orphan item %s", name)
	}
	if purged > 0 {
		e.markItemsLocked()
	}
	return purged
}

func (e *Engine) markItemsLocked() {
	e.itemsDirty = true
	e.changed = true
}

func (e *Engine) setHealthyLocked(healthy bool) {
	if e.healthy != healthy {
		e.healthy = healthy
		e.changed = true
		if !healthy {
			logger.Warn("Connection marked unhealthy")
		}
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
