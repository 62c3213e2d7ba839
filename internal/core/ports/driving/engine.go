package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

// SyncEngine is the consumer surface of the synchronisation engine.
//
// Getters are safe to call from any goroutine. Tick must only be called
// from one goroutine at a time.
type SyncEngine interface {
	// Items returns a snapshot of all items ordered by name.
	Items() []domain.Item

	// Item returns a snapshot of one item.
	Item(name string) (domain.Item, bool)

	// IsBusyDownloading reports whether name has an operation in flight.
	IsBusyDownloading(name string) bool

	// IsCatalogRefreshing reports whether a catalog fetch is in flight.
	IsCatalogRefreshing() bool

	// ConnectionHealthy is false after a failed network operation,
	// until the next successful or not-modified one.
	ConnectionHealthy() bool

	// LastResult reports how the latest operation on name completed.
	// Returns domain.StateIdle when none has completed yet.
	LastResult(name string) domain.OperationState

	// TriggerDownload queues a payload download for name.
	TriggerDownload(name string) error

	// TriggerCatalogRefresh starts a catalog fetch unless one is in flight.
	TriggerCatalogRefresh()

	// TriggerCheckAllForUpdates queues update checks for every local item.
	// Returns the number of checks queued.
	TriggerCheckAllForUpdates() int

	// RemoveLocal deletes the local payload of name.
	RemoveLocal(name string) error

	// PayloadPath returns where name's payload is stored.
	PayloadPath(name string) string

	// ReadPayload returns name's local payload.
	ReadPayload(name string) ([]byte, error)

	// Subscribe registers fn to be called at most once per tick when
	// state changed. The returned function unsubscribes.
	Subscribe(fn func()) (unsubscribe func())

	// Tick advances all pending operations and evaluates triggers.
	Tick(ctx context.Context) domain.TickResult

	// Busy reports whether any network operation is in flight.
	Busy() bool

	// RunUntilIdle ticks every interval until no operation is in flight.
	RunUntilIdle(ctx context.Context, every time.Duration) error
}
