package services

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/logger"
)

// pendingOperation is one in-flight network request.
// The transport goroutine is the only writer of result; Tick is the only reader.
type pendingOperation struct {
	id        string
	itemName  string
	kind      domain.OperationKind
	request   domain.FetchRequest
	startedAt time.Time
	result    atomic.Pointer[domain.FetchResult]
}

func newPendingOperation(itemName string, kind domain.OperationKind, req domain.FetchRequest, now time.Time) *pendingOperation {
	return &pendingOperation{
		id:        uuid.NewString(),
		itemName:  itemName,
		kind:      kind,
		request:   req,
		startedAt: now,
	}
}

// publish records the completed result. Called once.
func (op *pendingOperation) publish(resp *domain.FetchResponse, err error) {
	op.result.Store(&domain.FetchResult{Response: resp, Err: err})
}

// ready returns the result once the transport has published it.
func (op *pendingOperation) ready() (*domain.FetchResult, bool) {
	r := op.result.Load()
	return r, r != nil
}

// launchLocked runs the fetch on its own goroutine.
func (e *Engine) launchLocked(op *pendingOperation) {
	logger.Debug("Operation %s: %s %s (if-modified-since %s)",
		op.id, op.kind, op.request.URL, formatTime(op.request.IfModifiedSince))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		resp, err := e.fetcher.Fetch(e.ctx, op.request)
		if err == nil && resp == nil {
			err = domain.ErrTransportFailure
		}
		op.publish(resp, err)
	}()
}
