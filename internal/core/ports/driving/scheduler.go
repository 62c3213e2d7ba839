package driving

import "context"

// Scheduler drives the engine on a fixed tick.
type Scheduler interface {
	// Start begins ticking.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the loop.
	Stop() error
}
