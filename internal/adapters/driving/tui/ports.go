// Package tui provides an interactive terminal browser for catsync items.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"time"

	"github.com/custodia-labs/catsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Engine owns the catalogue and item state. The TUI drives its Tick.
	Engine driving.SyncEngine

	// Actions runs item actions. Optional; running is disabled without it.
	Actions driving.ActionService

	// TickInterval is how often the engine is ticked. Zero uses the default.
	TickInterval time.Duration
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Engine == nil {
		return ErrMissingEngine
	}
	return nil
}
