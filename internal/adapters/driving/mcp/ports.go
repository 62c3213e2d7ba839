package mcp

import (
	"github.com/custodia-labs/catsync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Engine is the sync engine. Something else must be ticking it.
	Engine driving.SyncEngine

	// Actions runs item actions. Optional.
	Actions driving.ActionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Engine == nil {
		return ErrMissingEngine
	}
	return nil
}
