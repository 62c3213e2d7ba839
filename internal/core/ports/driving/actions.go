package driving

import (
	"context"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

// ActionService runs registered actions against local items.
// This is used by CLI, TUI and MCP adapters.
type ActionService interface {
	// Register adds an action under name.
	// Returns domain.ErrAlreadyExists if the name is taken.
	Register(name string, action domain.Action) error

	// Names returns registered action names, sorted.
	Names() []string

	// Resolve returns the action for an item: the action registered under
	// the item's name, or the default action.
	Resolve(itemName string) (string, domain.Action, error)

	// Run executes actionName (or the resolved action when empty) on itemName.
	Run(ctx context.Context, itemName, actionName string) (string, error)
}
