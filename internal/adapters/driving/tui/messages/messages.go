// Package messages defines the tea.Msg types exchanged inside the TUI.
package messages

import (
	"time"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

// ViewType identifies which screen is active.
type ViewType int

const (
	// ViewItems is the item browser.
	ViewItems ViewType = iota
	// ViewDetail shows one item and a preview of its payload.
	ViewDetail
	// ViewHelp lists keybindings.
	ViewHelp
)

// String returns the view name.
func (v ViewType) String() string {
	switch v {
	case ViewItems:
		return "items"
	case ViewDetail:
		return "detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged requests a switch to another view.
type ViewChanged struct {
	View ViewType
}

// EngineTick fires on every engine tick interval.
type EngineTick struct {
	Time time.Time
}

// EngineTicked reports the outcome of one engine tick.
type EngineTicked struct {
	Result domain.TickResult
}

// ItemSelected opens the detail view for an item.
type ItemSelected struct {
	Item domain.Item
}

// PayloadLoaded carries a local payload read for the detail view.
type PayloadLoaded struct {
	Name    string
	Payload string
	Err     error
}

// ActionCompleted reports the result of running an action on an item.
type ActionCompleted struct {
	Item   string
	Output string
	Err    error
}

// StatusMessage is a transient line shown in the status bar.
type StatusMessage struct {
	Text  string
	Error bool
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
