package domain

import "context"

// ActionInput is what an action receives when run against an item.
type ActionInput struct {
	// Item is a snapshot of the item being acted on.
	Item Item

	// Path is the local payload path.
	Path string

	// Payload is the local payload content.
	Payload []byte
}

// Action is a named operation run against a locally present item.
// The returned string is shown to the user.
type Action func(ctx context.Context, in ActionInput) (string, error)
