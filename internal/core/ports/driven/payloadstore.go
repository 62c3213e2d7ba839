package driven

import "context"

// PayloadStore manages local item payloads, one file per item name.
type PayloadStore interface {
	// Exists reports whether a payload for name is stored.
	Exists(name string) bool

	// Read returns the stored payload.
	// Returns domain.ErrNotFound if no payload exists.
	Read(name string) ([]byte, error)

	// Write replaces the payload atomically.
	// Readers never observe a partially written file.
	Write(name string, data []byte) error

	// Remove deletes the payload. Removing a missing payload is not an error.
	Remove(name string) error

	// List returns the names of all stored payloads.
	List() ([]string, error)

	// Path returns where the payload for name lives.
	Path(name string) string
}

// PresenceWatcher reports changes to local payloads made outside the engine.
type PresenceWatcher interface {
	// Watch calls onChange whenever payloads may have changed.
	// Blocks until ctx is cancelled. onChange may be called from any goroutine.
	Watch(ctx context.Context, onChange func()) error
}
