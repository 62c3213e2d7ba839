package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required setting is missing.
	ErrNotConfigured = errors.New("not configured")

	// Queue Errors.

	// ErrAlreadyPending indicates the item already has an operation in flight.
	ErrAlreadyPending = errors.New("operation already pending")

	// ErrNoSource indicates the item has no URL for the requested operation.
	ErrNoSource = errors.New("item has no remote source")

	// ErrNotLocal indicates the item has no local payload.
	ErrNotLocal = errors.New("item is not present locally")

	// Fetch Errors.

	// ErrNotModified is the negative result of a conditional request.
	// It is not a failure: the resource is unchanged since the given time.
	ErrNotModified = errors.New("not modified")

	// ErrTransportFailure indicates DNS, connection or timeout problems.
	ErrTransportFailure = errors.New("transport failure")

	// ErrUnexpectedStatus indicates a response other than 200 or 304.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrMalformedCatalog indicates a 200 catalog body that does not parse.
	ErrMalformedCatalog = errors.New("malformed catalog body")

	// Action Errors.

	// ErrActionNotFound indicates no action is registered under a name.
	ErrActionNotFound = errors.New("action not found")
)

// IsConnectionFailure reports whether err should mark the connection unhealthy.
// Not-modified results and nil are healthy outcomes.
func IsConnectionFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrNotModified)
}
