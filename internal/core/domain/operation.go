package domain

import "time"

// OperationKind distinguishes the two per-item fetch operations.
type OperationKind string

const (
	// OperationDownload fetches the payload and writes it locally.
	OperationDownload OperationKind = "download"

	// OperationUpdateCheck asks whether the payload changed, without storing it.
	OperationUpdateCheck OperationKind = "update-check"

	// OperationCatalogRefresh fetches the catalog listing. Never queued per item.
	OperationCatalogRefresh OperationKind = "catalog-refresh"
)

// String returns the string representation.
func (k OperationKind) String() string {
	return string(k)
}

// IsItemKind returns true if the kind can be queued against an item.
func (k OperationKind) IsItemKind() bool {
	return k == OperationDownload || k == OperationUpdateCheck
}

// OperationState is the lifecycle position of a network operation.
type OperationState string

const (
	StateIdle        OperationState = "idle"
	StateRequested   OperationState = "requested"
	StateSuccess     OperationState = "completed-success"
	StateNotModified OperationState = "completed-not-modified"
	StateError       OperationState = "completed-error"
	StateRetired     OperationState = "retired"
)

// FetchRequest is a conditional GET.
type FetchRequest struct {
	// URL is the absolute URL to fetch.
	URL string

	// IfModifiedSince is sent as the conditional header when non-zero.
	IfModifiedSince time.Time

	// UserAgent identifies the client.
	UserAgent string
}

// FetchResponse is a successful (200) fetch.
// Not-modified and failures are reported through the error channel.
type FetchResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the full response body.
	Body []byte

	// LastModified is the parsed Last-Modified header, if any.
	LastModified time.Time
}

// FetchResult is the published outcome of an asynchronous fetch.
// Exactly one of Response and Err is set.
type FetchResult struct {
	Response *FetchResponse
	Err      error
}

// State classifies the result into a completed lifecycle state.
func (r *FetchResult) State() OperationState {
	switch {
	case r == nil:
		return StateRequested
	case r.Err == nil:
		return StateSuccess
	case !IsConnectionFailure(r.Err):
		return StateNotModified
	default:
		return StateError
	}
}
