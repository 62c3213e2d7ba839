package driven

import (
	"context"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

// Fetcher performs a single conditional GET.
//
// Fetch blocks until the request completes. A 200 response is returned as a
// FetchResponse. Every other outcome is returned as an error:
//   - 304 wraps domain.ErrNotModified
//   - other statuses wrap domain.ErrUnexpectedStatus
//   - network failures wrap domain.ErrTransportFailure
//
// Implementations must always disable intermediate caching.
type Fetcher interface {
	Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResponse, error)
}

// CatalogParser decodes a catalog listing.
type CatalogParser interface {
	// ParseCatalog returns the records in body.
	// Returns an error wrapping domain.ErrMalformedCatalog if body is not a listing.
	ParseCatalog(body []byte) ([]domain.CatalogRecord, error)
}
