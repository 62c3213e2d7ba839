// Package domain defines the core business entities for catsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Item: A named, independently synchronisable unit with a remote source
//     and an optional local copy
//   - CatalogRecord: One entry of the remote directory listing
//   - CatalogState: The last good listing body and when it was fetched
//   - FetchRequest/FetchResponse: A conditional GET and its outcome
//   - SyncSettings: Intervals, endpoints and storage locations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
