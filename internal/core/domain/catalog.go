package domain

import "time"

// CatalogRecord is one entry of the remote directory listing.
type CatalogRecord struct {
	// Name is the file name as reported by the catalog (e.g. "Foo.cs").
	Name string

	// Path is the path of the entry within the listed repository.
	Path string

	// Type is the entry type ("file", "dir", ...).
	Type string

	// DownloadURL is the payload location. Empty for directories.
	DownloadURL string

	// MetaURL is the metadata/API location of the entry.
	MetaURL string

	// SHA is the content hash reported by the catalog.
	SHA string

	// Size is the payload size in bytes.
	Size int
}

// CatalogState is the persisted state of the catalog poller.
type CatalogState struct {
	// Snapshot is the raw body of the last successfully parsed listing.
	// A not-modified reply replays it instead of re-downloading.
	Snapshot []byte

	// LastRefresh is when the catalog was last refreshed successfully.
	// It is sent as If-Modified-Since on the next poll.
	LastRefresh time.Time
}

// HasSnapshot reports whether a previous listing is available for replay.
func (s *CatalogState) HasSnapshot() bool {
	return len(s.Snapshot) > 0
}
