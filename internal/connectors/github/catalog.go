package github

import (
	"encoding/json"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
)

// CatalogParser decodes a repository contents listing.
type CatalogParser struct{}

var _ driven.CatalogParser = (*CatalogParser)(nil)

// NewCatalogParser creates a contents listing parser.
func NewCatalogParser() *CatalogParser {
	return &CatalogParser{}
}

// ParseCatalog decodes a JSON array of content objects.
// Anything else, including a single file object, is malformed.
func (p *CatalogParser) ParseCatalog(body []byte) ([]domain.CatalogRecord, error) {
	var contents []*gh.RepositoryContent
	if err := json.Unmarshal(body, &contents); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedCatalog, err)
	}
	if contents == nil {
		return nil, fmt.Errorf("%w: not a listing", domain.ErrMalformedCatalog)
	}

	records := make([]domain.CatalogRecord, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}
		records = append(records, domain.CatalogRecord{
			Name:        c.GetName(),
			Path:        c.GetPath(),
			Type:        c.GetType(),
			DownloadURL: c.GetDownloadURL(),
			MetaURL:     c.GetURL(),
			SHA:         c.GetSHA(),
			Size:        c.GetSize(),
		})
	}
	return records, nil
}
