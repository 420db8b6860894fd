package omdb

import (
	"context"
)

// API defines the interface for OMDb operations
type API interface {
	// Search finds movies whose title matches query
	Search(ctx context.Context, query string, page int) (*SearchResult, error)

	// GetDetails fetches the full record of a single movie
	GetDetails(ctx context.Context, imdbID string) (*Movie, error)
}
