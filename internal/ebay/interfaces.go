package ebay

import "context"

// Searcher abstracts the marketplace search operation.
// This interface allows for easy mocking in tests.
type Searcher interface {
	// Search returns raw item summaries for a free-text query. An empty
	// result is distinct from an error: empty means the market had nothing,
	// an error means the call itself failed.
	Search(ctx context.Context, query string, opts SearchOpts) ([]ItemSummary, error)
}

// Ensure Client implements Searcher
var _ Searcher = (*Client)(nil)
