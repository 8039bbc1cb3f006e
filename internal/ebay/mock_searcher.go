package ebay

import (
	"context"
	"sync"
)

// MockSearcher is a test double for Searcher. SearchFunc can be overridden
// with a custom function; if not set, Search returns no results. Thread-safe
// for use in concurrent tests.
type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string, opts SearchOpts) ([]ItemSummary, error)

	mu sync.Mutex

	// Calls tracks all invocations for assertions
	Calls []MockSearchCall
}

// MockSearchCall records one Search invocation for test assertions.
type MockSearchCall struct {
	Query string
	Opts  SearchOpts
}

// Ensure MockSearcher implements Searcher
var _ Searcher = (*MockSearcher)(nil)

func (m *MockSearcher) Search(ctx context.Context, query string, opts SearchOpts) ([]ItemSummary, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockSearchCall{Query: query, Opts: opts})
	fn := m.SearchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query, opts)
	}
	return nil, nil
}
