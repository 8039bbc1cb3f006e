package pricing

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"flipscout/internal/ebay"
	"flipscout/internal/fallback"
)

const (
	// DefaultResultLimit is the result cap for the first two search tiers.
	DefaultResultLimit = 50
	// ReducedResultLimit is the cap for the last-resort unfiltered tier.
	ReducedResultLimit = 20
)

// Pipeline prices a single item description: tiered marketplace search,
// normalization, then aggregation. It holds no per-item state and is safe
// to reuse across items.
type Pipeline struct {
	searcher    ebay.Searcher
	resultLimit int
}

// NewPipeline creates a pricing pipeline over the given searcher.
func NewPipeline(searcher ebay.Searcher) *Pipeline {
	return &Pipeline{searcher: searcher, resultLimit: DefaultResultLimit}
}

// Price resolves one item description into a QueryResult. A blank
// description short-circuits to StatusNoResults without touching the
// search client.
func (p *Pipeline) Price(ctx context.Context, query string) QueryResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return QueryResult{Query: query, Status: StatusNoResults}
	}

	rawItems, found, err := p.tieredSearch(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("marketplace search failed")
		return QueryResult{Query: query, Status: StatusSearchFailed}
	}
	if !found {
		return QueryResult{Query: query, Status: StatusNoResults}
	}

	listings := make([]Listing, 0, len(rawItems))
	for _, item := range rawItems {
		if listing := Normalize(item); listing != nil {
			listings = append(listings, *listing)
		}
	}
	if len(listings) == 0 {
		log.Debug().Str("query", query).Int("raw", len(rawItems)).Msg("no listing had a usable price")
		return QueryResult{Query: query, Status: StatusNoResults}
	}

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].TotalPrice < listings[j].TotalPrice
	})

	stats := Aggregate(listings)
	log.Debug().
		Str("query", query).
		Int("count", stats.Count).
		Float64("median", stats.Median).
		Msg("priced query")

	return QueryResult{
		Query:    query,
		Listings: listings,
		Stats:    stats,
		Status:   StatusPriced,
	}
}

// tieredSearch progressively relaxes the search until some tier returns at
// least one raw listing: condition-filtered first, then the same query
// unfiltered, then unfiltered with a reduced result cap. Relaxation only
// proceeds past an empty tier; a failing tier aborts the whole search.
func (p *Pipeline) tieredSearch(ctx context.Context, query string) ([]ebay.ItemSummary, bool, error) {
	tiers := []ebay.SearchOpts{
		{Limit: p.resultLimit, Conditions: ebay.UsedConditions},
		{Limit: p.resultLimit},
		{Limit: ReducedResultLimit},
	}

	attempts := make([]fallback.Attempt[[]ebay.ItemSummary], len(tiers))
	for i, opts := range tiers {
		attempts[i] = func(ctx context.Context) ([]ebay.ItemSummary, bool, error) {
			items, err := p.searcher.Search(ctx, query, opts)
			if err != nil {
				return nil, false, err
			}
			return items, len(items) > 0, nil
		}
	}

	return fallback.First(ctx, attempts...)
}
