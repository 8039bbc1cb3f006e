package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipscout/internal/ebay"
)

func matrixDVDItems() []ebay.ItemSummary {
	return []ebay.ItemSummary{
		{
			Title: "Matrix DVD Deluxe Edition",
			Price: &ebay.ConvertedAmount{Value: "12.50", Currency: "EUR"},
			ShippingOptions: []ebay.ShippingOption{
				{ShippingCost: &ebay.ConvertedAmount{Value: "3.00", Currency: "EUR"}},
			},
		},
		{
			Title: "Matrix DVD",
			Price: &ebay.ConvertedAmount{Value: "9.99", Currency: "EUR"},
		},
	}
}

func TestPriceFilteredTierSuccess(t *testing.T) {
	searcher := &ebay.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, opts ebay.SearchOpts) ([]ebay.ItemSummary, error) {
			return matrixDVDItems(), nil
		},
	}

	result := NewPipeline(searcher).Price(context.Background(), "Matrix DVD")

	require.Equal(t, StatusPriced, result.Status)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 9.99, result.Stats.Min)
	assert.InDelta(t, 12.745, result.Stats.Median, 1e-9)
	assert.Equal(t, 15.50, result.Stats.Max)
	assert.Equal(t, 2, result.Stats.Count)

	// Listings come back ascending by total price.
	require.Len(t, result.Listings, 2)
	assert.Equal(t, 9.99, result.Listings[0].TotalPrice)
	assert.Equal(t, 15.50, result.Listings[1].TotalPrice)

	// The filtered tier succeeded, so no further tier may be tried.
	require.Len(t, searcher.Calls, 1)
	assert.Equal(t, ebay.UsedConditions, searcher.Calls[0].Opts.Conditions)
}

func TestPriceFallsBackToUnfilteredTier(t *testing.T) {
	searcher := &ebay.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, opts ebay.SearchOpts) ([]ebay.ItemSummary, error) {
			if len(opts.Conditions) > 0 {
				return nil, nil // filtered tier finds nothing
			}
			return matrixDVDItems(), nil
		},
	}

	result := NewPipeline(searcher).Price(context.Background(), "Matrix DVD")

	require.Equal(t, StatusPriced, result.Status)
	assert.Equal(t, 2, result.Stats.Count, "result must reflect the unfiltered tier's listings exactly")

	require.Len(t, searcher.Calls, 2)
	assert.NotEmpty(t, searcher.Calls[0].Opts.Conditions)
	assert.Empty(t, searcher.Calls[1].Opts.Conditions)
	assert.Equal(t, searcher.Calls[0].Opts.Limit, searcher.Calls[1].Opts.Limit, "second tier keeps the same cap")
}

func TestPriceTierOrderAndReducedCap(t *testing.T) {
	searcher := &ebay.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, opts ebay.SearchOpts) ([]ebay.ItemSummary, error) {
			if len(opts.Conditions) == 0 && opts.Limit == ReducedResultLimit {
				return matrixDVDItems()[:1], nil
			}
			return nil, nil
		},
	}

	result := NewPipeline(searcher).Price(context.Background(), "Matrix DVD")

	require.Equal(t, StatusPriced, result.Status)
	require.Len(t, searcher.Calls, 3)
	// Strict tier order: filtered -> unfiltered same cap -> unfiltered reduced cap.
	assert.Equal(t, ebay.SearchOpts{Limit: DefaultResultLimit, Conditions: ebay.UsedConditions}, searcher.Calls[0].Opts)
	assert.Equal(t, ebay.SearchOpts{Limit: DefaultResultLimit}, searcher.Calls[1].Opts)
	assert.Equal(t, ebay.SearchOpts{Limit: ReducedResultLimit}, searcher.Calls[2].Opts)
}

func TestPriceAllTiersEmptyIsNoResults(t *testing.T) {
	searcher := &ebay.MockSearcher{}

	result := NewPipeline(searcher).Price(context.Background(), "obscure item")

	assert.Equal(t, StatusNoResults, result.Status)
	assert.Empty(t, result.Listings)
	assert.Nil(t, result.Stats)
	assert.Len(t, searcher.Calls, 3)
}

func TestPriceSearchErrorIsSearchFailed(t *testing.T) {
	searcher := &ebay.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, opts ebay.SearchOpts) ([]ebay.ItemSummary, error) {
			return nil, errors.New("401 unauthorized")
		},
	}

	result := NewPipeline(searcher).Price(context.Background(), "Matrix DVD")

	assert.Equal(t, StatusSearchFailed, result.Status, "an outage must not be reported as no results")
	assert.Nil(t, result.Stats)
	assert.Len(t, searcher.Calls, 1, "a failing tier aborts the relaxation")
}

func TestPriceAllListingsUnparseableIsNoResults(t *testing.T) {
	searcher := &ebay.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, opts ebay.SearchOpts) ([]ebay.ItemSummary, error) {
			return []ebay.ItemSummary{
				{Title: "broken", Price: &ebay.ConvertedAmount{Value: "N/A"}},
				{Title: "no price at all"},
			}, nil
		},
	}

	result := NewPipeline(searcher).Price(context.Background(), "Matrix DVD")

	assert.Equal(t, StatusNoResults, result.Status)
	assert.Nil(t, result.Stats)
}

func TestPriceBlankQuerySkipsSearch(t *testing.T) {
	searcher := &ebay.MockSearcher{}

	for _, query := range []string{"", "   ", "\t\n"} {
		result := NewPipeline(searcher).Price(context.Background(), query)
		assert.Equal(t, StatusNoResults, result.Status)
	}

	assert.Empty(t, searcher.Calls, "blank queries must not reach the search client")
}
