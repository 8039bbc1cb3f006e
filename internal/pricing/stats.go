package pricing

import "sort"

// Aggregate computes min/median/max/count over the total prices of the
// given listings. It returns nil for an empty input — there are no
// zero-valued statistics. The input may be any subset of a search result;
// min/max/median are re-derived from the values and no pre-sorting is
// assumed.
func Aggregate(listings []Listing) *PriceStatistics {
	if len(listings) == 0 {
		return nil
	}

	prices := make([]float64, len(listings))
	for i, listing := range listings {
		prices[i] = listing.TotalPrice
	}
	sort.Float64s(prices)

	median := prices[len(prices)/2]
	if len(prices)%2 == 0 {
		median = (prices[len(prices)/2-1] + prices[len(prices)/2]) / 2
	}

	return &PriceStatistics{
		Min:    prices[0],
		Median: median,
		Max:    prices[len(prices)-1],
		Count:  len(prices),
	}
}
