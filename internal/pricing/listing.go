// Package pricing turns marketplace search results into comparable prices
// and summary statistics for a single item query.
package pricing

// Status tags the outcome of pricing one query.
type Status string

const (
	// StatusPriced means at least one comparable listing was found.
	StatusPriced Status = "priced"
	// StatusNoResults means the search succeeded but the market had nothing
	// comparable. This is a normal outcome, not an error.
	StatusNoResults Status = "no_results"
	// StatusSearchFailed means the search call itself failed (auth, network,
	// non-2xx). Kept distinct from StatusNoResults so an outage is never
	// mistaken for "item has no market".
	StatusSearchFailed Status = "search_failed"
)

// Listing is one marketplace offer normalized for comparison. TotalPrice is
// the only figure used for ranking and statistics.
type Listing struct {
	Title        string
	ItemID       string
	URL          string
	Condition    string
	Currency     string
	BasePrice    float64
	ShippingCost float64
	TotalPrice   float64
}

// PriceStatistics summarizes total prices over a non-empty listing set.
type PriceStatistics struct {
	Min    float64
	Median float64
	Max    float64
	Count  int
}

// QueryResult is the outcome of pricing one item description.
// Listings are sorted ascending by TotalPrice. Stats is non-nil exactly
// when Status is StatusPriced.
type QueryResult struct {
	Query    string
	Listings []Listing
	Stats    *PriceStatistics
	Status   Status
}
