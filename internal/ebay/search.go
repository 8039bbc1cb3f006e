package ebay

import (
	"context"
	"fmt"
	"strings"
)

// Used item conditions accepted for price comparison. The exact set and
// order match the Browse API condition filter grammar.
var UsedConditions = []string{"USED", "VERY_GOOD", "GOOD", "ACCEPTABLE"}

// SearchOpts contains search parameters for the Browse API.
type SearchOpts struct {
	Limit      int      // Result cap, 1-200
	Conditions []string // Optional condition filter; empty means unfiltered
}

// ConvertedAmount is a monetary value as the API returns it: the amount is
// a decimal string, not a number.
type ConvertedAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// ShippingOption is one way of getting an item delivered.
type ShippingOption struct {
	ShippingCostType string           `json:"shippingCostType,omitempty"`
	ShippingCost     *ConvertedAmount `json:"shippingCost,omitempty"`
}

// ItemSummary is a single raw search result.
type ItemSummary struct {
	ItemID          string           `json:"itemId"`
	Title           string           `json:"title"`
	Condition       string           `json:"condition,omitempty"`
	Price           *ConvertedAmount `json:"price,omitempty"`
	ShippingOptions []ShippingOption `json:"shippingOptions,omitempty"`
	ItemWebURL      string           `json:"itemWebUrl,omitempty"`
}

type searchResponse struct {
	ItemSummaries []ItemSummary `json:"itemSummaries"`
	Total         int           `json:"total"`
}

// Search performs a Browse API item summary search. An empty result is a
// normal outcome and returns a nil slice with a nil error; callers must not
// treat an error and an empty result as the same thing.
func (c *Client) Search(ctx context.Context, query string, opts SearchOpts) ([]ItemSummary, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &searchResponse{}
	req := c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParam("q", query).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(result)

	if len(opts.Conditions) > 0 {
		req.SetQueryParam("filter", conditionFilter(opts.Conditions))
	}

	if _, err := handleError(req.Get("/buy/browse/v1/item_summary/search")); err != nil {
		return nil, err
	}

	return result.ItemSummaries, nil
}

// conditionFilter renders the Browse API filter expression, e.g.
// conditions:{USED|VERY_GOOD|GOOD|ACCEPTABLE}
func conditionFilter(conditions []string) string {
	return fmt.Sprintf("conditions:{%s}", strings.Join(conditions, "|"))
}
