package pricing

import (
	"math"
	"strconv"

	"flipscout/internal/ebay"
)

// Normalize converts one raw item summary into a comparable Listing.
// It returns nil when the base price is missing, non-numeric or negative;
// such listings must be dropped, never kept with a substitute price.
// A missing or malformed shipping cost is not an error and counts as 0.
func Normalize(item ebay.ItemSummary) *Listing {
	if item.Price == nil {
		return nil
	}
	// ParseFloat also accepts "NaN" and "Inf"; neither is a price.
	basePrice, err := strconv.ParseFloat(item.Price.Value, 64)
	if err != nil || basePrice < 0 || math.IsNaN(basePrice) || math.IsInf(basePrice, 0) {
		return nil
	}

	shippingCost := 0.0
	if len(item.ShippingOptions) > 0 && item.ShippingOptions[0].ShippingCost != nil {
		if cost, err := strconv.ParseFloat(item.ShippingOptions[0].ShippingCost.Value, 64); err == nil && cost > 0 && !math.IsInf(cost, 0) {
			shippingCost = cost
		}
	}

	return &Listing{
		Title:        item.Title,
		ItemID:       item.ItemID,
		URL:          item.ItemWebURL,
		Condition:    item.Condition,
		Currency:     item.Price.Currency,
		BasePrice:    basePrice,
		ShippingCost: shippingCost,
		TotalPrice:   basePrice + shippingCost,
	}
}
