package vision

import "context"

// DetectedItem is one media item the vision model recognized in a photo.
type DetectedItem struct {
	// QueryText is a marketplace search query describing the item, e.g.
	// "Matrix DVD" or "PlayStation 5 FIFA 23".
	QueryText string `json:"query_text"`
}

// Analyzer can analyze a photo and extract sellable media items from it.
type Analyzer interface {
	// AnalyzeImage returns the detected items. An empty slice means nothing
	// was detected, which is a normal outcome and not an error.
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) ([]DetectedItem, error)
}

// QuerySuggester proposes alternative search queries for an item whose
// original query found nothing on the marketplace.
type QuerySuggester interface {
	// SuggestQueries returns up to 3 alternative queries plausibly
	// describing the same physical item. The result is empty (never nil)
	// when no usable suggestion is available.
	SuggestQueries(ctx context.Context, imageData []byte, mimeType string, failedQuery string) ([]string, error)
}
