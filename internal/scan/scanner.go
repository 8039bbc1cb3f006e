// Package scan ties the vision analyzer and the pricing pipeline together
// into whole-photo scans, and owns the retry lifecycle for items whose
// query found nothing on the marketplace.
package scan

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"flipscout/internal/pricing"
	"flipscout/internal/storage"
	"flipscout/internal/vision"
)

// Pricer abstracts the pricing pipeline for the scan layer.
type Pricer interface {
	Price(ctx context.Context, query string) pricing.QueryResult
}

// Ensure Pipeline implements Pricer
var _ Pricer = (*pricing.Pipeline)(nil)

// ItemResult is the pricing outcome for one detected item. The ID is stable
// for the lifetime of the session and keys the retry state.
type ItemResult struct {
	ID     string
	Query  string
	Result pricing.QueryResult
}

// ScanResult holds the outcome of scanning one photo.
type ScanResult struct {
	ScanID string
	Items  []ItemResult
}

// Scanner prices every media item detected in a photo. Items are processed
// strictly in detection order, one search at a time; the collaborator APIs
// are rate-limited and the latency bottleneck, so there is nothing to gain
// from issuing searches concurrently.
type Scanner struct {
	analyzer vision.Analyzer
	pricer   Pricer
	history  storage.Store
}

// NewScanner creates a scanner. history may be nil, in which case scan
// outcomes are not recorded.
func NewScanner(analyzer vision.Analyzer, pricer Pricer, history storage.Store) *Scanner {
	return &Scanner{analyzer: analyzer, pricer: pricer, history: history}
}

// Scan analyzes the photo and prices each detected item. Detecting nothing
// is a normal outcome and yields a result with no items.
func (s *Scanner) Scan(ctx context.Context, imageData []byte, mimeType string) (*ScanResult, error) {
	scanID := vision.ImageHash(imageData)[:12]

	detected, err := s.analyzer.AnalyzeImage(ctx, imageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}
	log.Info().Str("scanId", scanID).Int("detected", len(detected)).Msg("analyzed image")

	result := &ScanResult{ScanID: scanID}
	for idx, item := range detected {
		if item.QueryText == "" {
			continue
		}

		itemID := fmt.Sprintf("%s-%d", scanID, idx)
		queryResult := s.pricer.Price(ctx, item.QueryText)
		result.Items = append(result.Items, ItemResult{
			ID:     itemID,
			Query:  item.QueryText,
			Result: queryResult,
		})

		s.record(scanID, itemID, queryResult)
	}

	return result, nil
}

// record appends the item outcome to the price history, if configured.
func (s *Scanner) record(scanID, itemID string, result pricing.QueryResult) {
	if s.history == nil {
		return
	}

	entry := storage.HistoryEntry{
		ScanID: scanID,
		ItemID: itemID,
		Query:  result.Query,
		Status: string(result.Status),
	}
	if result.Stats != nil {
		entry.MinPrice = result.Stats.Min
		entry.MedianPrice = result.Stats.Median
		entry.MaxPrice = result.Stats.Max
		entry.ListingCount = result.Stats.Count
	}

	if err := s.history.AppendHistory(entry); err != nil {
		log.Warn().Err(err).Str("itemId", itemID).Msg("failed to record price history")
	}
}
