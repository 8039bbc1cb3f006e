package vision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"flipscout/internal/storage"
)

// CachedAnalyzer wraps an Analyzer with SQLite caching so re-analyzing the
// same photo does not cost another model call.
type CachedAnalyzer struct {
	inner Analyzer
	store storage.Store
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, store storage.Store) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

// ImageHash returns the hex SHA-256 of the image bytes. It keys the vision
// cache and doubles as a stable scan identifier.
func ImageHash(imageData []byte) string {
	sum := sha256.Sum256(imageData)
	return hex.EncodeToString(sum[:])
}

// AnalyzeImage implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) ([]DetectedItem, error) {
	hash := ImageHash(imageData)

	if c.store != nil {
		cached, err := c.store.GetVisionCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check vision cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("vision cache hit")
			items := make([]DetectedItem, len(cached.Queries))
			for i, query := range cached.Queries {
				items[i] = DetectedItem{QueryText: query}
			}
			return items, nil
		}
	}

	items, err := c.inner.AnalyzeImage(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		queries := make([]string, len(items))
		for i, item := range items {
			queries[i] = item.QueryText
		}
		if err := c.store.SetVisionCache(hash, queries); err != nil {
			log.Warn().Err(err).Msg("failed to cache vision result")
		} else {
			log.Debug().Str("hash", hash[:16]).Int("items", len(items)).Msg("cached vision result")
		}
	}

	return items, nil
}
