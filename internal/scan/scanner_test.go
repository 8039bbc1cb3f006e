package scan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipscout/internal/pricing"
	"flipscout/internal/storage"
	"flipscout/internal/vision"
)

type fakeAnalyzer struct {
	items []vision.DetectedItem
	err   error
}

func (f *fakeAnalyzer) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) ([]vision.DetectedItem, error) {
	return f.items, f.err
}

func TestScanPricesItemsInDetectionOrder(t *testing.T) {
	analyzer := &fakeAnalyzer{items: []vision.DetectedItem{
		{QueryText: "Matrix DVD"},
		{QueryText: "Harry Potter Buch"},
	}}
	pricer := &fakePricer{priced: map[string]pricing.QueryResult{
		"Matrix DVD": pricedResult("Matrix DVD", 12.0),
	}}
	scanner := NewScanner(analyzer, pricer, nil)

	result, err := scanner.Scan(context.Background(), []byte("image-bytes"), "image/jpeg")

	require.Nil(t, err)
	assert.Equal(t, []string{"Matrix DVD", "Harry Potter Buch"}, pricer.queries)

	require.Len(t, result.Items, 2)
	assert.Equal(t, pricing.StatusPriced, result.Items[0].Result.Status)
	assert.Equal(t, pricing.StatusNoResults, result.Items[1].Result.Status)
}

func TestScanItemIDsAreStablePerImage(t *testing.T) {
	analyzer := &fakeAnalyzer{items: []vision.DetectedItem{
		{QueryText: "Matrix DVD"},
		{QueryText: "FIFA 23 PS5"},
	}}
	scanner := NewScanner(analyzer, &fakePricer{}, nil)

	first, err := scanner.Scan(context.Background(), []byte("same-image"), "image/jpeg")
	require.Nil(t, err)
	second, err := scanner.Scan(context.Background(), []byte("same-image"), "image/jpeg")
	require.Nil(t, err)

	assert.Equal(t, first.ScanID, second.ScanID)
	assert.Equal(t, first.Items[0].ID, second.Items[0].ID)
	assert.NotEqual(t, first.Items[0].ID, first.Items[1].ID)
}

func TestScanSkipsBlankQueries(t *testing.T) {
	analyzer := &fakeAnalyzer{items: []vision.DetectedItem{
		{QueryText: ""},
		{QueryText: "Matrix DVD"},
	}}
	pricer := &fakePricer{}
	scanner := NewScanner(analyzer, pricer, nil)

	result, err := scanner.Scan(context.Background(), []byte("image"), "image/jpeg")

	require.Nil(t, err)
	assert.Equal(t, []string{"Matrix DVD"}, pricer.queries)
	assert.Len(t, result.Items, 1)
}

func TestScanNothingDetectedIsNotAnError(t *testing.T) {
	scanner := NewScanner(&fakeAnalyzer{}, &fakePricer{}, nil)

	result, err := scanner.Scan(context.Background(), []byte("empty-shelf"), "image/jpeg")

	require.Nil(t, err)
	assert.Empty(t, result.Items)
}

func TestScanRecordsHistory(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.Nil(t, err)
	defer store.Close()

	analyzer := &fakeAnalyzer{items: []vision.DetectedItem{{QueryText: "Matrix DVD"}}}
	pricer := &fakePricer{priced: map[string]pricing.QueryResult{
		"Matrix DVD": pricedResult("Matrix DVD", 12.0),
	}}
	scanner := NewScanner(analyzer, pricer, store)

	result, err := scanner.Scan(context.Background(), []byte("image"), "image/jpeg")
	require.Nil(t, err)

	entries, err := store.RecentHistory(10)
	require.Nil(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.ScanID, entries[0].ScanID)
	assert.Equal(t, "Matrix DVD", entries[0].Query)
	assert.Equal(t, string(pricing.StatusPriced), entries[0].Status)
	assert.Equal(t, 12.0, entries[0].MedianPrice)
	assert.Equal(t, 1, entries[0].ListingCount)
}
