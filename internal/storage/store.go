package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// VisionCacheEntry is a cached vision analysis result: the detected
// marketplace queries for one image.
type VisionCacheEntry struct {
	Queries   []string
	CreatedAt time.Time
}

// HistoryEntry is one priced (or unpriceable) item recorded from a scan.
type HistoryEntry struct {
	ID           int64
	ScanID       string
	ItemID       string
	Query        string
	Status       string
	MinPrice     float64
	MedianPrice  float64
	MaxPrice     float64
	ListingCount int
	CreatedAt    time.Time
}

// Store defines the persistence operations used by the scanner.
type Store interface {
	GetVisionCache(imageHash string) (*VisionCacheEntry, error)
	SetVisionCache(imageHash string, queries []string) error

	AppendHistory(entry HistoryEntry) error
	RecentHistory(limit int) ([]HistoryEntry, error)

	Close() error
}

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	visionQuery := `
	CREATE TABLE IF NOT EXISTS vision_cache (
		image_hash TEXT PRIMARY KEY,
		queries TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(visionQuery); err != nil {
		return fmt.Errorf("failed to create vision_cache table: %w", err)
	}

	historyQuery := `
	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		query TEXT NOT NULL,
		status TEXT NOT NULL,
		min_price REAL NOT NULL DEFAULT 0,
		median_price REAL NOT NULL DEFAULT 0,
		max_price REAL NOT NULL DEFAULT 0,
		listing_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(historyQuery); err != nil {
		return fmt.Errorf("failed to create price_history table: %w", err)
	}

	return nil
}

// GetVisionCache returns the cached analysis for an image hash.
// Returns nil, nil when there is no cached entry.
func (s *SQLiteStore) GetVisionCache(imageHash string) (*VisionCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var queriesJSON string
	var createdAt time.Time

	err := s.db.QueryRow(
		"SELECT queries, created_at FROM vision_cache WHERE image_hash = ?",
		imageHash,
	).Scan(&queriesJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vision cache: %w", err)
	}

	var queries []string
	if err := json.Unmarshal([]byte(queriesJSON), &queries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached queries: %w", err)
	}

	return &VisionCacheEntry{Queries: queries, CreatedAt: createdAt}, nil
}

// SetVisionCache stores the detected queries for an image hash, replacing
// any previous entry.
func (s *SQLiteStore) SetVisionCache(imageHash string, queries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queriesJSON, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("failed to marshal queries: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO vision_cache (image_hash, queries) VALUES (?, ?)",
		imageHash, string(queriesJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to write vision cache: %w", err)
	}

	return nil
}

// AppendHistory records one item outcome from a scan.
func (s *SQLiteStore) AppendHistory(entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO price_history
		(scan_id, item_id, query, status, min_price, median_price, max_price, listing_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ScanID, entry.ItemID, entry.Query, entry.Status,
		entry.MinPrice, entry.MedianPrice, entry.MaxPrice, entry.ListingCount,
	)
	if err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}

	return nil
}

// RecentHistory returns the most recent history entries, newest first.
func (s *SQLiteStore) RecentHistory(limit int) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, scan_id, item_id, query, status, min_price, median_price, max_price, listing_count, created_at
		FROM price_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.ScanID, &e.ItemID, &e.Query, &e.Status,
			&e.MinPrice, &e.MedianPrice, &e.MaxPrice, &e.ListingCount, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
