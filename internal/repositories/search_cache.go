package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytsongs/internal/models"
)

// SearchCacheRepository stores search results keyed by canonical song name.
//
// Entries are write-once: a second Put for the same song keeps the first result.
type SearchCacheRepository struct {
	db *sql.DB
}

// NewSearchCacheRepository creates a new SearchCacheRepository with the given database connection
func NewSearchCacheRepository(db *sql.DB) *SearchCacheRepository {
	return &SearchCacheRepository{db: db}
}

// Get returns the cached entry for song, or found=false when there is none.
func (r *SearchCacheRepository) Get(ctx context.Context, song string) (*models.CacheEntry, bool, error) {
	query := `
		SELECT song, video_id, no_match, created_at
		FROM search_cache
		WHERE song = ?
	`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, song))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return entry, true, nil
}

// Put records a search result. Existing entries are left untouched.
func (r *SearchCacheRepository) Put(ctx context.Context, entry models.CacheEntry) error {
	if entry.Song == "" {
		return fmt.Errorf("cache entry requires a song")
	}
	if !entry.NoMatch && entry.VideoID == "" {
		return fmt.Errorf("cache entry for %q has neither a video id nor no_match", entry.Song)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT OR IGNORE INTO search_cache (song, video_id, no_match, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, entry.Song, entry.VideoID, entry.NoMatch, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// List returns every cached entry ordered by song.
func (r *SearchCacheRepository) List(ctx context.Context) ([]models.CacheEntry, error) {
	query := `
		SELECT song, video_id, no_match, created_at
		FROM search_cache
		ORDER BY song
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []models.CacheEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cache entries: %w", err)
	}
	return entries, nil
}

// Clear removes every entry and returns how many were deleted.
func (r *SearchCacheRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM search_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	if err := s.Scan(&entry.Song, &entry.VideoID, &entry.NoMatch, &entry.CreatedAt); err != nil {
		return nil, err
	}
	if entry.NoMatch {
		entry.VideoID = ""
	}
	return &entry, nil
}
