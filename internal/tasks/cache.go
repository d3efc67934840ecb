package tasks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsongs/internal/models"
)

// SearchCache memoizes search results by canonical song.
//
// Only [models.Resolved] and [models.NoMatch] results are stored, and the first result stored for a song
// wins. Hits are returned with Cached set.
type SearchCache interface {
	Get(ctx context.Context, song string) (models.Resolution, bool)
	Put(ctx context.Context, r models.Resolution)
}

// MemoryCache is a [SearchCache] whose lifetime is a single run.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.Resolution
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]models.Resolution)}
}

func (c *MemoryCache) Get(_ context.Context, song string) (models.Resolution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[song]
	if ok {
		r.Cached = true
	}
	return r, ok
}

func (c *MemoryCache) Put(_ context.Context, r models.Resolution) {
	if !cacheable(r) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[r.Song]; exists {
		return
	}
	r.Cached = false
	r.Err = nil
	c.entries[r.Song] = r
}

func cacheable(r models.Resolution) bool {
	switch r.Status {
	case models.Resolved:
		return r.Song != "" && r.VideoID != ""
	case models.NoMatch:
		return r.Song != ""
	default:
		return false
	}
}

// CacheStore persists search results across runs. repositories.SearchCacheRepository implements it.
type CacheStore interface {
	Get(ctx context.Context, song string) (*models.CacheEntry, bool, error)
	Put(ctx context.Context, entry models.CacheEntry) error
}

// PersistentCache layers a [MemoryCache] over a [CacheStore].
//
// Store errors are logged and otherwise ignored so a broken database degrades to in-memory caching.
type PersistentCache struct {
	mem    *MemoryCache
	store  CacheStore
	logger *log.Logger
}

// NewPersistentCache creates a cache backed by store.
func NewPersistentCache(store CacheStore, logger *log.Logger) *PersistentCache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PersistentCache{mem: NewMemoryCache(), store: store, logger: logger}
}

func (c *PersistentCache) Get(ctx context.Context, song string) (models.Resolution, bool) {
	if r, ok := c.mem.Get(ctx, song); ok {
		return r, true
	}

	entry, found, err := c.store.Get(ctx, song)
	if err != nil {
		c.logger.Debug("search cache read failed", "song", song, "error", err)
		return models.Resolution{}, false
	}
	if !found {
		return models.Resolution{}, false
	}

	r := entry.Resolution()
	c.mem.Put(ctx, r)
	return r, true
}

func (c *PersistentCache) Put(ctx context.Context, r models.Resolution) {
	if !cacheable(r) {
		return
	}
	c.mem.Put(ctx, r)

	entry := models.CacheEntry{
		Song:      r.Song,
		VideoID:   r.VideoID,
		NoMatch:   r.Status == models.NoMatch,
		CreatedAt: time.Now(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Debug("search cache write failed", "song", r.Song, "error", err)
	}
}
