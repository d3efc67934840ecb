package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/services"
	"github.com/desertthunder/ytsongs/internal/shared"
	"golang.org/x/sync/singleflight"
)

const defaultSearchWorkers = 4

// Resolver maps canonical songs to videos through a [SearchCache] and the catalog's search.
type Resolver struct {
	catalog services.Catalog
	cache   SearchCache
	workers int
	logger  *log.Logger
	flights singleflight.Group
}

// NewResolver creates a resolver. A nil cache gets a fresh [MemoryCache] and a non-positive worker count
// uses the default.
func NewResolver(catalog services.Catalog, cache SearchCache, workers int, logger *log.Logger) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if workers <= 0 {
		workers = defaultSearchWorkers
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{catalog: catalog, cache: cache, workers: workers, logger: logger}
}

// ResolveAll resolves every song with at most workers searches in flight.
//
// A quota rejection stops the pass: searches already in flight finish, and every song not yet dispatched is
// left [models.Unresolved] with an error wrapping [shared.ErrQuotaExhausted]. Any other failure affects only
// its own song. The returned map has exactly one entry per distinct song.
func (r *Resolver) ResolveAll(ctx context.Context, songs []string, progress chan<- ProgressUpdate) map[string]models.Resolution {
	results := newWriteOnce[models.Resolution](len(songs))
	total := len(songs)

	var (
		stopped atomic.Bool
		done    atomic.Int64
	)
	record := func(res models.Resolution) {
		if results.set(res.Song, res) {
			sendProgress(progress, resolvedUpdate(int(done.Add(1)), total, res))
		}
	}

	jobs := make(chan string, len(songs))
	for _, song := range songs {
		if hit, ok := r.cache.Get(ctx, song); ok {
			hit.Song = song
			record(hit)
			continue
		}
		jobs <- song
	}
	close(jobs)

	var wg sync.WaitGroup
	for range min(r.workers, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for song := range jobs {
				if stopped.Load() {
					record(models.Resolution{Song: song, Status: models.Unresolved, Err: quotaSkipped("search")})
					continue
				}
				if err := ctx.Err(); err != nil {
					record(unresolved(song, err))
					continue
				}

				res := r.Resolve(ctx, song)
				if res.QuotaExhausted() && stopped.CompareAndSwap(false, true) {
					r.logger.Warn("search quota exhausted, skipping remaining searches", "song", song)
				}
				record(res)
			}
		}()
	}
	wg.Wait()

	return results.snapshot()
}

// Resolve resolves a single song, consulting the cache first.
//
// Concurrent calls for the same song share one search.
func (r *Resolver) Resolve(ctx context.Context, song string) models.Resolution {
	if hit, ok := r.cache.Get(ctx, song); ok {
		hit.Song = song
		return hit
	}

	v, _, _ := r.flights.Do(song, func() (any, error) {
		if hit, ok := r.cache.Get(ctx, song); ok {
			return hit, nil
		}
		return r.search(ctx, song), nil
	})

	res := v.(models.Resolution)
	res.Song = song
	return res
}

func (r *Resolver) search(ctx context.Context, song string) models.Resolution {
	id, found, err := r.catalog.Search(ctx, song)

	switch services.Classify(err) {
	case services.QuotaExceeded:
		r.logger.Debug("search refused for quota", "song", song, "error", err)
		return unresolved(song, err)
	case services.OtherError:
		r.logger.Error("search failed", "song", song, "error", err)
		return unresolved(song, err)
	}

	res := models.Resolution{Song: song, Status: models.NoMatch}
	if found {
		res.Status = models.Resolved
		res.VideoID = id
	}
	r.logger.Debug("resolved", "song", song, "status", res.Status, "video_id", id)

	r.cache.Put(ctx, res)
	return res
}

func unresolved(song string, err error) models.Resolution {
	return models.Resolution{Song: song, Status: models.Unresolved, Err: asTransient(err)}
}

// asTransient tags err with [shared.ErrTransient] unless it is already quota or transient.
func asTransient(err error) error {
	if errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, shared.ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrTransient, err)
}

// quotaSkipped is the error for work of kind that was never dispatched because quota ran out.
func quotaSkipped(kind string) error {
	return fmt.Errorf("%w: %s skipped after quota rejection", shared.ErrQuotaExhausted, kind)
}
