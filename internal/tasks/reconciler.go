package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/services"
	"golang.org/x/sync/semaphore"
)

const defaultInsertWorkers = 1

// Reconciler brings a playlist in line with a set of resolved songs.
type Reconciler struct {
	catalog services.Catalog
	workers int
	logger  *log.Logger
}

// NewReconciler creates a reconciler that keeps at most workers inserts in flight.
func NewReconciler(catalog services.Catalog, workers int, logger *log.Logger) *Reconciler {
	if workers <= 0 {
		workers = defaultInsertWorkers
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reconciler{catalog: catalog, workers: workers, logger: logger}
}

// videoGroup is every song that resolved to one video, in input order.
type videoGroup struct {
	videoID string
	songs   []string
}

// Reconcile classifies every song in songs and inserts the videos missing from the playlist.
//
// Songs already in the playlist are [models.AlreadyPresent] and are never submitted. Songs that share a
// video are inserted once: the first is [models.Added] and the rest are AlreadyPresent. A quota rejection
// fails every insert not yet dispatched while confirmed inserts stay Added. When the membership snapshot
// cannot be read, nothing is inserted and every resolved song fails with that error.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	playlistID string,
	songs []string,
	resolutions map[string]models.Resolution,
	progress chan<- ProgressUpdate,
) map[string]models.Outcome {
	outcomes := newWriteOnce[models.Outcome](len(songs))

	var groups []*videoGroup
	byVideo := make(map[string]*videoGroup)
	for _, song := range songs {
		res, ok := resolutions[song]
		switch {
		case !ok:
			outcomes.set(song, failed(song, "", fmt.Errorf("song was never resolved")))
		case res.Status == models.NoMatch:
			outcomes.set(song, models.Outcome{Song: song, Kind: models.NoMatchFound})
		case res.Status == models.Unresolved || res.VideoID == "":
			outcomes.set(song, failed(song, "", res.Err))
		default:
			g, exists := byVideo[res.VideoID]
			if !exists {
				g = &videoGroup{videoID: res.VideoID}
				byVideo[res.VideoID] = g
				groups = append(groups, g)
			}
			g.songs = append(g.songs, song)
		}
	}

	if len(groups) == 0 {
		return outcomes.snapshot()
	}

	present, err := r.membership(ctx, playlistID)
	if err != nil {
		r.logger.Error("failed to read playlist items", "playlist_id", playlistID, "error", err)
		for _, g := range groups {
			r.settle(outcomes, g, err)
		}
		return outcomes.snapshot()
	}
	sendProgress(progress, membershipUpdate(playlistID, len(present)))

	var pending []*videoGroup
	for _, g := range groups {
		if present[g.videoID] {
			for _, song := range g.songs {
				outcomes.set(song, models.Outcome{Song: song, Kind: models.AlreadyPresent, VideoID: g.videoID})
			}
			continue
		}
		pending = append(pending, g)
	}

	r.insertAll(ctx, playlistID, pending, outcomes, progress)
	return outcomes.snapshot()
}

func (r *Reconciler) membership(ctx context.Context, playlistID string) (map[string]bool, error) {
	ids, err := r.catalog.ListPlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	return present, nil
}

func (r *Reconciler) insertAll(
	ctx context.Context,
	playlistID string,
	pending []*videoGroup,
	outcomes *writeOnce[models.Outcome],
	progress chan<- ProgressUpdate,
) {
	var (
		stopped atomic.Bool
		done    atomic.Int64
		wg      sync.WaitGroup
	)
	total := len(pending)
	sem := semaphore.NewWeighted(int64(r.workers))
	report := func(g *videoGroup, err error) {
		r.settle(outcomes, g, err)
		o, _ := outcomes.get(g.songs[0])
		sendProgress(progress, insertedUpdate(int(done.Add(1)), total, o))
	}

	for _, g := range pending {
		if stopped.Load() {
			report(g, quotaSkipped("insert"))
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			report(g, err)
			continue
		}
		if stopped.Load() {
			sem.Release(1)
			report(g, quotaSkipped("insert"))
			continue
		}

		wg.Add(1)
		go func(g *videoGroup) {
			defer wg.Done()
			defer sem.Release(1)

			err := r.catalog.InsertPlaylistItem(ctx, playlistID, g.videoID)
			switch services.Classify(err) {
			case services.QuotaExceeded:
				if stopped.CompareAndSwap(false, true) {
					r.logger.Warn("insert quota exhausted, skipping remaining inserts", "video_id", g.videoID)
				}
			case services.OtherError:
				r.logger.Error("insert failed", "video_id", g.videoID, "songs", g.songs, "error", err)
			default:
				r.logger.Debug("inserted", "video_id", g.videoID, "songs", g.songs)
			}
			report(g, err)
		}(g)
	}
	wg.Wait()
}

// settle writes the outcome of one insert, or of a failure, to every song in g.
func (r *Reconciler) settle(outcomes *writeOnce[models.Outcome], g *videoGroup, err error) {
	for i, song := range g.songs {
		switch {
		case err != nil:
			outcomes.set(song, failed(song, g.videoID, err))
		case i == 0:
			outcomes.set(song, models.Outcome{Song: song, Kind: models.Added, VideoID: g.videoID})
		default:
			outcomes.set(song, models.Outcome{Song: song, Kind: models.AlreadyPresent, VideoID: g.videoID})
		}
	}
}

func failed(song, videoID string, err error) models.Outcome {
	if err == nil {
		err = fmt.Errorf("no video resolved")
	}
	return models.Outcome{Song: song, Kind: models.Failed, VideoID: videoID, Err: asTransient(err)}
}
