package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/quota"
	"github.com/desertthunder/ytsongs/internal/services"
	"github.com/desertthunder/ytsongs/internal/shared"
	"github.com/desertthunder/ytsongs/internal/songs"
)

// RunResult contains all data from a reconciliation run.
type RunResult struct {
	RunID       string                       // Run history ID
	Playlist    *models.Playlist             // Target playlist, nil when there were no songs
	Created     bool                         // Whether the playlist was created by this run
	Songs       []string                     // Canonical songs in input order
	Resolutions map[string]models.Resolution // Search result per song
	Outcomes    map[string]models.Outcome    // Terminal classification per song
	Summary     models.RunSummary            // Counts and quota spend
}

// Ordered returns outcomes in input order.
func (r *RunResult) Ordered() []models.Outcome {
	out := make([]models.Outcome, 0, len(r.Songs))
	for _, song := range r.Songs {
		if o, ok := r.Outcomes[song]; ok {
			out = append(out, o)
		}
	}
	return out
}

// RunRecorder persists run history. repositories.RunRepository implements it.
type RunRecorder interface {
	Create(ctx context.Context, run *models.RunRecord) error
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	Playlist      PlaylistSpec
	SearchWorkers int
	InsertWorkers int
	RequireSongs  bool        // empty song lists are an input error
	Cache         SearchCache // defaults to a fresh [MemoryCache] per run
	Recorder      RunRecorder // optional
	Logger        *log.Logger
}

// EngineOptsFromConfig maps the engine and playlist sections of cfg.
func EngineOptsFromConfig(cfg *shared.Config) EngineOpts {
	return EngineOpts{
		Playlist:      PlaylistSpecFromConfig(cfg.Playlist),
		SearchWorkers: cfg.Engine.SearchWorkers,
		InsertWorkers: cfg.Engine.InsertWorkers,
		RequireSongs:  cfg.Engine.RequireSongs,
	}
}

// Engine runs the reconciliation pipeline against a catalog whose calls are charged to ledger.
type Engine struct {
	catalog services.Catalog
	ledger  *quota.Ledger
	opts    EngineOpts
	logger  *log.Logger
}

// NewEngine creates a new Engine. ledger should be the one catalog charges; it is only read here.
func NewEngine(catalog services.Catalog, ledger *quota.Ledger, opts EngineOpts) *Engine {
	if opts.Playlist.Title == "" {
		opts.Playlist = PlaylistSpecFromConfig(shared.PlaylistConfig{})
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{catalog: catalog, ledger: ledger, opts: opts, logger: logger}
}

// Run syncs the song list at path, read through src, into the configured playlist.
//
// Input errors are returned before any remote call is made. A quota rejection while ensuring the
// playlist fails every song without error; any other failure to ensure the playlist is fatal. Per-song
// failures never abort the run.
func (e *Engine) Run(ctx context.Context, src songs.Source, path string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	started := time.Now()
	list, err := songs.Load(ctx, src, path, e.opts.RequireSongs)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, loadedSongsUpdate(path, list))
	e.logger.Info("loaded songs", "path", path, "count", len(list))

	result := &RunResult{
		RunID:       shared.GenerateID(),
		Songs:       list,
		Resolutions: make(map[string]models.Resolution),
		Outcomes:    make(map[string]models.Outcome),
	}
	if len(list) == 0 {
		result.Summary = Summarize(result.Outcomes, e.ledger)
		sendProgress(progress, summaryUpdate(result.Summary))
		return result, nil
	}

	sendProgress(progress, ensuringPlaylistUpdate(e.opts.Playlist.Title))
	playlist, created, err := EnsurePlaylist(ctx, e.catalog, e.opts.Playlist)
	switch services.Classify(err) {
	case services.QuotaExceeded:
		e.logger.Error("quota exhausted before the playlist could be ensured", "error", err)
		for _, song := range list {
			result.Outcomes[song] = failed(song, "", err)
		}
		e.finish(ctx, result, started, progress)
		return result, nil
	case services.OtherError:
		return nil, fmt.Errorf("failed to ensure playlist: %w", err)
	}

	result.Playlist = playlist
	result.Created = created
	sendProgress(progress, playlistReadyUpdate(playlist, created))
	e.logger.Info("playlist ready", "id", playlist.ID, "title", playlist.Title, "created", created)

	cache := e.opts.Cache
	if cache == nil {
		cache = NewMemoryCache()
	}
	resolver := NewResolver(e.catalog, cache, e.opts.SearchWorkers, shared.WithLogger(e.logger, "component", "resolver"))
	result.Resolutions = resolver.ResolveAll(ctx, list, progress)

	reconciler := NewReconciler(e.catalog, e.opts.InsertWorkers, shared.WithLogger(e.logger, "component", "reconciler"))
	result.Outcomes = reconciler.Reconcile(ctx, playlist.ID, list, result.Resolutions, progress)

	e.finish(ctx, result, started, progress)
	return result, nil
}

// finish summarizes, logs and records the run. Recorder failures are logged and ignored.
func (e *Engine) finish(ctx context.Context, result *RunResult, started time.Time, progress chan<- ProgressUpdate) {
	result.Summary = Summarize(result.Outcomes, e.ledger)
	sendProgress(progress, summaryUpdate(result.Summary))

	s := result.Summary
	kv := []any{"total", s.Total, "added", s.Added, "already_present", s.AlreadyPresent,
		"no_match", s.NoMatchFound, "failed", s.Failed, "spent", s.Spent}
	if s.RemainingKnown {
		kv = append(kv, "remaining", s.Remaining)
	}
	if s.QuotaExhausted > 0 {
		kv = append(kv, "quota_exhausted", s.QuotaExhausted)
	}
	for _, u := range s.ByKind {
		kv = append(kv, u.Kind, fmt.Sprintf("%d/%d", u.Units, u.Calls))
	}
	if s.Remote != nil {
		kv = append(kv, "remote_remaining", s.Remote.Remaining)
	}
	shared.Summary(e.logger, "run complete", kv...)

	if e.opts.Recorder == nil {
		return
	}

	record := &models.RunRecord{
		ID:         result.RunID,
		Summary:    s,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if result.Playlist != nil {
		record.PlaylistID = result.Playlist.ID
		record.PlaylistTitle = result.Playlist.Title
	} else {
		record.PlaylistID = "-"
		record.PlaylistTitle = e.opts.Playlist.Title
	}
	if err := e.opts.Recorder.Create(context.WithoutCancel(ctx), record); err != nil {
		e.logger.Warn("failed to record run", "run_id", result.RunID, "error", err)
	}
}
