package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytsongs/internal/formatter"
	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/repositories"
	"github.com/desertthunder/ytsongs/internal/shared"
	"github.com/desertthunder/ytsongs/internal/songs"
	"github.com/desertthunder/ytsongs/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync loads the song list and reconciles it against the target playlist.
//
// Per-song failures, including quota exhaustion, are reported in the summary and do not fail the command.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	path, opts, err := r.syncOptions(ctx, cmd)
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	r.logger.Info("starting sync", "path", path, "playlist", opts.Playlist.Title)

	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if useJSON {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}
			r.printProgress(update)
		}
	}()

	engine := tasks.NewEngine(r.catalog, r.ledger, opts)
	result, err := engine.Run(ctx, songs.FileSource{}, path, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	report := newReport(result)
	if out := cmd.String("report"); out != "" {
		if err := formatter.WriteReport(report, out, ""); err != nil {
			return err
		}
		r.logger.Info("report written", "path", out)
	}

	if useJSON {
		data, err := formatter.ExportToJSON(report, cmd.Bool("pretty"))
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return r.writeBytes(data)
	}

	r.writePlain("\n")
	return r.writePlain("%s", r.palette.Render(report, cmd.Bool("verbose")))
}

// syncOptions resolves the song list path and engine options for the sync and tui commands, authorizing
// the catalog on first use.
func (r *Runner) syncOptions(ctx context.Context, cmd *cli.Command) (string, tasks.EngineOpts, error) {
	path := cmd.StringArg("path")
	if path == "" {
		path = r.config.Songs.Path
	}
	if path == "" {
		return "", tasks.EngineOpts{}, fmt.Errorf("%w: song list path", shared.ErrMissingArgument)
	}

	spec, err := r.playlistSpec(cmd)
	if err != nil {
		return "", tasks.EngineOpts{}, err
	}
	if budget := cmd.Int("budget"); budget >= 0 {
		r.config.Quota.Budget = budget
	}
	if err := r.ensureCatalog(ctx); err != nil {
		return "", tasks.EngineOpts{}, err
	}

	opts := tasks.EngineOptsFromConfig(r.config)
	opts.Playlist = spec
	opts.Logger = r.logger
	if n := cmd.Int("search-workers"); n > 0 {
		opts.SearchWorkers = n
	}
	if n := cmd.Int("insert-workers"); n > 0 {
		opts.InsertWorkers = n
	}
	if cmd.Bool("allow-empty") {
		opts.RequireSongs = false
	}
	if db, err := r.database(); err != nil {
		r.logger.Debug("run history disabled", "error", err)
	} else {
		opts.Recorder = repositories.NewRunRepository(db)
		if cmd.Bool("cache") || r.config.Engine.PersistCache {
			opts.Cache = tasks.NewPersistentCache(repositories.NewSearchCacheRepository(db), r.logger)
		}
	}
	return path, opts, nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.PhaseLoad:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.PhaseEnsure:
		if update.Step > 0 {
			r.writePlain("📝 %s\n", update.Message)
		}
	case tasks.PhaseResolve, tasks.PhaseInsert:
		r.writePlain("   %s\n", update.Message)
	case tasks.PhaseMembership:
		r.writePlain("\n🔍 %s\n", update.Message)
	}
}

func newReport(result *tasks.RunResult) *formatter.Report {
	return &formatter.Report{
		RunID:    result.RunID,
		Playlist: result.Playlist,
		Created:  result.Created,
		Outcomes: result.Ordered(),
		Summary:  result.Summary,
	}
}

// playlistSpec layers the playlist flags over the configured playlist.
func (r *Runner) playlistSpec(cmd *cli.Command) (tasks.PlaylistSpec, error) {
	spec := tasks.PlaylistSpecFromConfig(r.config.Playlist)
	if v := cmd.String("title"); v != "" {
		spec.Title = v
	}
	if v := cmd.String("description"); v != "" {
		spec.Description = v
	}
	if v := cmd.String("privacy"); v != "" {
		switch v {
		case "public", "private", "unlisted":
			spec.Privacy = v
		default:
			return spec, fmt.Errorf("%w: privacy %q (must be public, private or unlisted)", shared.ErrInvalidArgument, v)
		}
	}
	return spec, nil
}

// PlaylistEnsure finds or creates the target playlist without touching its items.
func (r *Runner) PlaylistEnsure(ctx context.Context, cmd *cli.Command) error {
	spec, err := r.playlistSpec(cmd)
	if err != nil {
		return err
	}
	if err := r.ensureCatalog(ctx); err != nil {
		return err
	}

	playlist, created, err := tasks.EnsurePlaylist(ctx, r.catalog, spec)
	if err != nil {
		return err
	}
	r.logger.Info("playlist ready", "id", playlist.ID, "created", created)

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			*models.Playlist
			Created bool `json:"created"`
		}{playlist, created}, cmd.Bool("pretty"))
	}

	verb := "Found"
	if created {
		verb = "Created"
	}
	return r.writePlain("✓ %s playlist: %s (ID: %s)\n", verb, playlist.Title, playlist.ID)
}

// PlaylistList prints the account's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureCatalog(ctx); err != nil {
		return err
	}

	playlists, err := r.catalog.ListPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for i, p := range playlists {
		r.writePlain("%d. %s [%s] (ID: %s)\n", i+1, p.Title, p.Privacy, p.ID)
	}
	return nil
}

// Search resolves one song through the same cache and search path as sync.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	song := songs.Canonicalize(cmd.StringArg("query"))
	if song == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if err := r.ensureCatalog(ctx); err != nil {
		return err
	}

	var cache tasks.SearchCache
	if cmd.Bool("cache") {
		db, err := r.database()
		if err != nil {
			return err
		}
		cache = tasks.NewPersistentCache(repositories.NewSearchCacheRepository(db), r.logger)
	}

	res := tasks.NewResolver(r.catalog, cache, 1, r.logger).Resolve(ctx, song)
	if res.Status == models.Unresolved {
		return fmt.Errorf("search for %q failed: %w", song, res.Err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"song":     res.Song,
			"status":   res.Status.String(),
			"video_id": res.VideoID,
			"cached":   res.Cached,
		}, cmd.Bool("pretty"))
	}

	if res.Status == models.NoMatch {
		return r.writePlain("✗ No match for %q\n", song)
	}
	cached := ""
	if res.Cached {
		cached = " (cached)"
	}
	return r.writePlain("✓ %s → https://www.youtube.com/watch?v=%s%s\n", song, res.VideoID, cached)
}
