package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ytsongs/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CacheList prints the persisted search cache.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	entries, err := repositories.NewSearchCacheRepository(db).List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Cached searches (%d)", len(entries)))
	for _, e := range entries {
		target := e.VideoID
		if e.NoMatch {
			target = "(no match)"
		}
		r.writePlain("%s → %s\n", e.Song, target)
	}
	return nil
}

// CacheClear deletes every cached search.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	n, err := repositories.NewSearchCacheRepository(db).Clear(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("cache cleared", "entries", n)
	return r.writePlain("✓ Removed %d cached searches\n", n)
}

// RunsList prints the most recent runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	runs, err := repositories.NewRunRepository(db).List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Runs (%d)", len(runs)))
	for _, run := range runs {
		s := run.Summary
		r.writePlain("#%d %s  %s  +%d =%d ?%d ✗%d  %d units\n",
			run.Sequence, run.StartedAt.Local().Format(time.DateTime), run.PlaylistTitle,
			s.Added, s.AlreadyPresent, s.NoMatchFound, s.Failed, s.Spent)
	}
	return nil
}
