package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsongs/internal/shared"
	"github.com/desertthunder/ytsongs/internal/songs"
	"github.com/desertthunder/ytsongs/internal/tasks"
	"github.com/desertthunder/ytsongs/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI previews the song list and runs the sync in the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	fileLogger, f, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer f.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	path, opts, err := r.syncOptions(ctx, cmd)
	if err != nil {
		return err
	}

	list, err := songs.Load(ctx, songs.FileSource{}, path, opts.RequireSongs)
	if err != nil {
		return err
	}

	engine := tasks.NewEngine(r.catalog, r.ledger, opts)
	run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
		return engine.Run(ctx, songs.FileSource{}, path, progress)
	}

	model := ui.NewModel(ctx, opts.Playlist.Title, list, run)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if _, err := model.Result(); err != nil {
		return err
	}
	return nil
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}
