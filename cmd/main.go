package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytsongs/internal/shared"
	"github.com/desertthunder/ytsongs/internal/songs"
	"github.com/urfave/cli/v3"
)

// exit codes
const (
	exitOK = iota
	exitError
	exitInput
	exitAuth
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		var inputErr *songs.InputError
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(exitOK)
		case errors.As(err, &inputErr), errors.Is(err, shared.ErrInvalidInput):
			logger.Error("invalid input", "error", err)
			os.Exit(exitInput)
		case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired),
			errors.Is(err, shared.ErrMissingCredentials):
			logger.Error("authentication required, run 'ytsongs auth login'", "error", err)
			os.Exit(exitAuth)
		default:
			logger.Error("application error", "error", err)
			os.Exit(exitError)
		}
	}
}

// newApp builds the root command around runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ytsongs",
		Usage:   "Sync a text file of songs into a YouTube playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("YTSONGS_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file with YOUTUBE_* credentials",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before:   runner.Before,
		Commands: runner.register(),
	}
}
