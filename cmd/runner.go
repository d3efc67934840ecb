package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsongs/internal/formatter"
	"github.com/desertthunder/ytsongs/internal/quota"
	"github.com/desertthunder/ytsongs/internal/services"
	"github.com/desertthunder/ytsongs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	ledger     *quota.Ledger
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	palette    *formatter.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and Ledger are built from the stored OAuth token on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Ledger     *quota.Ledger
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		ledger:     opts.Ledger,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    formatter.DefaultPalette,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, tuiCommand, playlistCommand, searchCommand, authCommand, setupCommand, cacheCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies --log-level.
//
// A missing file at the default path falls back to the embedded defaults; a missing file that was
// asked for explicitly is an error.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if lvl := cmd.String("log-level"); lvl != "" {
		level, err := log.ParseLevel(lvl)
		if err != nil {
			return ctx, fmt.Errorf("%w: log level %q", shared.ErrInvalidArgument, lvl)
		}
		shared.SetLogLevel(r.logger, level)
	}

	path := cmd.String("config")
	r.configPath = path

	switch _, err := os.Stat(path); {
	case err == nil:
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	case errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config"):
		r.logger.Debug("config file not found, using defaults", "path", path)
	default:
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if err := r.config.ApplyEnv(cmd.IsSet("env-file"), cmd.String("env-file")); err != nil {
		return ctx, err
	}
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// tokenStore is where the OAuth token for the configured account lives.
func (r *Runner) tokenStore() services.TokenStore {
	path := r.config.Credentials.YouTube.TokenPath
	if path == "" {
		path = "oauth_token.json"
	}
	return services.TokenStore{Path: path}
}

// ensureCatalog authorizes against the stored token and builds the YouTube client once.
func (r *Runner) ensureCatalog(ctx context.Context) error {
	if r.catalog != nil {
		return nil
	}

	if r.ledger == nil {
		r.ledger = quota.NewLedger(r.config.Quota.Budget, quota.CostsFromConfig(r.config.Quota))
	}

	api, err := services.Authorize(ctx, r.config, r.tokenStore())
	if err != nil {
		return err
	}
	r.catalog = services.NewYouTubeService(api, r.ledger)
	return nil
}

// database opens the configured database once, running migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// Close releases the database when one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return r.writeBytes(output)
}

func (r *Runner) writeBytes(output []byte) error {
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
