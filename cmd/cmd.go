// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func playlistFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "title",
			Aliases: []string{"t"},
			Usage:   "Target playlist title (matched exactly)",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Description used when the playlist is created",
		},
		&cli.StringFlag{
			Name:  "privacy",
			Usage: "Privacy used when the playlist is created (public, private, unlisted)",
		},
	}
}

// syncCommand reconciles a song list against the target playlist.
func syncCommand(r *Runner) *cli.Command {
	flags := append(playlistFlags(), outputFlags()...)
	flags = append(flags, engineFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:    "report",
			Aliases: []string{"o"},
			Usage:   "Write a report file (.csv, .md, .txt or .json)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "List every song in the summary",
		},
	)

	return &cli.Command{
		Name:  "sync",
		Usage: "Add every song in a text file to the playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags:  flags,
		Action: r.Sync,
	}
}

// tuiCommand runs sync in the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	flags := append(playlistFlags(), engineFlags()...)
	flags = append(flags, &cli.StringFlag{
		Name:  "log-file",
		Usage: "Log destination while the UI owns the terminal",
		Value: "./tmp/ytsongs-tui.log",
	})

	return &cli.Command{
		Name:  "tui",
		Usage: "Preview the song list and sync it interactively",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags:  flags,
		Action: r.TUI,
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "budget",
			Usage: "Local quota budget in units (0 leaves the remainder unknown)",
			Value: -1,
		},
		&cli.IntFlag{
			Name:  "search-workers",
			Usage: "Maximum concurrent searches",
		},
		&cli.IntFlag{
			Name:  "insert-workers",
			Usage: "Maximum concurrent inserts",
		},
		&cli.BoolFlag{
			Name:  "cache",
			Usage: "Reuse search results stored in the database",
		},
		&cli.BoolFlag{
			Name:  "allow-empty",
			Usage: "Treat an empty song list as a successful no-op",
		},
	}
}

// playlistCommand handles playlist lookups
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "ensure",
				Usage:  "Find the playlist by exact title or create it",
				Flags:  append(playlistFlags(), outputFlags()...),
				Action: r.PlaylistEnsure,
			},
			{
				Name:   "list",
				Usage:  "List playlists owned by the authenticated account",
				Flags:  outputFlags(),
				Action: r.PlaylistList,
			},
		},
	}
}

// searchCommand resolves one song the way sync does
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Resolve a single song to a video",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append(outputFlags(), &cli.BoolFlag{
			Name:  "cache",
			Usage: "Consult and fill the search cache",
		}),
		Action: r.Search,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Google OAuth credentials",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize through the browser and store the token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening it",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a usable token is stored",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
		},
	}
}

// cacheCommand handles the persisted search cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the search cache",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List cached search results",
				Flags:  outputFlags(),
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached search result",
				Action: r.CacheClear,
			},
		},
	}
}

// runsCommand shows run history
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show recorded sync runs",
		Flags: append(outputFlags(), &cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of runs to show",
			Value: 10,
		}),
		Action: r.RunsList,
	}
}
