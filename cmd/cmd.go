// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// requestFlags describe an assembly request. Shared by playlist create and the TUI.
func requestFlags(r *Runner) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "hint",
			Usage: `Song hint as "Artist - Title" (repeatable)`,
		},
		&cli.StringFlag{
			Name:  "hints-file",
			Usage: `File with one "Artist - Title" hint per line`,
		},
		&cli.StringFlag{
			Name:  "mood",
			Usage: "Mood type used in supplemental searches (e.g. upbeat, cozy)",
		},
		&cli.StringSliceFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   "Genre to fill the playlist from (repeatable)",
		},
		&cli.StringFlag{
			Name:  "suggestion",
			Usage: "Mood suggestion used in the playlist description",
		},
		&cli.StringFlag{
			Name:    "language",
			Aliases: []string{"l"},
			Usage:   "Playlist language",
			Value:   r.config.Assembly.DefaultLanguage,
		},
		&cli.StringFlag{
			Name:  "location",
			Usage: "Look up weather and mood for this location via the context API",
		},
		&cli.StringFlag{
			Name:  "condition",
			Usage: "Weather condition used in the playlist name when no location lookup is made",
		},
		&cli.BoolFlag{
			Name:  "ai",
			Usage: "Ask the context API for song hints",
		},
		&cli.StringFlag{
			Name:  "activity",
			Usage: "Activity passed to the song hint generator",
		},
		&cli.IntFlag{
			Name:  "discovery",
			Usage: "How adventurous generated hints should be (0-100)",
			Value: 50,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Playlist name (defaults to a weather based name)",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Playlist description",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Rank tracks without creating a playlist",
		},
	}
}

// setupCommand handles setup operations for configuration and the credential store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupInit,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recent migration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: authTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored Spotify session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the current session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh token for a new access token",
				Action: r.AuthRefresh,
			},
		},
	}
}

// playlistCommand handles playlist assembly
func playlistCommand(r *Runner) *cli.Command {
	createFlags := append(requestFlags(r),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (text, markdown, csv, json)",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the result to a file instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Write the result to {session id}.{ext}",
		},
	)

	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Assemble playlists",
		Commands: []*cli.Command{
			{
				Name:    "create",
				Aliases: []string{"new"},
				Usage:   "Assemble a playlist from hints, mood and weather",
				Flags:   createFlags,
				Action:  r.PlaylistCreate,
			},
			{
				Name:  "languages",
				Usage: "List supported playlist languages",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistLanguages,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the playlist assembly HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host",
				Value: r.config.Server.Host,
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port",
				Value:   r.config.Server.Port,
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive assembly.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive playlist builder",
		Flags:   requestFlags(r),
		Action:  r.TUI,
	}
}
