package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/repositories"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/desertthunder/weathertunes/internal/tasks"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	var spotifyService services.Service
	if svc, err := services.NewSpotifyService(
		config.Credentials.Spotify.Map(),
		services.WithMarket(config.Services.Market),
		services.WithRateLimit(config.Services.RequestsPerSecond, config.Services.Burst),
	); err == nil {
		spotifyService = svc
	} else {
		logger.Debug("spotify service unavailable", "error", err)
	}

	var contextSource tasks.ContextSource
	if config.Services.ContextURL != "" {
		contextSource = services.NewContextService(config.Services.ContextURL, nil)
	}

	creds := &models.CredentialState{}
	var repo *repositories.CredentialRepository
	if db, err := shared.OpenDatabase(config.Database); err != nil {
		logger.Warn("credential store unavailable, run `wtunes setup database`", "error", err)
	} else {
		defer db.Close()
		repo = repositories.NewCredentialRepository(db)
		if err := repo.Restore(creds); err != nil {
			logger.Warn("failed to load stored credentials", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Spotify:     spotifyService,
		Context:     contextSource,
		Credentials: creds,
		Repo:        repo,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:    "wtunes",
		Usage:   "Build Spotify playlists from the weather, a mood and a few song hints",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("WTUNES_LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, err
			}
			shared.SetLogLevel(runner.logger, level)
			runner.SetLogger(runner.logger)
			return ctx, nil
		},
		Commands: runner.register(),

		// song titles contain commas
		DisableSliceFlagSeparator: true,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
