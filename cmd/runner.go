package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/repositories"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/desertthunder/weathertunes/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify services.Service
	context tasks.ContextSource
	creds   *models.CredentialState
	repo    *repositories.CredentialRepository
	logger  *log.Logger
	output  io.Writer
	engine  *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Context must be left nil (not a typed nil) when no context API is configured.
type RunnerOpts struct {
	Config      *shared.Config
	Spotify     services.Service
	Context     tasks.ContextSource
	Credentials *models.CredentialState
	Repo        *repositories.CredentialRepository
	Logger      *log.Logger
	Output      io.Writer
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
	if opts.Credentials == nil {
		opts.Credentials = &models.CredentialState{}
	}

	r := &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		context: opts.Context,
		creds:   opts.Credentials,
		repo:    opts.Repo,
		logger:  opts.Logger,
		output:  opts.Output,
	}
	r.initEngine()
	return r
}

// initEngine builds the engine around the shared credential state. Refreshed tokens
// are written through to the credential store.
func (r *Runner) initEngine() {
	r.engine = tasks.NewPlaylistEngine(r.spotify, r.creds, r.logger)
	if r.repo == nil {
		return
	}

	r.engine.Refresher().OnRefresh(func(accessToken, refreshToken string) {
		if err := r.repo.UpdateTokens(accessToken, refreshToken); err != nil {
			r.logger.Warn("failed to store refreshed tokens", "error", err)
		}
	})
}

// SetLogger swaps the logger used by the runner and its engine.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.initEngine()
}

// clearCredentials forgets the session in memory and in the credential store.
func (r *Runner) clearCredentials() error {
	r.creds.Clear()
	if r.repo == nil {
		return nil
	}
	if err := r.repo.Delete(); err != nil {
		return fmt.Errorf("failed to delete stored credentials: %w", err)
	}
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
