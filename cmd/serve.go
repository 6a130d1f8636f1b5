package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/weathertunes/internal/server"
	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/urfave/cli/v3"
)

// handler assembles the API router.
func (r *Runner) handler() http.Handler {
	service := ""
	if r.spotify != nil {
		service = r.spotify.Name()
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Logger(r.logger), server.Recoverer(r.logger))
	router.Mount(
		server.NewAssembleHandler(r.engine, r.context, r.clearCredentials, r.logger),
		server.NewHealthHandler(r.creds, service),
	)
	return router
}

// Serve runs the HTTP API until interrupted, then drains in-flight sessions.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	cfg := shared.ServerConfig{Host: cmd.String("host"), Port: cmd.Int("port")}
	httpServer := server.New(cfg, r.handler())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("serving playlist API", "addr", httpServer.Addr, "authenticated", r.creds.Authenticated())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
