package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/weathertunes/internal/server"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// authenticator is the part of the Spotify client used by the login flow.
type authenticator interface {
	services.OAuthService
	UserProfile(ctx context.Context, accessToken string) (*services.SpotifyUser, error)
}

// AuthStatus is the output of `auth status`.
type AuthStatus struct {
	Authenticated   bool   `json:"authenticated"`
	User            string `json:"user,omitempty"`
	HasRefreshToken bool   `json:"has_refresh_token"`
	Stored          bool   `json:"stored"`
}

// AuthLogin performs the OAuth2 authorization code flow and stores the resulting tokens.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, ok := r.spotify.(authenticator)
	if !ok {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrServiceUnavailable)
	}

	token, err := r.doOAuth(ctx, auth, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	name := ""
	if user, err := auth.UserProfile(ctx, token.AccessToken); err != nil {
		r.logger.Warn("failed to fetch user profile", "error", err)
	} else if name = user.DisplayName; name == "" {
		name = user.ID
	}

	r.creds.Set(token.AccessToken, token.RefreshToken, name)
	if r.repo != nil {
		if err := r.repo.Persist(r.creds); err != nil {
			return fmt.Errorf("failed to store credentials: %w", err)
		}
	} else {
		r.logger.Warn("credential store unavailable, session will not survive this process")
	}

	r.writePlainln("✓ Authorization successful")
	if name != "" {
		r.writePlain("✓ Logged in as %s\n", name)
	}
	r.writePlain("\nYou can now use: wtunes playlist create --genre indie --mood chill\n")
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.clearCredentials(); err != nil {
		return err
	}
	r.logger.Info("credentials cleared")
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the session loaded at startup.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := AuthStatus{
		Authenticated:   r.creds.Authenticated(),
		User:            r.creds.DisplayName(),
		HasRefreshToken: r.creds.RefreshToken() != "",
		Stored:          r.repo != nil,
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		return r.writePlain("Run `wtunes auth login` to sign in.\n")
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	if status.User != "" {
		r.writePlain("User: %s\n", status.User)
	}
	if !status.HasRefreshToken {
		r.writePlain("⚠ No refresh token stored; you will need to log in again when the token expires.\n")
	}
	return nil
}

// AuthRefresh exchanges the stored refresh token now instead of waiting for a rejection.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if !r.creds.Authenticated() {
		return fmt.Errorf("%w: log in with `wtunes auth login`", shared.ErrNotAuthenticated)
	}

	if _, err := r.engine.Refresher().Refresh(ctx, r.creds.AccessToken()); err != nil {
		if errors.Is(err, shared.ErrSessionExpired) {
			if cerr := r.clearCredentials(); cerr != nil {
				r.logger.Warn("failed to clear credentials", "error", cerr)
			}
		}
		return err
	}

	return r.writePlain("✓ Access token refreshed\n")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, timeout time.Duration) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv, state)
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger))
	router.Handler(oauthHandler)

	httpServer := server.New(r.config.Server, router)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
