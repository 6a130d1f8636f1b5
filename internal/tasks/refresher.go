package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
	"golang.org/x/sync/singleflight"
)

// refreshTimeout bounds one refresh-token exchange.
const refreshTimeout = 30 * time.Second

// CredentialRefresher performs at most one refresh-token exchange at a time for a [models.CredentialState].
type CredentialRefresher struct {
	creds     *models.CredentialState
	refresher services.TokenRefresher
	logger    *log.Logger
	group     singleflight.Group
	onRefresh func(accessToken, refreshToken string)
}

// NewCredentialRefresher creates a refresher that updates creds in place.
func NewCredentialRefresher(creds *models.CredentialState, refresher services.TokenRefresher, logger *log.Logger) *CredentialRefresher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CredentialRefresher{creds: creds, refresher: refresher, logger: logger}
}

// OnRefresh registers fn to be called with the new tokens after each successful refresh.
func (r *CredentialRefresher) OnRefresh(fn func(accessToken, refreshToken string)) {
	r.onRefresh = fn
}

// Credentials returns the state this refresher maintains.
func (r *CredentialRefresher) Credentials() *models.CredentialState {
	return r.creds
}

// Refresh replaces the rejected token stale with a new access token.
//
// Concurrent callers share one exchange, which runs detached from any single caller's
// ctx and is bounded by [refreshTimeout]. A caller whose ctx ends first gets ctx.Err()
// while the exchange completes for the others. If stale was already replaced by an
// earlier refresh, the current token is returned without another exchange.
//
// A missing or rejected refresh token is reported as [shared.ErrSessionExpired].
// Cancellation and timeouts are returned as they are.
func (r *CredentialRefresher) Refresh(ctx context.Context, stale string) (string, error) {
	if token, ok := r.replaced(stale); ok {
		return token, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ch := r.group.DoChan("refresh", func() (any, error) {
		if token, ok := r.replaced(stale); ok {
			return token, nil
		}

		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		r.creds.MarkExpired()
		r.logger.Info("access token expired, refreshing")

		token, err := r.refresher.RefreshToken(exchangeCtx, r.creds.RefreshToken())
		switch {
		case isContextErr(err):
			r.logger.Warn("token refresh interrupted", "error", err)
			return "", fmt.Errorf("token refresh interrupted: %w", err)
		case errors.Is(err, shared.ErrNoRefreshToken), errors.Is(err, shared.ErrRefreshFailed):
			r.logger.Warn("token refresh failed", "error", err)
			return "", fmt.Errorf("%w: %w", shared.ErrSessionExpired, err)
		case err != nil:
			r.logger.Warn("token refresh failed", "error", err)
			return "", err
		}

		r.creds.Replace(token.AccessToken, token.RefreshToken)
		if r.onRefresh != nil {
			r.onRefresh(token.AccessToken, r.creds.RefreshToken())
		}
		r.logger.Info("access token refreshed")
		return token.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *CredentialRefresher) replaced(stale string) (string, bool) {
	current := r.creds.AccessToken()
	if current != "" && current != stale && !r.creds.Expired() {
		return current, true
	}
	return "", false
}

// retryOnExpiry runs call with the current access token. If the token is rejected it
// refreshes once and retries once; a second rejection ends the session.
func retryOnExpiry[T any](ctx context.Context, r *CredentialRefresher, call func(accessToken string) (T, error)) (T, error) {
	var zero T

	token := r.creds.AccessToken()
	v, err := call(token)
	if !errors.Is(err, shared.ErrTokenExpired) {
		return v, err
	}

	fresh, err := r.Refresh(ctx, token)
	if err != nil {
		return zero, err
	}

	v, err = call(fresh)
	if errors.Is(err, shared.ErrTokenExpired) {
		r.creds.MarkExpired()
		return zero, fmt.Errorf("%w: refreshed token rejected: %w", shared.ErrSessionExpired, err)
	}
	return v, err
}
