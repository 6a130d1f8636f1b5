package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/shared"
	tu "github.com/desertthunder/weathertunes/internal/testing"
	"golang.org/x/oauth2"
)

func TestCredentialRefresher(t *testing.T) {
	t.Run("Refresh Replaces Tokens", func(t *testing.T) {
		creds := models.NewCredentialState("old", "refresh-1")
		svc := &tu.MockService{RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			if refreshToken != "refresh-1" {
				t.Errorf("expected stored refresh token, got %q", refreshToken)
			}
			return &oauth2.Token{AccessToken: "new", RefreshToken: "refresh-2"}, nil
		}}

		var persisted []string
		r := NewCredentialRefresher(creds, svc, nil)
		r.OnRefresh(func(access, refresh string) { persisted = append(persisted, access, refresh) })

		token, err := r.Refresh(context.Background(), "old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "new" || creds.AccessToken() != "new" || creds.RefreshToken() != "refresh-2" {
			t.Errorf("unexpected credentials: token=%s access=%s refresh=%s", token, creds.AccessToken(), creds.RefreshToken())
		}
		if creds.Expired() {
			t.Error("expected credentials to be valid after refresh")
		}
		if len(persisted) != 2 || persisted[0] != "new" || persisted[1] != "refresh-2" {
			t.Errorf("expected OnRefresh with new tokens, got %v", persisted)
		}
	})

	t.Run("Keeps Refresh Token When Not Rotated", func(t *testing.T) {
		creds := models.NewCredentialState("old", "keep")
		r := NewCredentialRefresher(creds, &tu.MockService{}, nil)

		if _, err := r.Refresh(context.Background(), "old"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if creds.RefreshToken() != "keep" || creds.AccessToken() != "refreshed" {
			t.Errorf("unexpected credentials: %s %s", creds.AccessToken(), creds.RefreshToken())
		}
	})

	t.Run("Skips Already Replaced Token", func(t *testing.T) {
		creds := models.NewCredentialState("current", "r")
		svc := &tu.MockService{}
		r := NewCredentialRefresher(creds, svc, nil)

		token, err := r.Refresh(context.Background(), "stale")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "current" || svc.RefreshCalls() != 0 {
			t.Errorf("expected current token without exchange, got %s after %d calls", token, svc.RefreshCalls())
		}
	})

	t.Run("Concurrent Callers Share One Exchange", func(t *testing.T) {
		creds := models.NewCredentialState("old", "r")
		svc := &tu.MockService{RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			time.Sleep(50 * time.Millisecond)
			return &oauth2.Token{AccessToken: "new"}, nil
		}}
		r := NewCredentialRefresher(creds, svc, nil)

		var wg sync.WaitGroup
		tokens := make([]string, 10)
		for i := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := r.Refresh(context.Background(), "old")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				tokens[i] = tok
			}()
		}
		wg.Wait()

		if n := svc.RefreshCalls(); n != 1 {
			t.Errorf("expected a single exchange, got %d", n)
		}
		for i, tok := range tokens {
			if tok != "new" {
				t.Errorf("caller %d got %q", i, tok)
			}
		}
	})

	t.Run("Failure Expires Session", func(t *testing.T) {
		creds := models.NewCredentialState("old", "")
		svc := &tu.MockService{RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			return nil, shared.ErrNoRefreshToken
		}}
		r := NewCredentialRefresher(creds, svc, nil)

		_, err := r.Refresh(context.Background(), "old")
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected cause to be preserved, got %v", err)
		}
		if !creds.Expired() {
			t.Error("expected credentials to stay expired")
		}
	})

	t.Run("Canceled Caller Does Not Expire Session", func(t *testing.T) {
		creds := models.NewCredentialState("old", "r")
		svc := &tu.MockService{}
		r := NewCredentialRefresher(creds, svc, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Refresh(ctx, "old")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("cancellation must not be reported as an expired session: %v", err)
		}
		if creds.RefreshToken() != "r" || creds.AccessToken() != "old" {
			t.Errorf("expected credentials untouched, got %s %s", creds.AccessToken(), creds.RefreshToken())
		}
	})

	t.Run("Interrupted Exchange Does Not Expire Session", func(t *testing.T) {
		creds := models.NewCredentialState("old", "r")
		svc := &tu.MockService{RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, context.DeadlineExceeded)
		}}
		r := NewCredentialRefresher(creds, svc, nil)

		_, err := r.Refresh(context.Background(), "old")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("timeout must not be reported as an expired session: %v", err)
		}
	})

	t.Run("Canceled Caller Does Not Fail Shared Exchange", func(t *testing.T) {
		creds := models.NewCredentialState("old", "r")
		started := make(chan struct{})
		release := make(chan struct{})
		svc := &tu.MockService{RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, ctx.Err())
			}
			return &oauth2.Token{AccessToken: "new"}, nil
		}}
		r := NewCredentialRefresher(creds, svc, nil)

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := r.Refresh(ctxA, "old")
			errA <- err
		}()
		<-started

		type result struct {
			token string
			err   error
		}
		resB := make(chan result, 1)
		go func() {
			tok, err := r.Refresh(context.Background(), "old")
			resB <- result{tok, err}
		}()

		cancelA()
		if err := <-errA; !errors.Is(err, context.Canceled) {
			t.Errorf("expected first caller to see context.Canceled, got %v", err)
		}
		close(release)

		b := <-resB
		if b.err != nil {
			t.Fatalf("expected second caller to succeed, got %v", b.err)
		}
		if b.token != "new" || creds.AccessToken() != "new" || creds.Expired() {
			t.Errorf("expected refreshed credentials, got token=%s access=%s", b.token, creds.AccessToken())
		}
		if n := svc.RefreshCalls(); n != 1 {
			t.Errorf("expected a single exchange, got %d", n)
		}
	})
}

func TestRetryOnExpiry(t *testing.T) {
	expired := fmt.Errorf("%w: 401", shared.ErrTokenExpired)

	t.Run("No Expiry", func(t *testing.T) {
		svc := &tu.MockService{}
		r := NewCredentialRefresher(models.NewCredentialState("a", "r"), svc, nil)

		calls := 0
		v, err := retryOnExpiry(context.Background(), r, func(token string) (int, error) {
			calls++
			return 7, nil
		})
		if err != nil || v != 7 || calls != 1 || svc.RefreshCalls() != 0 {
			t.Errorf("unexpected v=%d err=%v calls=%d", v, err, calls)
		}
	})

	t.Run("Retries Once With Fresh Token", func(t *testing.T) {
		svc := &tu.MockService{}
		r := NewCredentialRefresher(models.NewCredentialState("a", "r"), svc, nil)

		var seen []string
		_, err := retryOnExpiry(context.Background(), r, func(token string) (struct{}, error) {
			seen = append(seen, token)
			if token == "a" {
				return struct{}{}, expired
			}
			return struct{}{}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 2 || seen[1] != "refreshed" {
			t.Errorf("expected retry with refreshed token, got %v", seen)
		}
	})

	t.Run("Second Expiry Ends Session", func(t *testing.T) {
		svc := &tu.MockService{}
		r := NewCredentialRefresher(models.NewCredentialState("a", "r"), svc, nil)

		calls := 0
		_, err := retryOnExpiry(context.Background(), r, func(token string) (struct{}, error) {
			calls++
			return struct{}{}, expired
		})
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
		if calls != 2 || svc.RefreshCalls() != 1 {
			t.Errorf("expected one retry and one refresh, got %d calls and %d refreshes", calls, svc.RefreshCalls())
		}
	})

	t.Run("Other Errors Pass Through", func(t *testing.T) {
		svc := &tu.MockService{}
		r := NewCredentialRefresher(models.NewCredentialState("a", "r"), svc, nil)
		boom := errors.New("boom")

		_, err := retryOnExpiry(context.Background(), r, func(token string) (struct{}, error) {
			return struct{}{}, boom
		})
		if !errors.Is(err, boom) || svc.RefreshCalls() != 0 {
			t.Errorf("expected boom without refresh, got %v", err)
		}
	})
}
