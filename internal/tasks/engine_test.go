package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/shared"
	tu "github.com/desertthunder/weathertunes/internal/testing"
	"golang.org/x/oauth2"
)

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	close(ch)
	var out []ProgressUpdate
	for u := range ch {
		out = append(out, u)
	}
	return out
}

// genreSearch serves hint queries one track each and supplemental queries several.
func genreSearch(supplemental int) func(context.Context, string, string, int) ([]models.TrackCandidate, error) {
	var n atomic.Int32
	return func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
		if limit == 1 {
			return searchByQuery(ctx, token, query, limit)
		}
		var out []models.TrackCandidate
		for range min(limit, supplemental) {
			out = append(out, tu.Track(fmt.Sprintf("g%d", n.Add(1)), 30))
		}
		return out, nil
	}
}

func TestPlaylistEngine_Run(t *testing.T) {
	mood := models.MoodContext{Type: "upbeat", Suggestion: "Sunny vibes", Genres: []string{"pop", "dance"}}

	t.Run("Full Hints Skip Supplement", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: searchByQuery}
		engine := NewPlaylistEngine(svc, models.NewCredentialState("token", "r"), nil)
		progress := make(chan ProgressUpdate, 100)

		result, err := engine.Run(context.Background(), AssemblyRequest{
			Hints:   hints(30),
			Mood:    mood,
			Weather: models.WeatherContext{Location: "Austin", Condition: "Clear"},
		}, progress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.State != Created || result.Playlist == nil {
			t.Fatalf("expected created playlist, got %+v", result)
		}
		if result.Collected != 30 || result.Supplemental != 0 {
			t.Errorf("unexpected counts %+v", result)
		}
		if len(svc.Searches()) != 30 {
			t.Errorf("expected only hint searches, got %d", len(svc.Searches()))
		}
		if result.Name != "WeatherTunes: Clear in Austin (English)" {
			t.Errorf("unexpected default name %q", result.Name)
		}
		if result.Playlist.TrackCount != 30 {
			t.Errorf("expected 30 tracks, got %d", result.Playlist.TrackCount)
		}

		updates := drain(progress)
		if last := updates[len(updates)-1]; last.Phase != Finished {
			t.Errorf("expected final update to be finished, got %v", last.Phase)
		}
	})

	t.Run("Supplements Shortfall", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: genreSearch(10)}
		engine := NewPlaylistEngine(svc, models.NewCredentialState("token", "r"), nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Hints: hints(10), Mood: mood}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Collected != 10 {
			t.Errorf("expected 10 collected, got %d", result.Collected)
		}
		// 20 needed: 4 queries of 10 results each
		if result.Supplemental != 40 {
			t.Errorf("expected 40 supplemental candidates, got %d", result.Supplemental)
		}
		if result.Ranked.Len() != models.MaxPlaylistTracks {
			t.Errorf("expected full playlist, got %d", result.Ranked.Len())
		}
	})

	t.Run("Genres Only", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: genreSearch(20)}
		engine := NewPlaylistEngine(svc, models.NewCredentialState("token", "r"), nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Mood: mood, DryRun: true}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Collected != 0 || result.Ranked.Len() != models.MaxPlaylistTracks {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Dry Run Previews", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: searchByQuery}
		engine := NewPlaylistEngine(svc, models.NewCredentialState("token", "r"), nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Hints: hints(30), Mood: mood, DryRun: true}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.State != Previewed || result.Playlist != nil {
			t.Errorf("expected preview without playlist, got %+v", result)
		}
		if len(svc.Creates()) != 0 || len(svc.Adds()) != 0 {
			t.Error("dry run must not publish")
		}
	})

	t.Run("Refreshes After Expired Hint Searches", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
			if token == "stale" {
				return nil, shared.ErrTokenExpired
			}
			return genreSearch(20)(ctx, token, query, limit)
		}}
		creds := models.NewCredentialState("stale", "r")
		engine := NewPlaylistEngine(svc, creds, nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Hints: hints(5), Mood: mood}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Expired != 5 || result.Collected != 0 {
			t.Errorf("expected all hint searches expired, got %+v", result)
		}
		if svc.RefreshCalls() != 1 {
			t.Errorf("expected one refresh, got %d", svc.RefreshCalls())
		}
		if creds.AccessToken() != "refreshed" {
			t.Errorf("expected refreshed token, got %s", creds.AccessToken())
		}
		for _, token := range svc.Creates() {
			if token != "refreshed" {
				t.Errorf("expected playlist created with refreshed token, got %s", token)
			}
		}
	})

	t.Run("Session Expired", func(t *testing.T) {
		svc := &tu.MockService{
			SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
				return nil, shared.ErrTokenExpired
			},
			RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
				return nil, shared.ErrRefreshFailed
			},
		}
		engine := NewPlaylistEngine(svc, models.NewCredentialState("stale", "r"), nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Hints: hints(3), Mood: mood}, nil)
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if result.State != Failed || result.Reason != "SessionExpired" {
			t.Errorf("unexpected result %+v", result)
		}
		if len(svc.Creates()) != 0 {
			t.Error("expected no playlist after session expiry")
		}
	})

	t.Run("Empty Result", func(t *testing.T) {
		engine := NewPlaylistEngine(&tu.MockService{}, models.NewCredentialState("token", "r"), nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Hints: hints(2), Mood: mood}, nil)
		if !errors.Is(err, shared.ErrEmptyResult) {
			t.Fatalf("expected ErrEmptyResult, got %v", err)
		}
		if result.Reason != "EmptyResult" {
			t.Errorf("unexpected reason %q", result.Reason)
		}
	})

	t.Run("Upstream Failure", func(t *testing.T) {
		svc := &tu.MockService{
			SearchFunc: searchByQuery,
			CreateFunc: func(ctx context.Context, token, name, desc string, public bool) (*models.CreatedPlaylist, error) {
				return nil, &shared.UpstreamError{Status: 500, Message: "server error"}
			},
		}
		engine := NewPlaylistEngine(svc, models.NewCredentialState("token", "r"), nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Hints: hints(30), Mood: mood}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected upstream error, got %v", err)
		}
		if result.Reason != "UpstreamError" || engine.Credentials().AccessToken() != "token" {
			t.Errorf("upstream failure must keep credentials, got %+v", result)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		engine := NewPlaylistEngine(&tu.MockService{}, models.NewCredentialState("token", "r"), nil)

		if _, err := engine.Run(context.Background(), AssemblyRequest{}, nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		unauth := NewPlaylistEngine(&tu.MockService{}, nil, nil)
		if _, err := unauth.Run(context.Background(), AssemblyRequest{Mood: mood}, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Custom Name", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: searchByQuery}
		engine := NewPlaylistEngine(svc, models.NewCredentialState("token", "r"), nil)

		result, err := engine.Run(context.Background(), AssemblyRequest{Hints: hints(30), Name: "Road Trip"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Playlist.Name != "Road Trip" || !strings.Contains(result.Description, "WeatherTunes") {
			t.Errorf("unexpected naming %q / %q", result.Playlist.Name, result.Description)
		}
	})
}

func TestPlaylistEngine_RunCanceled(t *testing.T) {
	mood := models.MoodContext{Type: "upbeat", Genres: []string{"pop"}}

	tests := []struct {
		name  string
		req   AssemblyRequest
		setup func(cancel context.CancelFunc, release <-chan struct{}) *tu.MockService
	}{
		{
			name: "During Collection",
			req:  AssemblyRequest{Hints: hints(3), Mood: mood},
			setup: func(cancel context.CancelFunc, _ <-chan struct{}) *tu.MockService {
				return &tu.MockService{SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
					cancel()
					return nil, &shared.UpstreamError{Message: "request aborted", Err: ctx.Err()}
				}}
			},
		},
		{
			name: "During Refresh",
			req:  AssemblyRequest{Hints: hints(3), Mood: mood},
			setup: func(cancel context.CancelFunc, release <-chan struct{}) *tu.MockService {
				return &tu.MockService{
					SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
						return nil, shared.ErrTokenExpired
					},
					RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
						cancel()
						<-release
						return nil, shared.ErrRefreshFailed
					},
				}
			},
		},
		{
			name: "During Supplement",
			req:  AssemblyRequest{Mood: mood},
			setup: func(cancel context.CancelFunc, _ <-chan struct{}) *tu.MockService {
				return &tu.MockService{SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
					cancel()
					return nil, shared.ErrTokenExpired
				}}
			},
		},
		{
			name: "During Submit",
			req:  AssemblyRequest{Hints: hints(30), Mood: mood},
			setup: func(cancel context.CancelFunc, _ <-chan struct{}) *tu.MockService {
				return &tu.MockService{
					SearchFunc: searchByQuery,
					CreateFunc: func(ctx context.Context, token, name, desc string, public bool) (*models.CreatedPlaylist, error) {
						cancel()
						return nil, &shared.UpstreamError{Message: "request aborted", Err: ctx.Err()}
					},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			release := make(chan struct{})
			t.Cleanup(func() { close(release) })

			svc := tt.setup(cancel, release)
			creds := models.NewCredentialState("token", "r")
			engine := NewPlaylistEngine(svc, creds, nil)

			result, err := engine.Run(ctx, tt.req, nil)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("expected context.Canceled, got %v", err)
			}
			if errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("cancellation must not be reported as an expired session: %v", err)
			}
			if result.State != Failed || result.Reason != "Canceled" {
				t.Errorf("expected failed with reason Canceled, got %v %q", result.State, result.Reason)
			}
			if creds.RefreshToken() != "r" {
				t.Errorf("expected refresh token kept, got %q", creds.RefreshToken())
			}
		})
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("x: %w", shared.ErrSessionExpired), "SessionExpired"},
		{shared.ErrEmptyResult, "EmptyResult"},
		{shared.ErrInvalidInput, "ValidationError"},
		{context.Canceled, "Canceled"},
		{&shared.UpstreamError{Status: 500}, "UpstreamError"},
	}

	for _, tt := range tests {
		if got := FailureReason(tt.err); got != tt.want {
			t.Errorf("FailureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Created: "created", Previewed: "previewed", Failed: "failed"} {
		if s.String() != want {
			t.Errorf("expected %q, got %q", want, s.String())
		}
	}
	if !Previewed.Terminal() || StateRanking.Terminal() {
		t.Error("unexpected terminal states")
	}
}
