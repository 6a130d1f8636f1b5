package tasks

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/shared"
	tu "github.com/desertthunder/weathertunes/internal/testing"
	"golang.org/x/oauth2"
)

func TestPlanQueries(t *testing.T) {
	mood := models.MoodContext{Type: "upbeat", Genres: []string{"pop", "dance", "indie", "rock"}}

	t.Run("Full Plan", func(t *testing.T) {
		got := PlanQueries(mood, "", 50)
		want := []string{
			"pop upbeat song", "pop upbeat hit", "pop upbeat popular",
			"dance upbeat song", "dance upbeat hit", "dance upbeat popular",
			"indie upbeat song", "indie upbeat hit", "indie upbeat popular",
			"upbeat songs",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Truncated By Shortfall", func(t *testing.T) {
		tests := []struct {
			needed int
			want   int
		}{
			{1, 1},
			{5, 1},
			{6, 2},
			{29, 6},
			{30, 6},
			{0, 0},
		}

		for _, tt := range tests {
			if got := PlanQueries(mood, "", tt.needed); len(got) != tt.want {
				t.Errorf("needed=%d: expected %d queries, got %d", tt.needed, tt.want, len(got))
			}
		}
	})

	t.Run("With Language", func(t *testing.T) {
		got := PlanQueries(models.MoodContext{Type: "cozy", Genres: []string{"lofi"}}, "hindi", 30)
		want := []string{"hindi lofi cozy song", "hindi lofi cozy hit", "hindi lofi cozy popular", "popular hindi cozy"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("No Genres", func(t *testing.T) {
		got := PlanQueries(models.MoodContext{Type: "calm"}, "", 30)
		if !reflect.DeepEqual(got, []string{"calm songs"}) {
			t.Errorf("expected only general query, got %v", got)
		}
	})
}

func TestPlanner_Supplement(t *testing.T) {
	mood := models.MoodContext{Type: "upbeat", Genres: []string{"pop", "dance"}}

	t.Run("Runs Queries In Order", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
			return []models.TrackCandidate{tu.Track(strings.ReplaceAll(query, " ", "-"), 40)}, nil
		}}
		r := NewCredentialRefresher(models.NewCredentialState("token", "r"), svc, nil)
		p := NewPlanner(svc, r, nil)

		found, err := p.Supplement(context.Background(), mood, "", 12)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		calls := svc.Searches()
		if len(calls) != 3 {
			t.Fatalf("expected 3 queries, got %d", len(calls))
		}
		for i, want := range []string{"pop upbeat song", "pop upbeat hit", "pop upbeat popular"} {
			if calls[i].Query != want || calls[i].Limit != 12 {
				t.Errorf("call %d: expected %q limit 12, got %q limit %d", i, want, calls[i].Query, calls[i].Limit)
			}
		}
		if len(found) != 3 || found[0].SourceQuery != "pop upbeat song" {
			t.Errorf("unexpected results %+v", found)
		}
	})

	t.Run("Limit Capped At Twenty", func(t *testing.T) {
		svc := &tu.MockService{}
		r := NewCredentialRefresher(models.NewCredentialState("token", "r"), svc, nil)

		if _, err := NewPlanner(svc, r, nil).Supplement(context.Background(), mood, "", 30); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, c := range svc.Searches() {
			if c.Limit != 20 {
				t.Errorf("expected limit 20, got %d", c.Limit)
			}
		}
	})

	t.Run("Refreshes And Retries Expired Query", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
			if token == "stale" {
				return nil, fmt.Errorf("%w: 401", shared.ErrTokenExpired)
			}
			return []models.TrackCandidate{tu.Track(query, 30)}, nil
		}}
		r := NewCredentialRefresher(models.NewCredentialState("stale", "r"), svc, nil)

		found, err := NewPlanner(svc, r, nil).Supplement(context.Background(), mood, "", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 2 || svc.RefreshCalls() != 1 {
			t.Errorf("expected 2 results after one refresh, got %d results and %d refreshes", len(found), svc.RefreshCalls())
		}
	})

	t.Run("Failed Refresh Expires Session", func(t *testing.T) {
		svc := &tu.MockService{
			SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
				return nil, shared.ErrTokenExpired
			},
			RefreshFunc: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
				return nil, shared.ErrRefreshFailed
			},
		}
		r := NewCredentialRefresher(models.NewCredentialState("stale", "r"), svc, nil)

		if _, err := NewPlanner(svc, r, nil).Supplement(context.Background(), mood, "", 10); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("Skips Failed Queries", func(t *testing.T) {
		svc := &tu.MockService{SearchFunc: func(ctx context.Context, token, query string, limit int) ([]models.TrackCandidate, error) {
			if strings.HasSuffix(query, "song") {
				return nil, &shared.UpstreamError{Status: 502, Message: "bad gateway"}
			}
			return []models.TrackCandidate{tu.Track(query, 30)}, nil
		}}
		r := NewCredentialRefresher(models.NewCredentialState("token", "r"), svc, nil)

		found, err := NewPlanner(svc, r, nil).Supplement(context.Background(), mood, "", 15)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 2 {
			t.Errorf("expected failed query to be skipped, got %d results", len(found))
		}
	})
}
