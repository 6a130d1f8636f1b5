package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
)

// ContextSource supplies weather, mood and song hints for a location.
type ContextSource interface {
	WeatherMood(ctx context.Context, location, language string) (*services.WeatherReport, error)
	SongHints(ctx context.Context, req services.HintRequest) ([]models.SongHint, error)
}

// ContextOptions selects what [ResolveContext] fetches.
type ContextOptions struct {
	Location  string `json:"location,omitempty"`
	Activity  string `json:"activity,omitempty"`
	Discovery int    `json:"discovery,omitempty"`
	AIHints   bool   `json:"ai_hints,omitempty"`
}

// ResolveContext fills req from the context API.
//
// With a location, the weather is looked up and its mood is used unless req already has
// one; genres are only taken when req has none. With AIHints, generated hints are
// appended to any hints req already carries. An unconfigured generator adds nothing.
func ResolveContext(ctx context.Context, src ContextSource, req *AssemblyRequest, opts ContextOptions) error {
	location := strings.TrimSpace(opts.Location)
	if location == "" && !opts.AIHints {
		return nil
	}
	if src == nil {
		return fmt.Errorf("%w: context API not configured", shared.ErrServiceUnavailable)
	}

	condition := req.Weather.Condition
	if location != "" {
		report, err := src.WeatherMood(ctx, location, req.Language)
		if err != nil {
			return fmt.Errorf("weather lookup failed: %w", err)
		}

		req.Weather = report.Context()
		condition = report.Weather.Condition
		if req.Mood.Type == "" {
			req.Mood.Type = report.Mood.Type
			req.Mood.Suggestion = report.Mood.Suggestion
		}
		if len(req.Mood.Genres) == 0 {
			req.Mood.Genres = report.Mood.Genres
		}
	}

	if !opts.AIHints {
		return nil
	}

	generated, err := src.SongHints(ctx, services.HintRequest{
		Weather:   condition,
		Mood:      req.Mood.Type,
		Genres:    req.Mood.Genres,
		Language:  req.Language,
		Activity:  opts.Activity,
		Discovery: opts.Discovery,
	})
	if err != nil {
		return fmt.Errorf("song hints failed: %w", err)
	}

	req.Hints = append(req.Hints, generated...)
	return nil
}
