package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
)

const (
	plannedGenres        = 3
	tracksPerQuery       = 5
	maxSupplementalLimit = 20
)

var phrasings = []string{"song", "hit", "popular"}

// PlanQueries builds the supplemental queries for a shortfall of needed tracks.
//
// Queries combine each of the first three genres with the mood and language in three
// phrasings, followed by one general mood query. Only the first ceil(needed/5) are kept.
func PlanQueries(mood models.MoodContext, languageTerm string, needed int) []string {
	if needed <= 0 {
		return nil
	}

	var queries []string
	for _, genre := range mood.Genres[:min(plannedGenres, len(mood.Genres))] {
		if strings.TrimSpace(genre) == "" {
			continue
		}
		for _, p := range phrasings {
			queries = append(queries, joinTerms(languageTerm, genre, mood.Type, p))
		}
	}

	if languageTerm == "" {
		queries = append(queries, joinTerms(mood.Type, "songs"))
	} else {
		queries = append(queries, joinTerms("popular", languageTerm, mood.Type))
	}

	if n := (needed + tracksPerQuery - 1) / tracksPerQuery; n < len(queries) {
		queries = queries[:n]
	}
	return queries
}

func joinTerms(terms ...string) string {
	return strings.Join(strings.Fields(strings.Join(terms, " ")), " ")
}

// Planner runs supplemental queries when hint collection falls short.
type Planner struct {
	searcher  services.TrackSearcher
	refresher *CredentialRefresher
	logger    *log.Logger
}

// NewPlanner creates a [Planner].
func NewPlanner(searcher services.TrackSearcher, refresher *CredentialRefresher, logger *log.Logger) *Planner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Planner{searcher: searcher, refresher: refresher, logger: logger}
}

// Supplement runs the planned queries one after another, each asking for min(20, needed)
// results. Every query refreshes and retries once on an expired token. A query that fails
// for another reason is skipped.
func (p *Planner) Supplement(ctx context.Context, mood models.MoodContext, languageTerm string, needed int) ([]models.TrackCandidate, error) {
	queries := PlanQueries(mood, languageTerm, needed)
	limit := min(maxSupplementalLimit, needed)

	var found []models.TrackCandidate
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		p.logger.Debug("supplemental query", "query", query, "step", i+1, "of", len(queries), "limit", limit)

		tracks, err := retryOnExpiry(ctx, p.refresher, func(token string) ([]models.TrackCandidate, error) {
			return p.searcher.SearchTracks(ctx, token, query, limit)
		})
		switch {
		case errors.Is(err, shared.ErrSessionExpired):
			return nil, err
		case ctx.Err() != nil:
			return found, ctx.Err()
		case err != nil:
			p.logger.Warn("supplemental query failed", "query", query, "error", err)
			continue
		}

		for _, t := range tracks {
			t.SourceQuery = query
			found = append(found, t)
		}
	}

	p.logger.Info("supplemental search complete", "needed", needed, "queries", len(queries), "found", len(found))
	return found, nil
}
