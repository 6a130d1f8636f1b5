package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
	"golang.org/x/sync/errgroup"
)

// MaxHints is the number of hints resolved per session. Extra hints are ignored.
const MaxHints = 30

// CollectResult summarizes one collection batch.
type CollectResult struct {
	Candidates []models.TrackCandidate // in completion order
	Unmatched  int                     // searches that returned no results
	Expired    int                     // searches rejected for an expired token
	Failed     int                     // searches that failed for any other reason
}

// Collector resolves song hints to tracks with one concurrent search per hint.
type Collector struct {
	searcher services.TrackSearcher
	logger   *log.Logger
}

// NewCollector creates a [Collector].
func NewCollector(searcher services.TrackSearcher, logger *log.Logger) *Collector {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Collector{searcher: searcher, logger: logger}
}

// Collect searches for the first [MaxHints] hints concurrently, asking for the single best
// match of each. Hints without a match and hints whose search failed are dropped; expired
// tokens are counted, not retried. Only cancellation of ctx is returned as an error.
func (c *Collector) Collect(ctx context.Context, accessToken string, hints []models.SongHint, languageTerm string) (CollectResult, error) {
	if len(hints) > MaxHints {
		hints = hints[:MaxHints]
	}

	var (
		mu     sync.Mutex
		result CollectResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxHints)

	for _, hint := range hints {
		g.Go(func() error {
			query := hint.Query(languageTerm)
			if query == "" {
				return nil
			}

			tracks, err := c.searcher.SearchTracks(gctx, accessToken, query, 1)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case errors.Is(err, shared.ErrTokenExpired):
				result.Expired++
			case err != nil:
				result.Failed++
				c.logger.Debug("hint search failed", "query", query, "error", err)
			case len(tracks) == 0 || tracks[0].URI == "":
				result.Unmatched++
			default:
				track := tracks[0]
				track.SourceQuery = query
				track.HintDistance = hintDistance(hint, track)
				result.Candidates = append(result.Candidates, track)
			}
			return nil
		})
	}

	g.Wait()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	c.logger.Info("collected hint matches",
		"hints", len(hints), "resolved", len(result.Candidates),
		"unmatched", result.Unmatched, "expired", result.Expired, "failed", result.Failed)
	return result, nil
}

// hintDistance is the edit distance between the normalized hint and track keys.
func hintDistance(hint models.SongHint, track models.TrackCandidate) int {
	return levenshtein.ComputeDistance(
		shared.NormalizeTrackKey(hint.Title, hint.Artist),
		shared.NormalizeTrackKey(track.Name, track.Artist),
	)
}
