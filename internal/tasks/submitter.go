package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
)

// Batches splits uris into consecutive groups of at most size, preserving order.
func Batches(uris []string, size int) [][]string {
	if size <= 0 {
		size = services.MaxTracksPerRequest
	}

	batches := make([][]string, 0, (len(uris)+size-1)/size)
	for start := 0; start < len(uris); start += size {
		batches = append(batches, uris[start:min(start+size, len(uris))])
	}
	return batches
}

// Submitter publishes a ranked playlist.
type Submitter struct {
	publisher services.PlaylistPublisher
	refresher *CredentialRefresher
	logger    *log.Logger
}

// NewSubmitter creates a [Submitter].
func NewSubmitter(publisher services.PlaylistPublisher, refresher *CredentialRefresher, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Submitter{publisher: publisher, refresher: refresher, logger: logger}
}

// Submit creates a public playlist and adds uris in sequential batches of 100.
//
// onBatch, when set, is called after each batch is added. A failed batch fails the
// submission and the partially filled playlist is left in place.
func (s *Submitter) Submit(ctx context.Context, name, description string, uris []string, onBatch func(done, total int)) (*models.CreatedPlaylist, error) {
	playlist, err := retryOnExpiry(ctx, s.refresher, func(token string) (*models.CreatedPlaylist, error) {
		return s.publisher.CreatePlaylist(ctx, token, name, description, true)
	})
	if err != nil {
		return nil, submitError("create playlist", err)
	}

	s.logger.Info("playlist created", "id", playlist.ID, "name", playlist.Name)

	batches := Batches(uris, services.MaxTracksPerRequest)
	for i, batch := range batches {
		_, err := retryOnExpiry(ctx, s.refresher, func(token string) (struct{}, error) {
			return struct{}{}, s.publisher.AddTracks(ctx, token, playlist.ID, batch)
		})
		if err != nil {
			s.logger.Error("adding tracks failed, playlist left partially filled",
				"playlist", playlist.ID, "batch", i+1, "of", len(batches), "error", err)
			return nil, submitError(fmt.Sprintf("add tracks batch %d/%d", i+1, len(batches)), err)
		}

		s.logger.Debug("batch added", "playlist", playlist.ID, "batch", i+1, "size", len(batch))
		if onBatch != nil {
			onBatch(i+1, len(batches))
		}
	}

	playlist.TrackCount = len(uris)
	return playlist, nil
}

// submitError keeps session expiry and cancellation unwrapped in kind, and reports
// everything else as an upstream failure.
func submitError(op string, err error) error {
	if errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := shared.AsUpstream(err); ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, &shared.UpstreamError{Message: err.Error(), Err: err})
}
