package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/services"
	"github.com/desertthunder/weathertunes/internal/shared"
)

// State is a session's position in the assembly state machine.
type State int

const (
	Idle State = iota
	StateCollecting
	StateSupplementing
	StateRanking
	StateSubmitting
	Created
	Previewed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateSupplementing:
		return "supplementing"
	case StateRanking:
		return "ranking"
	case StateSubmitting:
		return "submitting"
	case Created:
		return "created"
	case Previewed:
		return "previewed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Created || s == Previewed || s == Failed
}

// FailureReason names the category of a session failure.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrSessionExpired):
		return "SessionExpired"
	case errors.Is(err, shared.ErrEmptyResult):
		return "EmptyResult"
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrNotAuthenticated):
		return "ValidationError"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Canceled"
	default:
		return "UpstreamError"
	}
}

// AssemblyRequest is the input to one session.
//
// Name and Description default to the WeatherTunes naming scheme when empty.
type AssemblyRequest struct {
	Hints       []models.SongHint     `json:"hints"`
	Mood        models.MoodContext    `json:"mood"`
	Weather     models.WeatherContext `json:"weather"`
	Language    string                `json:"language"`
	Name        string                `json:"name,omitempty"`
	Description string                `json:"description,omitempty"`
	DryRun      bool                  `json:"dry_run,omitempty"`
}

// Validate checks the request before any network call is made.
func (r AssemblyRequest) Validate() error {
	hasGenre := false
	for _, g := range r.Mood.Genres {
		if strings.TrimSpace(g) != "" {
			hasGenre = true
			break
		}
	}

	if len(r.Hints) == 0 && !hasGenre {
		return fmt.Errorf("%w: at least one song hint or genre is required", shared.ErrInvalidInput)
	}
	return nil
}

// SessionResult describes the outcome of a session.
type SessionResult struct {
	SessionID    string                  `json:"session_id"`
	State        State                   `json:"state"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Ranked       models.RankedPlaylist   `json:"ranked"`
	Playlist     *models.CreatedPlaylist `json:"playlist,omitempty"`
	Collected    int                     `json:"collected"`
	Supplemental int                     `json:"supplemental"`
	Expired      int                     `json:"expired_hint_searches"`
	Reason       string                  `json:"reason,omitempty"`
}

// Session tracks one assembly from Idle to a terminal state.
type Session struct {
	ID     string
	mu     sync.Mutex
	state  State
	logger *log.Logger
}

func newSession(logger *log.Logger) *Session {
	id := shared.GenerateID()
	return &Session{ID: id, logger: shared.WithLogger(logger, "session", id)}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	s.logger.Debug("session transition", "from", from, "to", to)
}

// PlaylistEngine runs assembly sessions against a music service.
//
// Sessions share only the credential state.
type PlaylistEngine struct {
	service   services.Service
	refresher *CredentialRefresher
	collector *Collector
	planner   *Planner
	submitter *Submitter
	logger    *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided service and credentials.
func NewPlaylistEngine(service services.Service, creds *models.CredentialState, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if creds == nil {
		creds = &models.CredentialState{}
	}

	refresher := NewCredentialRefresher(creds, service, shared.WithLogger(logger, "component", "refresher"))
	return &PlaylistEngine{
		service:   service,
		refresher: refresher,
		collector: NewCollector(service, shared.WithLogger(logger, "component", "collector")),
		planner:   NewPlanner(service, refresher, shared.WithLogger(logger, "component", "planner")),
		submitter: NewSubmitter(service, refresher, shared.WithLogger(logger, "component", "submitter")),
		logger:    logger,
	}
}

// Refresher returns the engine's credential refresher.
func (e *PlaylistEngine) Refresher() *CredentialRefresher {
	return e.refresher
}

// Credentials returns the shared credential state.
func (e *PlaylistEngine) Credentials() *models.CredentialState {
	return e.refresher.Credentials()
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes one assembly session.
//
// The returned result is non-nil whenever validation passed, including on failure, and
// records the terminal state. A [shared.ErrSessionExpired] error means the caller must
// clear stored credentials.
func (e *PlaylistEngine) Run(ctx context.Context, req AssemblyRequest, progress chan<- ProgressUpdate) (*SessionResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !e.Credentials().Authenticated() {
		return nil, fmt.Errorf("%w: log in with `wtunes auth login`", shared.ErrNotAuthenticated)
	}

	session := newSession(e.logger)
	result := &SessionResult{
		SessionID:   session.ID,
		Name:        req.Name,
		Description: req.Description,
	}
	if result.Name == "" {
		result.Name = PlaylistName(req.Weather, req.Mood, req.Language)
	}
	if result.Description == "" {
		result.Description = PlaylistDescription(req.Mood, req.Language)
	}

	err := e.run(ctx, session, req, result, progress)
	if err != nil {
		session.transition(Failed)
		result.Reason = FailureReason(err)
		session.logger.Error("session failed", "reason", result.Reason, "error", err)
	}
	result.State = session.State()

	if err == nil {
		e.sendProgress(progress, finishedUpdate(result))
	}
	return result, err
}

func (e *PlaylistEngine) run(ctx context.Context, s *Session, req AssemblyRequest, result *SessionResult, progress chan<- ProgressUpdate) error {
	term := LanguageTerm(req.Language)
	hints := req.Hints[:min(len(req.Hints), MaxHints)]

	s.transition(StateCollecting)
	e.sendProgress(progress, collectingUpdate(len(hints)))

	token := e.Credentials().AccessToken()
	collected, err := e.collector.Collect(ctx, token, hints, term)
	if err != nil {
		return err
	}
	result.Collected = len(collected.Candidates)
	result.Expired = collected.Expired
	e.sendProgress(progress, collectedUpdate(collected, len(hints)))

	if collected.Expired > 0 {
		e.sendProgress(progress, refreshingUpdate())
		if _, err := e.refresher.Refresh(ctx, token); err != nil {
			return err
		}
	}

	var supplemental []models.TrackCandidate
	if needed := models.MaxPlaylistTracks - len(collected.Candidates); needed > 0 {
		s.transition(StateSupplementing)
		e.sendProgress(progress, supplementingUpdate(needed, len(PlanQueries(req.Mood, term, needed))))

		if supplemental, err = e.planner.Supplement(ctx, req.Mood, term, needed); err != nil {
			return err
		}
		result.Supplemental = len(supplemental)
	}

	s.transition(StateRanking)
	ranked, err := Merge(collected.Candidates, supplemental)
	if err != nil {
		return err
	}
	result.Ranked = ranked
	e.sendProgress(progress, rankedUpdate(ranked, len(collected.Candidates)+len(supplemental)))

	if req.DryRun {
		s.transition(Previewed)
		s.logger.Info("session previewed", "tracks", ranked.Len())
		return nil
	}

	s.transition(StateSubmitting)
	e.sendProgress(progress, creatingUpdate(result.Name))

	playlist, err := e.submitter.Submit(ctx, result.Name, result.Description, ranked.URIs(), func(done, total int) {
		e.sendProgress(progress, batchUpdate(done, total))
	})
	if err != nil {
		return err
	}

	result.Playlist = playlist
	s.transition(Created)
	s.logger.Info("session created playlist", "playlist", playlist.ID, "tracks", playlist.TrackCount, "url", playlist.URL)
	return nil
}
