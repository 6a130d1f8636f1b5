package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/desertthunder/weathertunes/internal/tasks"
)

const maxRequestBody = 1 << 20

// AssembleRequest is the body accepted by POST /api/playlists.
type AssembleRequest struct {
	tasks.AssemblyRequest
	tasks.ContextOptions
}

// ErrorResponse is the JSON body of every failed API request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	SessionID string `json:"session_id,omitempty"`
}

// AssembleHandler runs one assembly session per request.
type AssembleHandler struct {
	engine    *tasks.PlaylistEngine
	source    tasks.ContextSource
	onExpired func() error
	logger    *log.Logger
}

// NewAssembleHandler creates a handler backed by engine. source may be nil when no context
// API is configured; requests that name a location then fail.
//
// onExpired is called whenever a session ends in [shared.ErrSessionExpired] so stored
// credentials can be discarded.
func NewAssembleHandler(engine *tasks.PlaylistEngine, source tasks.ContextSource, onExpired func() error, logger *log.Logger) *AssembleHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AssembleHandler{engine: engine, source: source, onExpired: onExpired, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *AssembleHandler) Routes() []string {
	return []string{"/api/playlists"}
}

func (h *AssembleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		WriteError(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", Reason: "ValidationError"})
		return
	}

	var req AssembleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		h.fail(w, "", fmt.Errorf("%w: malformed request body: %v", shared.ErrInvalidInput, err))
		return
	}

	if err := tasks.ResolveContext(r.Context(), h.source, &req.AssemblyRequest, req.ContextOptions); err != nil {
		h.fail(w, "", err)
		return
	}

	result, err := h.engine.Run(r.Context(), req.AssemblyRequest, nil)
	if err != nil {
		id := ""
		if result != nil {
			id = result.SessionID
		}
		h.fail(w, id, err)
		return
	}

	status := http.StatusOK
	if result.Playlist != nil {
		status = http.StatusCreated
	}
	WriteJSON(w, status, result)
}

func (h *AssembleHandler) fail(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, shared.ErrSessionExpired) && h.onExpired != nil {
		if cerr := h.onExpired(); cerr != nil {
			h.logger.Error("failed to clear expired credentials", "error", cerr)
		}
	}

	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("assembly request failed", "session", sessionID, "error", err)
	} else {
		h.logger.Warn("assembly request rejected", "session", sessionID, "status", status, "error", err)
	}

	WriteError(w, status, ErrorResponse{Error: err.Error(), Reason: tasks.FailureReason(err), SessionID: sessionID})
}

// StatusFor maps an assembly error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrSessionExpired), errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON [ErrorResponse].
func WriteError(w http.ResponseWriter, status int, body ErrorResponse) {
	WriteJSON(w, status, body)
}
