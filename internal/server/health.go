package server

import (
	"net/http"

	"github.com/desertthunder/weathertunes/internal/models"
)

// HealthHandler reports liveness and whether a Spotify session is loaded.
type HealthHandler struct {
	creds   *models.CredentialState
	service string
}

func NewHealthHandler(creds *models.CredentialState, service string) *HealthHandler {
	return &HealthHandler{creds: creds, service: service}
}

func (h *HealthHandler) Routes() []string {
	return []string{"/health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"service":       h.service,
		"authenticated": h.creds.Authenticated(),
		"user":          h.creds.DisplayName(),
	})
}
