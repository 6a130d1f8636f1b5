// Client for the companion context API (weather, mood and AI song hints)
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/shared"
)

// ContextService calls the context API that derives weather, mood and song hints for a location.
type ContextService struct {
	baseURL    string
	httpClient *http.Client
}

// NewContextService creates a client for the API at baseURL.
func NewContextService(baseURL string, client *http.Client) *ContextService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8888/.netlify/functions"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &ContextService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorMessage extracts the "error" field of a JSON error body, falling back to the raw body.
func (r *APIResponse) ErrorMessage() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if text := strings.TrimSpace(string(r.Body)); text != "" {
		return text
	}
	return http.StatusText(r.StatusCode)
}

// Post sends data as a JSON body and returns the raw response.
func (a *ContextService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &shared.UpstreamError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

func (a *ContextService) postJSON(ctx context.Context, path string, payload, result any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := a.Post(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, nil
	}

	if err := json.Unmarshal(resp.Body, result); err != nil {
		return nil, &shared.UpstreamError{Status: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	return resp, nil
}

// Weather is the current conditions block of a [WeatherReport].
type Weather struct {
	Name        string  `json:"name"`
	Condition   string  `json:"condition"`
	Icon        string  `json:"icon"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
}

// WeatherReport is the weather and derived mood for a location.
type WeatherReport struct {
	Weather Weather            `json:"weather"`
	Mood    models.MoodContext `json:"mood"`
}

// Context returns the naming context for the report.
func (w *WeatherReport) Context() models.WeatherContext {
	return models.WeatherContext{Location: w.Weather.Name, Condition: w.Weather.Condition}
}

// WeatherMood fetches current weather for location and the mood derived from it.
func (a *ContextService) WeatherMood(ctx context.Context, location, language string) (*WeatherReport, error) {
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("%w: location is required", shared.ErrMissingArgument)
	}

	payload := map[string]string{"location": location, "language": language}

	var report WeatherReport
	resp, err := a.postJSON(ctx, "/weather-playlist", payload, &report)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &shared.UpstreamError{Status: resp.StatusCode, Message: resp.ErrorMessage()}
	}
	return &report, nil
}

// HintRequest describes the context sent to the song hint generator.
type HintRequest struct {
	Weather   string   `json:"weather"`
	Mood      string   `json:"mood"`
	Genres    []string `json:"genres"`
	Language  string   `json:"language"`
	Activity  string   `json:"activity,omitempty"`
	Discovery int      `json:"discovery"`
}

// SongHints asks the generator for song suggestions.
//
// A generator that is not configured yields no hints and no error, so assembly can
// continue from genres alone. "Session expired" responses map to [shared.ErrSessionExpired].
func (a *ContextService) SongHints(ctx context.Context, req HintRequest) ([]models.SongHint, error) {
	var result struct {
		Songs []models.SongHint `json:"songs"`
	}

	resp, err := a.postJSON(ctx, "/ai-playlist", req, &result)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		msg := resp.ErrorMessage()
		switch {
		case strings.Contains(msg, "Session expired"):
			return nil, fmt.Errorf("%w: %s", shared.ErrSessionExpired, msg)
		case strings.Contains(msg, "not configured"):
			return nil, nil
		}
		return nil, &shared.UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	hints := make([]models.SongHint, 0, len(result.Songs))
	for _, s := range result.Songs {
		if strings.TrimSpace(s.Artist) == "" && strings.TrimSpace(s.Title) == "" {
			continue
		}
		hints = append(hints, s)
	}
	return hints, nil
}
