package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/weathertunes/internal/shared"
	tu "github.com/desertthunder/weathertunes/internal/testing"
)

func TestContextService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewContextService("http://example.com/", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash to be trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Defaults", func(t *testing.T) {
			srv := NewContextService("", nil)

			if srv.baseURL == "" {
				t.Error("expected default baseURL")
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Transport Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("network down"))}
			srv := NewContextService("http://example.com", client)

			_, err := srv.Post(context.Background(), "/x", []byte("{}"))
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Body Read Error", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			srv := NewContextService("http://example.com", client)

			if _, err := srv.Post(context.Background(), "/x", []byte("{}")); err == nil {
				t.Error("expected read error")
			}
		})
	})

	t.Run("WeatherMood", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/weather-playlist" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["location"] != "Pune" || body["language"] != "hindi" {
					t.Errorf("unexpected body %v", body)
				}

				io.WriteString(w, `{"weather":{"name":"Pune","condition":"Light rain","temperature":24.5,"humidity":88},"mood":{"type":"cozy","suggestion":"Rainy day vibes","genres":["lofi","acoustic","indie"]}}`)
			}))
			defer server.Close()

			report, err := NewContextService(server.URL, nil).WeatherMood(context.Background(), "Pune", "hindi")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if report.Mood.Type != "cozy" || len(report.Mood.Genres) != 3 {
				t.Errorf("unexpected mood %+v", report.Mood)
			}
			wc := report.Context()
			if wc.Location != "Pune" || wc.Condition != "Light rain" {
				t.Errorf("unexpected weather context %+v", wc)
			}
		})

		t.Run("Missing Location", func(t *testing.T) {
			_, err := NewContextService("http://example.com", nil).WeatherMood(context.Background(), " ", "")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("Upstream Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"error":"Location not found"}`)
			}))
			defer server.Close()

			_, err := NewContextService(server.URL, nil).WeatherMood(context.Background(), "Atlantis", "")
			ue, ok := shared.AsUpstream(err)
			if !ok {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if ue.Status != http.StatusNotFound || ue.Message != "Location not found" {
				t.Errorf("unexpected error %+v", ue)
			}
		})
	})

	t.Run("SongHints", func(t *testing.T) {
		serve := func(t *testing.T, status int, body string) *ContextService {
			t.Helper()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/ai-playlist" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(status)
				io.WriteString(w, body)
			}))
			t.Cleanup(server.Close)
			return NewContextService(server.URL, nil)
		}

		t.Run("Success Skips Blank Songs", func(t *testing.T) {
			srv := serve(t, http.StatusOK, `{"songs":[{"artist":"Imagine Dragons","title":"Believer"},{"artist":" ","title":""},{"artist":"Adele","title":"Hello"}]}`)

			hints, err := srv.SongHints(context.Background(), HintRequest{Weather: "Sunny", Mood: "upbeat"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(hints) != 2 || hints[1].Title != "Hello" {
				t.Errorf("unexpected hints %+v", hints)
			}
		})

		t.Run("Generator Not Configured", func(t *testing.T) {
			srv := serve(t, http.StatusInternalServerError, `{"error":"Gemini API key not configured"}`)

			hints, err := srv.SongHints(context.Background(), HintRequest{})
			if err != nil || hints != nil {
				t.Errorf("expected no hints and no error, got %v %v", hints, err)
			}
		})

		t.Run("Session Expired", func(t *testing.T) {
			srv := serve(t, http.StatusUnauthorized, `{"error":"Session expired. Please log in again."}`)

			if _, err := srv.SongHints(context.Background(), HintRequest{}); !errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("expected ErrSessionExpired, got %v", err)
			}
		})

		t.Run("Other Failure", func(t *testing.T) {
			srv := serve(t, http.StatusBadGateway, `upstream exploded`)

			_, err := srv.SongHints(context.Background(), HintRequest{})
			ue, ok := shared.AsUpstream(err)
			if !ok || ue.Message != "upstream exploded" {
				t.Errorf("expected UpstreamError with raw body, got %v", err)
			}
		})

		t.Run("Malformed JSON", func(t *testing.T) {
			srv := serve(t, http.StatusOK, `{"songs":`)

			if _, err := srv.SongHints(context.Background(), HintRequest{}); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}
