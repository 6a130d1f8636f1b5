// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/weathertunes/internal/models"
	"golang.org/x/oauth2"
)

// SearchCall records one call to [MockService.SearchTracks].
type SearchCall struct {
	AccessToken string
	Query       string
	Limit       int
}

// AddCall records one call to [MockService.AddTracks].
type AddCall struct {
	AccessToken string
	PlaylistID  string
	URIs        []string
}

// MockService is a concurrency-safe test double for services.Service.
//
// Nil funcs fall back to benign defaults: searches find nothing, playlists are created
// as "mock-playlist", batches succeed and refresh returns the token "refreshed".
type MockService struct {
	SearchFunc  func(ctx context.Context, accessToken, query string, limit int) ([]models.TrackCandidate, error)
	CreateFunc  func(ctx context.Context, accessToken, name, description string, public bool) (*models.CreatedPlaylist, error)
	AddFunc     func(ctx context.Context, accessToken, playlistID string, uris []string) error
	RefreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	mu           sync.Mutex
	searches     []SearchCall
	creates      []string
	adds         []AddCall
	refreshCalls int
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]models.TrackCandidate, error) {
	m.mu.Lock()
	m.searches = append(m.searches, SearchCall{AccessToken: accessToken, Query: query, Limit: limit})
	m.mu.Unlock()

	if m.SearchFunc == nil {
		return nil, nil
	}
	return m.SearchFunc(ctx, accessToken, query, limit)
}

func (m *MockService) CreatePlaylist(ctx context.Context, accessToken, name, description string, public bool) (*models.CreatedPlaylist, error) {
	m.mu.Lock()
	m.creates = append(m.creates, accessToken)
	m.mu.Unlock()

	if m.CreateFunc == nil {
		return &models.CreatedPlaylist{ID: "mock-playlist", Name: name, URL: "https://open.spotify.com/playlist/mock-playlist"}, nil
	}
	return m.CreateFunc(ctx, accessToken, name, description, public)
}

func (m *MockService) AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error {
	m.mu.Lock()
	m.adds = append(m.adds, AddCall{AccessToken: accessToken, PlaylistID: playlistID, URIs: append([]string(nil), uris...)})
	m.mu.Unlock()

	if m.AddFunc == nil {
		return nil
	}
	return m.AddFunc(ctx, accessToken, playlistID, uris)
}

func (m *MockService) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	m.mu.Lock()
	m.refreshCalls++
	m.mu.Unlock()

	if m.RefreshFunc == nil {
		return &oauth2.Token{AccessToken: "refreshed"}, nil
	}
	return m.RefreshFunc(ctx, refreshToken)
}

// Searches returns a copy of the recorded search calls, in call order.
func (m *MockService) Searches() []SearchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SearchCall(nil), m.searches...)
}

// Creates returns the access tokens used for each create call.
func (m *MockService) Creates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.creates...)
}

// Adds returns a copy of the recorded add-tracks calls.
func (m *MockService) Adds() []AddCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AddCall(nil), m.adds...)
}

// RefreshCalls returns how many times RefreshToken was called.
func (m *MockService) RefreshCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

// Track builds a search result with the given popularity.
func Track(id string, popularity int) models.TrackCandidate {
	return models.TrackCandidate{
		ID:           id,
		Name:         "Track " + id,
		Artist:       "Artist " + id,
		URI:          "spotify:track:" + id,
		Popularity:   popularity,
		HintDistance: -1,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
