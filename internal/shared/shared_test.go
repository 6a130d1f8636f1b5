package shared

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Believer",
			artist: "Imagine Dragons",
			want:   "believer|imagine dragons",
		},
		{
			name:   "extra whitespace",
			title:  "  Fix   You  ",
			artist: "  Coldplay ",
			want:   "fix you|coldplay",
		},
		{
			name:   "mixed case",
			title:  "KeSaRiYa",
			artist: "ARIJIT Singh",
			want:   "kesariya|arijit singh",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTrackKey(tt.title, tt.artist); got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerators(t *testing.T) {
	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct ids")
		}
	})

	t.Run("GenerateState is url safe", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(state) < 40 {
			t.Errorf("state too short: %q", state)
		}
		if strings.ContainsAny(state, "+/=") {
			t.Errorf("state is not url safe: %q", state)
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wtunes.log")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hello")
}

func TestUpstreamError(t *testing.T) {
	t.Run("matches ErrAPIRequest", func(t *testing.T) {
		err := fmt.Errorf("create playlist: %w", &UpstreamError{Status: 500, Message: "boom"})
		if !errors.Is(err, ErrAPIRequest) {
			t.Error("expected UpstreamError to match ErrAPIRequest")
		}

		ue, ok := AsUpstream(err)
		if !ok {
			t.Fatal("expected AsUpstream to find the error")
		}
		if ue.Status != 500 || ue.Message != "boom" {
			t.Errorf("unexpected upstream error %+v", ue)
		}
	})

	t.Run("message formats", func(t *testing.T) {
		withStatus := (&UpstreamError{Status: 404, Message: "missing"}).Error()
		if !strings.Contains(withStatus, "status 404") {
			t.Errorf("expected status in message, got %q", withStatus)
		}

		noResponse := (&UpstreamError{Message: "dial tcp"}).Error()
		if strings.Contains(noResponse, "status") {
			t.Errorf("expected no status in message, got %q", noResponse)
		}
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		if !errors.Is(&UpstreamError{Err: cause}, cause) {
			t.Error("expected cause to be reachable")
		}
	})

	t.Run("not matched by other sentinels", func(t *testing.T) {
		if errors.Is(&UpstreamError{Status: 500}, ErrTokenExpired) {
			t.Error("upstream error must not look like an expired token")
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	original := getRuntime
	t.Cleanup(func() { getRuntime = original })

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("https://example.com"); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented for unsupported platform, got %v", err)
	}
}
