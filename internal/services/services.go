// package services defines the remote capabilities used by playlist assembly
//
// Spotify (search, playlists, token refresh) and the weather/hint context API
package services

import (
	"context"

	"github.com/desertthunder/weathertunes/internal/models"
	"golang.org/x/oauth2"
)

// TrackSearcher resolves a free-text query to an ordered list of candidates.
type TrackSearcher interface {
	// SearchTracks returns at most limit results, best match first.
	// Fails with [shared.ErrTokenExpired] when accessToken is rejected.
	SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]models.TrackCandidate, error)
}

// PlaylistPublisher creates playlists and appends tracks to them.
type PlaylistPublisher interface {
	// CreatePlaylist creates an empty playlist owned by the token's user.
	CreatePlaylist(ctx context.Context, accessToken, name, description string, public bool) (*models.CreatedPlaylist, error)

	// AddTracks appends up to [MaxTracksPerRequest] uris. A batch succeeds or fails as a whole.
	AddTracks(ctx context.Context, accessToken, playlistID string, uris []string) error
}

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Service is a music provider usable for the whole assembly pipeline.
type Service interface {
	TrackSearcher
	PlaylistPublisher
	TokenRefresher

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends a provider with the authorization code flow used by `auth login`.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}
