// Package services implements clients for the remote APIs used during playlist assembly.
//
// # Spotify
//
// [SpotifyService] implements [Service]: track search, playlist creation, batched track
// addition and refresh-token exchange through [oauth2.Config]. Access tokens are passed per
// call rather than stored, so a refreshed token takes effect on the very next request.
//
// Requests may be paced with a token bucket ([WithRateLimit]).
//
// # Context API
//
// [ContextService] talks to the companion API that derives weather, mood and AI song hints
// for a location. It is consumed only at its interface.
//
// # Error Handling
//
// Services classify failures with the shared package:
//   - [shared.ErrTokenExpired] : HTTP 401, or an error message saying the access token expired
//   - [shared.UpstreamError] : any other non-2xx status or transport failure
//   - [shared.ErrRefreshFailed], [shared.ErrNoRefreshToken] : refresh-token exchange failures
//   - [shared.ErrNotAuthenticated] : a call was made without an access token
package services
