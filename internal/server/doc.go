// Package server provides HTTP routing, middleware, and handlers for the CLI OAuth flow and the assembly API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestID], [Logger] and [Recoverer] are the stock middleware used by `wtunes serve`.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Assembly API
//
//   - POST /api/playlists : [AssembleHandler] runs one session and returns the result as JSON
//   - GET /health : [HealthHandler] reports liveness and whether credentials are loaded
//
// Failed sessions respond with an [ErrorResponse] whose reason names the failure kind.
// A SessionExpired failure responds 401 and clears stored credentials.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
