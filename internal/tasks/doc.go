// Package tasks assembles weather and mood playlists with real-time progress reporting.
//
// # Session Flow
//
// [PlaylistEngine.Run] drives one session through these states:
//
//  1. Collecting : one concurrent search per song hint (at most 30), best match only
//     - Expired tokens are counted, then refreshed once after the batch
//  2. Supplementing : genre and mood queries run in order to fill any shortfall
//     - Each query refreshes and retries once on an expired token
//  3. Ranking : [Merge] deduplicates by URI and applies the 70/30 popularity split
//  4. Submitting : [Submitter] creates a public playlist and adds tracks in batches of 100
//
// Sessions end as Created, Previewed (dry run) or Failed. A failure with
// [shared.ErrSessionExpired] means stored credentials must be discarded.
//
// # Progress Reporting
//
// All phases use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Credentials
//
// [CredentialRefresher] shares a single refresh-token exchange among concurrent callers.
// Register [CredentialRefresher.OnRefresh] to persist rotated tokens.
package tasks
