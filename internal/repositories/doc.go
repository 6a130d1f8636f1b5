// Package repositories implements SQLite persistence for the signed-in Spotify session.
//
// Key Implementations:
//   - [CredentialRepository] : single-row storage for access and refresh tokens
//
// Assembly sessions are not persisted. Credentials are the only durable state, and
// are removed on logout or when a refresh fails.
package repositories
