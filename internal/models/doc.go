// Package models defines the values that flow through a playlist assembly session.
//
// Inputs are supplied by callers and never mutated:
//   - [SongHint] : an AI-suggested artist and title
//   - [MoodContext] : mood descriptor, suggestion text and genres
//   - [WeatherContext] : location and condition used for naming
//
// Intermediate and output values:
//   - [TrackCandidate] : a search result, unique by URI
//   - [RankedPlaylist] : at most [MaxPlaylistTracks] unique candidates
//   - [CreatedPlaylist] : handle to the published playlist
//
// [CredentialState] is the only value shared across sessions. It is safe for concurrent use.
package models
