package models

import (
	"fmt"
	"strings"
)

// MaxPlaylistTracks bounds the size of a [RankedPlaylist].
const MaxPlaylistTracks = 30

// SongHint is an artist/title pair to resolve against the search API.
type SongHint struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// Query joins the hint with an optional language term, dropping empty parts.
func (h SongHint) Query(languageTerm string) string {
	return strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", h.Artist, h.Title, languageTerm)), " ")
}

func (h SongHint) String() string {
	return fmt.Sprintf("%s - %s", h.Artist, h.Title)
}

// TrackCandidate is a resolved track. Candidates are identified by URI.
//
// HintDistance is the edit distance between the originating hint and the result,
// or -1 when the candidate came from a supplemental query.
type TrackCandidate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Artist       string `json:"artist"`
	URI          string `json:"uri"`
	Popularity   int    `json:"popularity"`
	SourceQuery  string `json:"source_query,omitempty"`
	HintDistance int    `json:"hint_distance"`
}

// RankedPlaylist is the deduplicated, ordered output of ranking.
type RankedPlaylist struct {
	Tracks []TrackCandidate `json:"tracks"`
}

// URIs returns track URIs in playlist order.
func (p RankedPlaylist) URIs() []string {
	uris := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		uris[i] = t.URI
	}
	return uris
}

// Len returns the number of tracks.
func (p RankedPlaylist) Len() int { return len(p.Tracks) }

// CreatedPlaylist is the published playlist handle.
type CreatedPlaylist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	TrackCount int    `json:"tracks"`
}

// MoodContext describes the listening mood derived from the weather.
type MoodContext struct {
	Type       string   `json:"type"`
	Suggestion string   `json:"suggestion"`
	Genres     []string `json:"genres"`
}

// WeatherContext identifies where and under which conditions the playlist is made.
type WeatherContext struct {
	Location  string `json:"location"`
	Condition string `json:"condition"`
}
