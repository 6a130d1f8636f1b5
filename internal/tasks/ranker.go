package tasks

import (
	"sort"

	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/shared"
)

const (
	// popularityThreshold separates popular tracks (strictly above) from variety picks.
	popularityThreshold = 20
	// popularQuota is 70% of [models.MaxPlaylistTracks].
	popularQuota = 21
)

// Merge deduplicates candidates by URI and selects up to 30 tracks: the 21 most popular
// tracks above the threshold, then the most popular variety tracks, then any remaining
// tracks by popularity until the playlist is full.
//
// When a URI appears more than once the last occurrence wins but keeps the first position.
// Candidates without a URI are ignored. Returns [shared.ErrEmptyResult] when nothing is left.
func Merge(lists ...[]models.TrackCandidate) (models.RankedPlaylist, error) {
	index := make(map[string]int)
	var unique []models.TrackCandidate

	for _, list := range lists {
		for _, c := range list {
			if c.URI == "" {
				continue
			}
			c.Popularity = max(c.Popularity, 0)
			if i, ok := index[c.URI]; ok {
				unique[i] = c
				continue
			}
			index[c.URI] = len(unique)
			unique = append(unique, c)
		}
	}

	if len(unique) == 0 {
		return models.RankedPlaylist{}, shared.ErrEmptyResult
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Popularity > unique[j].Popularity
	})

	var popular, other []models.TrackCandidate
	for _, c := range unique {
		if c.Popularity > popularityThreshold {
			popular = append(popular, c)
		} else {
			other = append(other, c)
		}
	}

	popularCount := min(popularQuota, len(popular))
	varietyCount := min(models.MaxPlaylistTracks-popularCount, len(other))

	tracks := make([]models.TrackCandidate, 0, models.MaxPlaylistTracks)
	tracks = append(tracks, popular[:popularCount]...)
	tracks = append(tracks, other[:varietyCount]...)

	if len(tracks) < models.MaxPlaylistTracks {
		chosen := make(map[string]bool, len(tracks))
		for _, t := range tracks {
			chosen[t.URI] = true
		}
		for _, c := range unique {
			if len(tracks) == models.MaxPlaylistTracks {
				break
			}
			if !chosen[c.URI] {
				tracks = append(tracks, c)
			}
		}
	}

	return models.RankedPlaylist{Tracks: tracks[:min(len(tracks), models.MaxPlaylistTracks)]}, nil
}
