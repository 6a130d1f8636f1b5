package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/weathertunes/internal/models"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.TrackCandidate] to implement [list.Item].
type trackItem struct {
	position int
	track    models.TrackCandidate
}

func (i trackItem) FilterValue() string { return i.track.Name + " " + i.track.Artist }
func (i trackItem) Title() string       { return fmt.Sprintf("%2d. %s", i.position, i.track.Name) }
func (i trackItem) Description() string {
	source := "from genres"
	if i.track.HintDistance >= 0 {
		source = "from hint"
	}
	return fmt.Sprintf("%s • popularity %d • %s", i.track.Artist, i.track.Popularity, source)
}

func trackItems(ranked models.RankedPlaylist) []list.Item {
	items := make([]list.Item, len(ranked.Tracks))
	for i, t := range ranked.Tracks {
		items[i] = trackItem{position: i + 1, track: t}
	}
	return items
}
