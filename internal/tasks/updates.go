package tasks

import (
	"fmt"

	"github.com/desertthunder/weathertunes/internal/models"
)

// ProgressUpdate represents a progress event during an assembly session.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Session phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase enumerates the reporting phases of a session.
type Phase int

const (
	Collecting Phase = iota
	Refreshing
	Supplementing
	Ranking
	CreatingPlaylist
	AddingTracks
	Finished
)

func (p Phase) String() string {
	switch p {
	case Collecting:
		return "collecting"
	case Refreshing:
		return "refreshing"
	case Supplementing:
		return "supplementing"
	case Ranking:
		return "ranking"
	case CreatingPlaylist:
		return "creating_playlist"
	case AddingTracks:
		return "adding_tracks"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

func collectingUpdate(hints int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collecting,
		Step:    0,
		Total:   hints,
		Message: fmt.Sprintf("Searching for %d suggested songs...", hints),
	}
}

func collectedUpdate(res CollectResult, hints int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collecting,
		Step:    len(res.Candidates),
		Total:   hints,
		Message: fmt.Sprintf("Matched %d of %d suggested songs", len(res.Candidates), hints),
		Data:    res,
	}
}

func refreshingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Refreshing,
		Step:    1,
		Total:   1,
		Message: "Spotify session expired, refreshing...",
	}
}

func supplementingUpdate(needed, queries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Supplementing,
		Step:    0,
		Total:   queries,
		Message: fmt.Sprintf("Finding %d more tracks from genres...", needed),
	}
}

func rankedUpdate(ranked models.RankedPlaylist, pool int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Ranking,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d tracks from %d candidates", ranked.Len(), pool),
		Data:    ranked,
	}
}

func creatingUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatingPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func batchUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddingTracks,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Added track batch", done, total),
	}
}

func finishedUpdate(result *SessionResult) ProgressUpdate {
	msg := fmt.Sprintf("Previewed %d tracks", result.Ranked.Len())
	if result.Playlist != nil {
		msg = fmt.Sprintf("✓ Created %s (%d tracks)", result.Playlist.Name, result.Playlist.TrackCount)
	}
	return ProgressUpdate{
		Phase:   Finished,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    result,
	}
}
