package transfer

import (
	"fmt"

	"github.com/playthelist/playtl/internal/services"
)

// ProgressUpdate represents a progress event during a transfer.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Transfer phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Transfer phase enumeration
type Phase int

const (
	PhaseDetect Phase = iota
	PhaseFetchSource
	PhaseCreatePlaylist
	PhaseResolveTracks
	PhaseAppendTracks
)

func (p Phase) String() string {
	switch p {
	case PhaseDetect:
		return "detect_platform"
	case PhaseFetchSource:
		return "fetch_source"
	case PhaseCreatePlaylist:
		return "create_playlist"
	case PhaseResolveTracks:
		return "resolve_tracks"
	case PhaseAppendTracks:
		return "append_tracks"
	default:
		return ""
	}
}

func detectedUpdate(source, target Platform) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDetect,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Detected source: %s, target: %s", source, target),
	}
}

func fetchSourceUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching source playlist from %s...", name),
	}
}

func foundPlaylistUpdate(title string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", title, total),
	}
}

func createPlaylistUpdate(name, target string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseCreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on %s...", name, target),
	}
}

func resolveTrackUpdate(step, total int, ref services.TrackRef, resolved bool) ProgressUpdate {
	marker := "✓"
	if !resolved {
		marker = "✗"
	}
	return ProgressUpdate{
		Phase:   PhaseResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, marker, ref.String()),
	}
}

func appendTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseAppendTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks to the new playlist...", count),
	}
}
