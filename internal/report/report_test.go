package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/playthelist/playtl/internal/history"
	"github.com/playthelist/playtl/internal/transfer"
)

func sampleResult() *transfer.Result {
	return &transfer.Result{
		PlaylistURL:  "https://music.youtube.com/playlist?list=PLxyz",
		PlaylistName: "Road Trip",
		Missing:      []string{"Song B - Artist Y"},
		Total:        3,
		Resolved:     2,
	}
}

func TestRenderers(t *testing.T) {
	t.Run("ToText", func(t *testing.T) {
		out := string(ToText(sampleResult()))

		for _, want := range []string{"Road Trip", "2/3 tracks", "Song B - Artist Y"} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("ToTextNoMissing", func(t *testing.T) {
		res := sampleResult()
		res.Missing = nil
		res.Resolved = 3

		out := string(ToText(res))
		if strings.Contains(out, "Not found") {
			t.Errorf("unexpected missing section:\n%s", out)
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		out := string(ToMarkdown(sampleResult()))

		if !strings.HasPrefix(out, "# Road Trip") {
			t.Errorf("expected playlist name heading:\n%s", out)
		}
		if !strings.Contains(out, "## Missing Tracks") {
			t.Errorf("expected missing tracks section:\n%s", out)
		}
		if !strings.Contains(out, "1. Song B - Artist Y") {
			t.Errorf("expected numbered missing track:\n%s", out)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(sampleResult())
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var decoded transfer.Result
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.PlaylistURL != sampleResult().PlaylistURL {
			t.Errorf("unexpected decoded result: %+v", decoded)
		}
	})

	t.Run("HistoryToText", func(t *testing.T) {
		records := []history.Record{
			{
				SourcePlatform: "spotify",
				TargetPlatform: "youtube",
				PlaylistName:   "Road Trip",
				PlaylistURL:    "https://music.youtube.com/playlist?list=PLxyz",
				TotalTracks:    3,
				ResolvedTracks: 2,
				Missing:        []string{"Song B - Artist Y"},
				CreatedAt:      time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
			},
		}

		out := string(HistoryToText(records))
		for _, want := range []string{"2026-08-23", "spotify -> youtube", "Road Trip", "missing: Song B - Artist Y"} {
			if !strings.Contains(out, want) {
				t.Errorf("history output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("HistoryToTextEmpty", func(t *testing.T) {
		out := string(HistoryToText(nil))
		if !strings.Contains(out, "No transfers recorded") {
			t.Errorf("unexpected empty history output:\n%s", out)
		}
	})
}
