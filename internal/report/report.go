// package report renders transfer results for terminals and files (plain
// text, Markdown, JSON).
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/playthelist/playtl/internal/history"
	"github.com/playthelist/playtl/internal/shared"
	"github.com/playthelist/playtl/internal/transfer"
)

// ToText converts a transfer result to a plain text summary.
func ToText(res *transfer.Result) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", res.PlaylistName))
	buf.WriteString(fmt.Sprintf("URL: %s\n", res.PlaylistURL))
	buf.WriteString(fmt.Sprintf("Transferred: %d/%d tracks\n", res.Resolved, res.Total))

	if len(res.Missing) > 0 {
		buf.WriteString(fmt.Sprintf("\nNot found (%d):\n", len(res.Missing)))
		for _, track := range res.Missing {
			buf.WriteString(fmt.Sprintf("  - %s\n", track))
		}
	}

	return buf.Bytes()
}

// ToMarkdown converts a transfer result to Markdown.
func ToMarkdown(res *transfer.Result) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", res.PlaylistName))
	buf.WriteString(fmt.Sprintf("**Playlist**: <%s>\n", res.PlaylistURL))
	buf.WriteString(fmt.Sprintf("**Transferred**: %d/%d tracks\n\n", res.Resolved, res.Total))

	if len(res.Missing) > 0 {
		buf.WriteString("## Missing Tracks\n\n")
		for i, track := range res.Missing {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, track))
		}
	}

	return buf.Bytes()
}

// ToJSON converts a transfer result to indented JSON.
func ToJSON(res *transfer.Result) ([]byte, error) {
	return shared.MarshalJSON(res, true)
}

// HistoryToText renders stored transfer records as a plain text listing,
// newest first.
func HistoryToText(records []history.Record) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No transfers recorded.\n")
		return buf.Bytes()
	}

	for _, rec := range records {
		buf.WriteString(fmt.Sprintf("%s  %s -> %s  %q  %d/%d tracks\n",
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.SourcePlatform,
			rec.TargetPlatform,
			rec.PlaylistName,
			rec.ResolvedTracks,
			rec.TotalTracks,
		))
		buf.WriteString(fmt.Sprintf("    %s\n", rec.PlaylistURL))
		if len(rec.Missing) > 0 {
			buf.WriteString(fmt.Sprintf("    missing: %s\n", strings.Join(rec.Missing, "; ")))
		}
	}

	return buf.Bytes()
}
