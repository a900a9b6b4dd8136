// Package normalize cleans free-text track titles before they are used as
// catalog search queries. Streaming platforms decorate titles with bracketed
// annotations and upload boilerplate ("official video", "lyrics") that hurt
// search relevance on the other platform.
package normalize

import (
	"regexp"
	"strings"
)

var (
	bracketed = regexp.MustCompile(`[(\[].*?[)\]]`)
	noise     = regexp.MustCompile(`(?i)official video|music video|lyrics|audio`)
	spaces    = regexp.MustCompile(`\s+`)
)

// Title strips bracketed spans and noise tokens from a raw track title and
// collapses whitespace runs. Stripping repeats until the string stops
// changing, so the function is idempotent: Title(Title(x)) == Title(x).
//
// A title that becomes empty is returned as the empty string; rejecting
// low-confidence input is the caller's concern.
func Title(raw string) string {
	s := raw
	for {
		next := strip(s)
		if next == s {
			return s
		}
		s = next
	}
}

func strip(s string) string {
	s = bracketed.ReplaceAllString(s, "")
	s = noise.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
