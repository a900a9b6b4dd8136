package normalize

import "testing"

func TestTitle(t *testing.T) {
	t.Run("StripsDecorations", func(t *testing.T) {
		cases := []struct {
			name string
			raw  string
			want string
		}{
			{"bracketed parens", "Song Name (Official Video)", "Song Name"},
			{"bracketed square", "Song Name [Remastered 2011]", "Song Name"},
			{"multiple brackets", "Song (Live) [HD]", "Song"},
			{"noise token official video", "Song Name Official Video", "Song Name"},
			{"noise token music video", "Song Name music video", "Song Name"},
			{"noise token lyrics", "Song Name Lyrics", "Song Name"},
			{"noise token audio", "Song Name Audio", "Song Name"},
			{"whitespace collapsed", "Song    Name \t Here", "Song Name Here"},
			{"leading and trailing space", "  Song Name  ", "Song Name"},
			{"plain title untouched", "Song Name", "Song Name"},
			{"empty input", "", ""},
			{"everything stripped", "(Official Video) lyrics", ""},
			{"noise inside brackets", "Song (Official Music Video) [Lyrics]", "Song"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := Title(tc.raw); got != tc.want {
					t.Errorf("Title(%q) = %q, want %q", tc.raw, got, tc.want)
				}
			})
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		inputs := []string{
			"Song Name (Official Video)",
			"auaudiodio",
			"Song au(x)dio",
			"ly lyricsrics Song",
			"Track [Live] (Remastered) official video",
			"  plain  ",
		}

		for _, raw := range inputs {
			once := Title(raw)
			twice := Title(once)
			if once != twice {
				t.Errorf("Title not idempotent for %q: first %q, second %q", raw, once, twice)
			}
		}
	})

	t.Run("NestedNoiseCollapsesFully", func(t *testing.T) {
		// Removing the inner token exposes the outer one; a single pass
		// would leave "audio" behind.
		if got := Title("auaudiodio"); got != "" {
			t.Errorf("Title(%q) = %q, want empty", "auaudiodio", got)
		}
	})
}
