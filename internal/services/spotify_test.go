package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playthelist/playtl/internal/shared"
	"golang.org/x/oauth2"
)

func newTestSpotify(t *testing.T, handler http.HandlerFunc) *SpotifyAdapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	adapter, err := NewSpotifyAdapter(shared.SpotifyConfig{
		ClientID:     "test-id",
		ClientSecret: "test-secret",
	})
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	adapter.baseURL = srv.URL
	adapter.token = &oauth2.Token{AccessToken: "test-token"}
	adapter.httpClient = srv.Client()
	return adapter
}

func TestSpotifyAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("NewRequiresCredentials", func(t *testing.T) {
		if _, err := NewSpotifyAdapter(shared.SpotifyConfig{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if _, err := NewSpotifyAdapter(shared.SpotifyConfig{ClientID: "id"}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials without secret, got %v", err)
		}
	})

	t.Run("ExtractPlaylistID", func(t *testing.T) {
		adapter, _ := NewSpotifyAdapter(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})

		cases := []struct {
			name    string
			url     string
			want    string
			wantErr bool
		}{
			{"plain", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M", false},
			{"with query", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=xyz", "37i9dQZF1DXcBWIGoYBM5M", false},
			{"trailing segment", "https://open.spotify.com/playlist/abc123/extra", "abc123", false},
			{"track url", "https://open.spotify.com/track/abc123", "", true},
			{"empty id", "https://open.spotify.com/playlist/", "", true},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got, err := adapter.ExtractPlaylistID(tc.url)
				if tc.wantErr {
					if !errors.Is(err, shared.ErrInvalidURL) {
						t.Errorf("expected ErrInvalidURL, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tc.want {
					t.Errorf("got %q, want %q", got, tc.want)
				}
			})
		}
	})

	t.Run("ListTracksNormalizesTitles", func(t *testing.T) {
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/abc" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":   "abc",
				"name": "Road Trip",
				"tracks": map[string]any{
					"total": 2,
					"items": []map[string]any{
						{"track": map[string]any{
							"name":    "Song A (Official Video)",
							"artists": []map[string]any{{"name": "Artist X"}},
							"uri":     "spotify:track:1",
						}},
						{"track": map[string]any{
							"name":    "Song B",
							"artists": []map[string]any{},
							"uri":     "spotify:track:2",
						}},
					},
				},
			})
		})

		tracks, title, err := adapter.ListTracks(ctx, "abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if title != "Road Trip" {
			t.Errorf("unexpected title: %s", title)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Title != "Song A" || tracks[0].Artist != "Artist X" {
			t.Errorf("title not normalized: %+v", tracks[0])
		}
		if tracks[1].Artist != "" {
			t.Errorf("expected empty artist: %+v", tracks[1])
		}
	})

	t.Run("ListTracksWrapsUnavailable", func(t *testing.T) {
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, _, err := adapter.ListTracks(ctx, "missing")
		if !errors.Is(err, shared.ErrPlaylistUnavailable) {
			t.Errorf("expected ErrPlaylistUnavailable, got %v", err)
		}
	})

	t.Run("SearchStructuredQuery", func(t *testing.T) {
		var gotQuery string
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{
					"items": []map[string]any{
						{"name": "Song A", "artists": []map[string]any{{"name": "Artist X"}}, "uri": "spotify:track:hit"},
					},
				},
			})
		})

		id, err := adapter.SearchStructured(ctx, "Song A", "Artist X")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "spotify:track:hit" {
			t.Errorf("unexpected id: %s", id)
		}
		if gotQuery != "track:Song A artist:Artist X" {
			t.Errorf("unexpected structured query: %q", gotQuery)
		}
	})

	t.Run("SearchStructuredEmptyResult", func(t *testing.T) {
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"tracks": map[string]any{"items": []any{}}})
		})

		id, err := adapter.SearchStructured(ctx, "Nothing", "Nobody")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "" {
			t.Errorf("expected empty id, got %q", id)
		}
	})

	t.Run("SearchWrapsUnavailable", func(t *testing.T) {
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		if _, err := adapter.Search(ctx, "Song A", "Artist X", 5); !errors.Is(err, shared.ErrSearchUnavailable) {
			t.Errorf("expected ErrSearchUnavailable, got %v", err)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/users/user-1/playlists" || r.Method != http.MethodPost {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			var body struct {
				Name   string `json:"name"`
				Public bool   `json:"public"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if body.Name != "Road Trip" || !body.Public {
				t.Errorf("unexpected body: %+v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":            "new-id",
				"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/new-id"},
			})
		})

		ref, err := adapter.CreatePlaylist(ctx, "user-1", "Road Trip")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ref.ID != "new-id" || ref.URL != "https://open.spotify.com/playlist/new-id" {
			t.Errorf("unexpected ref: %+v", ref)
		}
	})

	t.Run("AppendTracksEmptyIsNoop", func(t *testing.T) {
		called := false
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		if err := adapter.AppendTracks(ctx, "abc", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called {
			t.Error("expected no HTTP request for empty track list")
		}
	})

	t.Run("AppendTracksBatches", func(t *testing.T) {
		var batches [][]string
		adapter := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				URIs []string `json:"uris"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			batches = append(batches, body.URIs)
			w.WriteHeader(http.StatusCreated)
		})

		ids := make([]string, 150)
		for i := range ids {
			ids[i] = "uri"
		}
		if err := adapter.AppendTracks(ctx, "abc", ids); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batches) != 2 || len(batches[0]) != 100 || len(batches[1]) != 50 {
			t.Errorf("expected batches of 100 and 50, got %d batches", len(batches))
		}
	})

	t.Run("RequiresToken", func(t *testing.T) {
		adapter, _ := NewSpotifyAdapter(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
		if _, err := adapter.CurrentUserID(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
