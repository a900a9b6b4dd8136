// YouTube Music implementation of [Adapter] and [Writer]
//
// Communicates with a local proxy wrapping the ytmusicapi library; the proxy
// handles YouTube Music authentication complexities. The auth file path is
// sent via the X-Auth-File header on each request.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/playthelist/playtl/internal/normalize"
	"github.com/playthelist/playtl/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYTProxyURL = "http://localhost:8081"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID string          `json:"videoId"`
	Title   string          `json:"title"`
	Artists []YouTubeArtist `json:"artists"`
}

// YouTubeAdapter implements [Adapter] and [Writer] for YouTube Music via the
// proxy. It does not implement [StructuredSearcher]: the YouTube Music search
// endpoint has no field-scoped query.
type YouTubeAdapter struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeAdapter creates a YouTube Music adapter talking to the proxy at
// baseURL.
func NewYouTubeAdapter(baseURL string) *YouTubeAdapter {
	if baseURL == "" {
		baseURL = defaultYTProxyURL
	}

	return &YouTubeAdapter{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
}

func (y *YouTubeAdapter) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication file path sent with subsequent
// requests. Expects credentials["auth_file"].
func (y *YouTubeAdapter) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

func (y *YouTubeAdapter) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request cancelled: %w", err)
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music API status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ExtractPlaylistID pulls the playlist id out of a YouTube URL. YouTube
// encodes it as the "list" query parameter.
func (y *YouTubeAdapter) ExtractPlaylistID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidURL, err)
	}

	id := u.Query().Get("list")
	if id == "" {
		return "", fmt.Errorf("%w: missing list parameter", shared.ErrInvalidURL)
	}

	return id, nil
}

// ListTracks reads every track of a playlist (proxy page size caps at 500)
// and the playlist's display title. Titles are normalized on the way out.
func (y *YouTubeAdapter) ListTracks(ctx context.Context, playlistID string) ([]TrackRef, string, error) {
	var playlist struct {
		ID     string         `json:"id"`
		Title  string         `json:"title"`
		Tracks []YouTubeTrack `json:"tracks"`
	}

	endpoint := fmt.Sprintf("/api/playlists/%s?limit=500", playlistID)
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrPlaylistUnavailable, err)
	}

	tracks := make([]TrackRef, 0, len(playlist.Tracks))
	for _, t := range playlist.Tracks {
		ref := TrackRef{Title: normalize.Title(t.Title)}
		if len(t.Artists) > 0 {
			ref.Artist = t.Artists[0].Name
		}
		tracks = append(tracks, ref)
	}

	title := playlist.Title
	if title == "" {
		title = "Imported Playlist"
	}

	return tracks, title, nil
}

// Search queries the proxy's song search and returns candidates in relevance
// order, capped at limit.
func (y *YouTubeAdapter) Search(ctx context.Context, title, artist string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 5
	}

	query := title
	if artist != "" {
		query = title + " " + artist
	}
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs", url.QueryEscape(query))

	var results []YouTubeTrack
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSearchUnavailable, err)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		c := Candidate{Title: r.Title, PlatformID: r.VideoID}
		if len(r.Artists) > 0 {
			c.Artist = r.Artists[0].Name
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// CurrentUserID returns the proxy's session owner marker. The proxy operates
// on whichever account the uploaded auth headers belong to.
func (y *YouTubeAdapter) CurrentUserID(ctx context.Context) (string, error) {
	return "me", nil
}

// CreatePlaylist creates a private playlist through the proxy and returns
// its id and shareable URL.
func (y *YouTubeAdapter) CreatePlaylist(ctx context.Context, ownerID, name string) (*PlaylistRef, error) {
	body := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         name,
		Description:   "Transferred with playtl",
		PrivacyStatus: "PRIVATE",
	}

	var created struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", body, &created); err != nil {
		return nil, err
	}
	if created.PlaylistID == "" {
		return nil, fmt.Errorf("%w: proxy returned no playlist id", shared.ErrAPIRequest)
	}

	return &PlaylistRef{
		ID:  created.PlaylistID,
		URL: fmt.Sprintf("https://music.youtube.com/playlist?list=%s", created.PlaylistID),
	}, nil
}

// AppendTracks adds video ids to the playlist in order. A no-op when
// trackIDs is empty.
func (y *YouTubeAdapter) AppendTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	body := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: trackIDs}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", playlistID)
	return y.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}
