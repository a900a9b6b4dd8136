// Spotify Web API implementation of [Adapter] and [Writer]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/playthelist/playtl/internal/normalize"
	"github.com/playthelist/playtl/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify caps playlist page size and batched track additions at 100.
	spotifyPageLimit  = 100
	spotifyBatchLimit = 100
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

type spotifyPlaylistTracks struct {
	Total int `json:"total"`
	Items []struct {
		Track SpotifyTrack `json:"track"`
	} `json:"items"`
}

// SpotifyPlaylist represents a Spotify playlist with its first page of tracks.
type SpotifyPlaylist struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Tracks       spotifyPlaylistTracks `json:"tracks"`
	ExternalURLs map[string]string     `json:"external_urls"`
	URI          string                `json:"uri"`
}

type spotifySearchResult struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyAdapter implements [Adapter], [Writer] and [StructuredSearcher] for
// the Spotify Web API. Uses [oauth2] for authentication; the oauth2 client
// refreshes expired tokens automatically.
type SpotifyAdapter struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSpotifyAdapter creates a Spotify adapter with the given credentials.
func NewSpotifyAdapter(cfg shared.SpotifyConfig) (*SpotifyAdapter, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8090/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyAdapter{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyAdapter) Name() string {
	return "Spotify"
}

// Authenticate installs a token on the adapter. Expects either an
// "access_token" or an "auth_code" entry in credentials.
func (s *SpotifyAdapter) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.SetToken(ctx, &oauth2.Token{AccessToken: accessToken, RefreshToken: credentials["refresh_token"]})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.SetToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// SetToken installs an already-obtained OAuth2 token.
func (s *SpotifyAdapter) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyAdapter) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the underlying OAuth2 config for the login flow.
func (s *SpotifyAdapter) OAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated, rate-paced HTTP request against the
// Spotify API, JSON-encoding body when present and decoding into result.
func (s *SpotifyAdapter) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
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

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ExtractPlaylistID pulls the playlist id out of an open.spotify.com URL.
// Spotify encodes it as a path segment: /playlist/{id}.
func (s *SpotifyAdapter) ExtractPlaylistID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidURL, err)
	}

	const marker = "/playlist/"
	idx := strings.Index(u.Path, marker)
	if idx < 0 {
		return "", fmt.Errorf("%w: no playlist segment in %q", shared.ErrInvalidURL, u.Path)
	}

	id := u.Path[idx+len(marker):]
	if cut := strings.IndexByte(id, '/'); cut >= 0 {
		id = id[:cut]
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty playlist id", shared.ErrInvalidURL)
	}

	return id, nil
}

// ListTracks reads the playlist's first page of tracks (Spotify returns up
// to 100) and its display title. Titles are normalized on the way out.
func (s *SpotifyAdapter) ListTracks(ctx context.Context, playlistID string) ([]TrackRef, string, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrPlaylistUnavailable, err)
	}

	tracks := make([]TrackRef, 0, len(playlist.Tracks.Items))
	for _, item := range playlist.Tracks.Items {
		ref := TrackRef{Title: normalize.Title(item.Track.Name)}
		if len(item.Track.Artists) > 0 {
			ref.Artist = item.Track.Artists[0].Name
		}
		tracks = append(tracks, ref)
	}

	title := playlist.Name
	if title == "" {
		title = "Imported Playlist"
	}

	return tracks, title, nil
}

// Search queries the catalog with free text ("{title} {artist}") and returns
// candidates in Spotify relevance order.
func (s *SpotifyAdapter) Search(ctx context.Context, title, artist string, limit int) ([]Candidate, error) {
	query := strings.TrimSpace(title + " " + artist)
	return s.search(ctx, query, limit)
}

// SearchStructured issues a field-scoped query (track: + artist:) and
// returns the top hit's URI, or "" when the catalog has no hit.
func (s *SpotifyAdapter) SearchStructured(ctx context.Context, title, artist string) (string, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	candidates, err := s.search(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", nil
	}
	return candidates[0].PlatformID, nil
}

func (s *SpotifyAdapter) search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var result spotifySearchResult
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSearchUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(result.Tracks.Items))
	for _, track := range result.Tracks.Items {
		c := Candidate{Title: track.Name, PlatformID: track.URI}
		if len(track.Artists) > 0 {
			c.Artist = track.Artists[0].Name
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// CurrentUserID returns the authenticated user's id.
func (s *SpotifyAdapter) CurrentUserID(ctx context.Context) (string, error) {
	var user struct {
		ID string `json:"id"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// CreatePlaylist creates a public playlist under ownerID and returns its id
// and shareable URL.
func (s *SpotifyAdapter) CreatePlaylist(ctx context.Context, ownerID, name string) (*PlaylistRef, error) {
	body := struct {
		Name        string `json:"name"`
		Public      bool   `json:"public"`
		Description string `json:"description"`
	}{
		Name:        name,
		Public:      true,
		Description: "Transferred with playtl",
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(ownerID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	publicURL := created.ExternalURLs["spotify"]
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://open.spotify.com/playlist/%s", created.ID)
	}

	return &PlaylistRef{ID: created.ID, URL: publicURL}, nil
}

// AppendTracks adds track URIs to the playlist in order, in batches of 100.
// A no-op when trackIDs is empty.
func (s *SpotifyAdapter) AppendTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	for start := 0; start < len(trackIDs); start += spotifyBatchLimit {
		end := min(start+spotifyBatchLimit, len(trackIDs))
		body := struct {
			URIs []string `json:"uris"`
		}{URIs: trackIDs[start:end]}

		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}

	return nil
}
