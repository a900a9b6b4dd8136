// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/playthelist/playtl/internal/services"
)

// MockWriter is a configurable test double for [services.Writer]. Every
// method records its calls; unset function fields fall back to benign
// defaults.
type MockWriter struct {
	NameValue string

	ExtractFunc  func(rawURL string) (string, error)
	ListFunc     func(ctx context.Context, playlistID string) ([]services.TrackRef, string, error)
	SearchFunc   func(ctx context.Context, title, artist string, limit int) ([]services.Candidate, error)
	UserFunc     func(ctx context.Context) (string, error)
	CreateFunc   func(ctx context.Context, ownerID, name string) (*services.PlaylistRef, error)
	AppendFunc   func(ctx context.Context, playlistID string, trackIDs []string) error
	SearchCalls  int
	CreateCalls  int
	AppendCalls  int
	AppendedIDs  []string
	CreatedNames []string
}

func (m *MockWriter) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

func (m *MockWriter) ExtractPlaylistID(rawURL string) (string, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(rawURL)
	}
	return "mock-playlist", nil
}

func (m *MockWriter) ListTracks(ctx context.Context, playlistID string) ([]services.TrackRef, string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, playlistID)
	}
	return nil, "Mock Playlist", nil
}

func (m *MockWriter) Search(ctx context.Context, title, artist string, limit int) ([]services.Candidate, error) {
	m.SearchCalls++
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, title, artist, limit)
	}
	return nil, nil
}

func (m *MockWriter) CurrentUserID(ctx context.Context) (string, error) {
	if m.UserFunc != nil {
		return m.UserFunc(ctx)
	}
	return "mock-user", nil
}

func (m *MockWriter) CreatePlaylist(ctx context.Context, ownerID, name string) (*services.PlaylistRef, error) {
	m.CreateCalls++
	m.CreatedNames = append(m.CreatedNames, name)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, name)
	}
	return &services.PlaylistRef{ID: "new-playlist", URL: "https://example.com/playlist/new-playlist"}, nil
}

func (m *MockWriter) AppendTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.AppendCalls++
	m.AppendedIDs = append(m.AppendedIDs, trackIDs...)
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

// MockCatalog is a test double for the resolver's catalog with optional
// structured search support.
type MockCatalog struct {
	SearchFunc  func(ctx context.Context, title, artist string, limit int) ([]services.Candidate, error)
	SearchCalls int
}

func (m *MockCatalog) Search(ctx context.Context, title, artist string, limit int) ([]services.Candidate, error) {
	m.SearchCalls++
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, title, artist, limit)
	}
	return nil, nil
}

// StructuredCatalog adds a structured exact-field search on top of
// MockCatalog.
type StructuredCatalog struct {
	MockCatalog
	StructuredFunc  func(ctx context.Context, title, artist string) (string, error)
	StructuredCalls int
}

func (m *StructuredCatalog) SearchStructured(ctx context.Context, title, artist string) (string, error) {
	m.StructuredCalls++
	if m.StructuredFunc != nil {
		return m.StructuredFunc(ctx, title, artist)
	}
	return "", nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
