// package services defines the platform adapter contracts for music
// streaming catalogs and implements them for Spotify and YouTube Music.
package services

import (
	"context"
	"fmt"
	"strings"
)

// TrackRef is the normalized identity of a track as extracted from a source
// playlist. Immutable once produced; ordering of a TrackRef slice preserves
// the source playlist order.
type TrackRef struct {
	Title  string
	Artist string
}

// Query renders the free-text search query for this track.
func (t TrackRef) Query() string {
	return strings.TrimSpace(t.Title + " " + t.Artist)
}

// String renders the track for user-facing reports, e.g. missing-track lists.
func (t TrackRef) String() string {
	return fmt.Sprintf("%s - %s", t.Title, t.Artist)
}

// Candidate is one search result returned by an adapter. It lives only for
// the duration of one resolution attempt and is never persisted.
type Candidate struct {
	Title      string
	Artist     string
	PlatformID string
}

// Display renders the candidate the way disambiguation tiers compare it
// against a [TrackRef.Query].
func (c Candidate) Display() string {
	return strings.TrimSpace(c.Title + " " + c.Artist)
}

// PlaylistRef identifies a playlist created on a destination platform.
type PlaylistRef struct {
	ID  string
	URL string
}

// Adapter wraps a single platform's catalog/playlist API behind a uniform
// read contract.
type Adapter interface {
	// Name returns the platform's display name (e.g. "Spotify").
	Name() string

	// ExtractPlaylistID pulls the platform-specific playlist identifier out
	// of a URL. Fails with [shared.ErrInvalidURL] when the URL does not carry
	// one.
	ExtractPlaylistID(rawURL string) (string, error)

	// ListTracks reads every track of a playlist up to a bounded page size
	// and returns normalized TrackRefs in playlist order, plus the playlist's
	// display title.
	ListTracks(ctx context.Context, playlistID string) ([]TrackRef, string, error)

	// Search queries the platform catalog with free text. Result ordering is
	// platform-relevance order, capped at limit. An empty artist searches by
	// title alone.
	Search(ctx context.Context, title, artist string, limit int) ([]Candidate, error)
}

// Writer extends Adapter with the destination-side write operations.
//
// CreatePlaylist is not idempotent: calling it twice with the same name
// creates two distinct playlists, so orchestration must call it at most once
// per transfer.
type Writer interface {
	Adapter

	// CurrentUserID returns the identifier that owns created playlists.
	CurrentUserID(ctx context.Context) (string, error)

	// CreatePlaylist creates an empty playlist named name under ownerID.
	CreatePlaylist(ctx context.Context, ownerID, name string) (*PlaylistRef, error)

	// AppendTracks appends trackIDs to the playlist in order. Must be a
	// no-op when trackIDs is empty; callers skip the call entirely.
	AppendTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// StructuredSearcher is an optional adapter capability: a field-scoped
// (title field + artist field) catalog query that returns the top hit's
// platform id directly, bypassing candidate disambiguation. Adapters whose
// catalog has no field query simply don't implement it.
type StructuredSearcher interface {
	SearchStructured(ctx context.Context, title, artist string) (string, error)
}
