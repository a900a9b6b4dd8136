// package transfer orchestrates one-shot, one-directional playlist transfers
// between music platforms.
//
// The core abstraction is Engine, which detects the source platform from a
// URL, pulls the track list, resolves each track against the destination
// catalog, and assembles the result. Progress is emitted over channels for
// non-blocking status reporting to CLI/HTTP layers.
package transfer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/playthelist/playtl/internal/match"
	"github.com/playthelist/playtl/internal/services"
	"github.com/playthelist/playtl/internal/shared"
)

// Platform identifies one of the supported streaming platforms.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformYouTube Platform = "youtube"
)

// Request is the unit of work submitted by a caller. Validated once, never
// mutated.
type Request struct {
	SourceURL string   `json:"url"`
	Target    Platform `json:"target"`
}

// Result is the sole externally visible outcome of a successful transfer.
// Missing contains one "title - artist" string per unresolved track, in
// source playlist order.
type Result struct {
	PlaylistURL  string   `json:"playlist_url"`
	PlaylistName string   `json:"playlist_name"`
	Missing      []string `json:"missing"`
	Total        int      `json:"total_tracks"`
	Resolved     int      `json:"resolved_tracks"`
}

// Resolver picks the best destination catalog match for one track.
type Resolver interface {
	Resolve(ctx context.Context, catalog match.Catalog, ref services.TrackRef) match.Decision
}

// Engine orchestrates playlist transfers. Adapters and the resolver are
// constructed once and shared across concurrent transfers; the engine itself
// holds no per-transfer state.
type Engine struct {
	spotify  services.Writer
	youtube  services.Writer
	resolver Resolver
	logger   *log.Logger
}

// EngineOpts contains dependencies for creating an Engine.
type EngineOpts struct {
	Spotify  services.Writer
	YouTube  services.Writer
	Resolver Resolver
	Logger   *log.Logger
}

// NewEngine creates an Engine with the provided adapters and resolver.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Engine{
		spotify:  opts.Spotify,
		youtube:  opts.YouTube,
		resolver: opts.Resolver,
		logger:   opts.Logger,
	}
}

// DetectPlatform identifies the source platform by substring inspection of
// the URL's host. The URL must use an http/https scheme; anything else is
// rejected before any network call.
func DetectPlatform(rawURL string) (Platform, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", shared.ErrInvalidURL, u.Scheme)
	}

	host := u.Hostname()
	switch {
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return PlatformYouTube, nil
	case strings.Contains(host, "spotify.com"):
		return PlatformSpotify, nil
	default:
		return "", fmt.Errorf("%w: unsupported playlist URL %q", shared.ErrInvalidURL, rawURL)
	}
}

func (e *Engine) adapter(p Platform) services.Writer {
	switch p {
	case PlatformSpotify:
		return e.spotify
	case PlatformYouTube:
		return e.youtube
	default:
		return nil
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls a transfer.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Transfer moves the playlist at req.SourceURL to req.Target.
//
// Setup failures (URL detection, source read, destination playlist creation)
// abort the transfer with no partial result. Per-track resolution failures
// never abort: the track is reported in Result.Missing instead. The
// destination playlist is created before any track is resolved, so matched
// identifiers are never discarded for want of a playlist; a transfer with
// some missing tracks is still a success.
func (e *Engine) Transfer(ctx context.Context, req Request, progress chan<- ProgressUpdate) (*Result, error) {
	source, err := DetectPlatform(req.SourceURL)
	if err != nil {
		return nil, err
	}

	dest := e.adapter(req.Target)
	if dest == nil {
		return nil, fmt.Errorf("%w: unknown target platform %q", shared.ErrInvalidArgument, req.Target)
	}
	src := e.adapter(source)
	if src == nil {
		return nil, fmt.Errorf("%w: %s adapter not configured", shared.ErrServiceUnavailable, source)
	}

	e.logger.Info("starting transfer", "source", source, "target", req.Target)
	e.sendProgress(progress, detectedUpdate(source, req.Target))

	playlistID, err := src.ExtractPlaylistID(req.SourceURL)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchSourceUpdate(src.Name()))
	tracks, title, err := src.ListTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, foundPlaylistUpdate(title, len(tracks)))

	e.sendProgress(progress, createPlaylistUpdate(title, dest.Name()))
	ownerID, err := dest.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistCreate, err)
	}
	created, err := dest.CreatePlaylist(ctx, ownerID, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistCreate, err)
	}

	// Tracks are resolved and appended in strict source order; interleaved
	// unresolved entries are skipped, not reordered.
	var trackIDs []string
	var missing []string
	for i, ref := range tracks {
		decision := e.resolver.Resolve(ctx, dest, ref)
		if decision.Resolved {
			trackIDs = append(trackIDs, decision.PlatformID)
		} else {
			missing = append(missing, ref.String())
			e.logger.Warn("could not resolve track", "track", ref.String())
		}
		e.sendProgress(progress, resolveTrackUpdate(i+1, len(tracks), ref, decision.Resolved))
	}

	if len(trackIDs) > 0 {
		e.sendProgress(progress, appendTracksUpdate(len(trackIDs)))
		if err := dest.AppendTracks(ctx, created.ID, trackIDs); err != nil {
			return nil, fmt.Errorf("%w: %d tracks were matched: %v", shared.ErrAppendFailed, len(trackIDs), err)
		}
	}

	e.logger.Info("transfer complete",
		"playlist", created.URL,
		"resolved", len(trackIDs),
		"missing", len(missing),
	)

	return &Result{
		PlaylistURL:  created.URL,
		PlaylistName: title,
		Missing:      missing,
		Total:        len(tracks),
		Resolved:     len(trackIDs),
	}, nil
}
