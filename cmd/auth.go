package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/playthelist/playtl/internal/server"
	"github.com/playthelist/playtl/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage platform authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".playtl", "spotify_token.json"), nil
}

func loadSpotifyToken() (*oauth2.Token, error) {
	path, err := tokenPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func saveSpotifyToken(token *oauth2.Token) (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create auth directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	return path, nil
}

// AuthLogin performs the Spotify OAuth2 authorization code flow with a
// temporary local callback server and persists the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: spotify client ID and secret required", shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth(ctx)
	if err != nil {
		return err
	}

	r.spotify.SetToken(ctx, token)

	path, err := saveSpotifyToken(token)
	if err != nil {
		r.logger.Warn("failed to persist token", "err", err)
		return r.writePlain("✓ Authenticated with Spotify (token not persisted)\n")
	}

	r.logger.Info("spotify token saved", "path", path)
	return r.writePlain("✓ Authenticated with Spotify\nToken saved to %s\n", path)
}

// AuthStatus reports which platforms have usable credentials.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		r.writePlain("Spotify: ✗ Not configured\n")
	} else if token, err := loadSpotifyToken(); err != nil {
		r.writePlain("Spotify: ✗ Not authenticated (run `playtl auth login`)\n")
	} else if !token.Expiry.IsZero() && token.Expiry.Before(time.Now()) && token.RefreshToken == "" {
		r.writePlain("Spotify: ⚠ Token expired (run `playtl auth login`)\n")
	} else {
		r.writePlain("Spotify: ✓ Authenticated\n")
	}

	if r.config.Credentials.YouTube.AuthFile != "" {
		r.writePlain("YouTube Music: ✓ Auth file configured (%s)\n", r.config.Credentials.YouTube.AuthFile)
	} else {
		r.writePlain("YouTube Music: ✗ No auth file configured\n")
	}

	if r.config.Credentials.OpenAI.APIKey != "" {
		r.writePlain("OpenAI: ✓ API key configured\n")
	} else {
		r.writePlain("OpenAI: ✗ No API key (fuzzy matching only)\n")
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := r.spotify.GetAuthURL(state)
	callback := server.NewOAuthCallback(r.spotify.OAuthConfig(), state)

	mux := http.NewServeMux()
	mux.Handle("/callback", callback)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{Addr: serverAddr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-callback.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
