package main

import (
	"context"
	"errors"
	"os"

	"github.com/playthelist/playtl/internal/match"
	"github.com/playthelist/playtl/internal/ratelimit"
	"github.com/playthelist/playtl/internal/services"
	"github.com/playthelist/playtl/internal/shared"
	"github.com/playthelist/playtl/internal/transfer"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var spotify *services.SpotifyAdapter
	if svc, err := services.NewSpotifyAdapter(config.Credentials.Spotify); err == nil {
		spotify = svc
		if token, err := loadSpotifyToken(); err == nil {
			spotify.SetToken(context.Background(), token)
		}
	} else {
		logger.Debug("spotify adapter not configured", "err", err)
	}

	youtube := services.NewYouTubeAdapter(config.Credentials.YouTube.ProxyURL)
	if config.Credentials.YouTube.AuthFile != "" {
		_ = youtube.Authenticate(context.Background(), map[string]string{
			"auth_file": config.Credentials.YouTube.AuthFile,
		})
	}

	var oracle match.Oracle
	if config.Credentials.OpenAI.APIKey != "" {
		oracle = match.NewOpenAIOracle(config.Credentials.OpenAI, logger)
	}
	resolver := match.NewResolver(oracle, logger)

	governor := ratelimit.NewGovernor(config.Redis.URL, ratelimit.Config{
		MaxRequests: config.RateLimit.MaxRequests,
		Window:      config.RateLimit.Window(),
	}, logger)
	defer governor.Close()

	engineOpts := transfer.EngineOpts{
		YouTube:  youtube,
		Resolver: resolver,
		Logger:   logger,
	}
	if spotify != nil {
		engineOpts.Spotify = spotify
	}
	engine := transfer.NewEngine(engineOpts)

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Spotify:  spotify,
		YouTube:  youtube,
		Engine:   engine,
		Governor: governor,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "playtl",
		Usage:    "Transfer playlists between Spotify & YouTube Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
