package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/playthelist/playtl/internal/health"
	"github.com/playthelist/playtl/internal/history"
	"github.com/playthelist/playtl/internal/server"
	"github.com/playthelist/playtl/internal/shared"
	"github.com/urfave/cli/v3"
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the transfer HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address (defaults to config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Bind port (defaults to config)",
			},
		},
		Action: r.ServeRun,
	}
}

// ServeRun starts the HTTP API and blocks until interrupted.
func (r *Runner) ServeRun(ctx context.Context, cmd *cli.Command) error {
	host := cmd.String("host")
	if host == "" {
		host = r.config.Server.Host
	}
	port := cmd.Int("port")
	if port == 0 {
		port = r.config.Server.Port
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	store := history.NewStore(db)
	if err := store.Migrate(); err != nil {
		return err
	}

	checker := health.NewChecker(r.config, r.governor.PingStore, r.logger)

	srv := server.New(server.Opts{
		Engine:   r.engine,
		Governor: r.governor,
		Checker:  checker,
		Store:    store,
		Logger:   r.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx, fmt.Sprintf("%s:%d", host, port))
}
