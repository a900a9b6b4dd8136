package main

import (
	"context"
	"fmt"
	"time"

	"github.com/playthelist/playtl/internal/history"
	"github.com/playthelist/playtl/internal/report"
	"github.com/playthelist/playtl/internal/shared"
	"github.com/playthelist/playtl/internal/transfer"
	"github.com/urfave/cli/v3"
)

func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "transfer",
		Aliases: []string{"tx"},
		Usage:   "Transfer a playlist to another platform",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Aliases:  []string{"u"},
				Usage:    "Source playlist URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "target",
				Aliases:  []string{"t"},
				Usage:    "Destination platform (spotify or youtube)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User identity for rate limiting",
				Value: "local",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, or json",
				Value:   "text",
			},
		},
		Action: r.TransferRun,
	}
}

// TransferRun runs a full playlist transfer with progress reporting.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	req := transfer.Request{
		SourceURL: cmd.String("url"),
		Target:    transfer.Platform(cmd.String("target")),
	}
	user := cmd.String("user")

	verdict := r.governor.Admit(ctx, user)
	if !verdict.Allowed {
		return fmt.Errorf("%w: %s (retry in %s)", shared.ErrRateLimited, verdict.Reason, verdict.RetryAfter.Round(time.Second))
	}
	if verdict.FailOpen {
		r.logger.Warn("proceeding without rate enforcement")
	}

	r.logger.Info("starting transfer", "url", req.SourceURL, "target", req.Target)
	r.writePlain("Starting playlist transfer...\n\n")

	progressCh := make(chan transfer.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case transfer.PhaseResolveTracks:
				r.writePlain("   %s\n", update.Message)
			default:
				r.writePlain("→ %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Transfer(ctx, req, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.recordTransfer(req, result)

	switch cmd.String("format") {
	case "json":
		return r.writeJSON(result, true)
	case "markdown":
		return r.writePlain("%s", report.ToMarkdown(result))
	default:
		r.writePlainln("═══════════════════════════════════════")
		r.writePlain("Transfer Complete!\n")
		r.writePlain("═══════════════════════════════════════\n")
		return r.writePlain("%s", report.ToText(result))
	}
}

// recordTransfer persists the result to the local history database. Failures
// only warn; the transfer itself already succeeded.
func (r *Runner) recordTransfer(req transfer.Request, result *transfer.Result) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		r.logger.Warn("history database unavailable", "err", err)
		return
	}
	defer db.Close()

	store := history.NewStore(db)
	if err := store.Migrate(); err != nil {
		r.logger.Warn("failed to prepare history store", "err", err)
		return
	}

	source, _ := transfer.DetectPlatform(req.SourceURL)
	rec := &history.Record{
		SourceURL:      req.SourceURL,
		SourcePlatform: string(source),
		TargetPlatform: string(req.Target),
		PlaylistName:   result.PlaylistName,
		PlaylistURL:    result.PlaylistURL,
		TotalTracks:    result.Total,
		ResolvedTracks: result.Resolved,
		Missing:        result.Missing,
	}
	if err := store.Save(rec); err != nil {
		r.logger.Warn("failed to record transfer", "err", err)
	}
}
