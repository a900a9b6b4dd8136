package main

import (
	"context"

	"github.com/playthelist/playtl/internal/health"
	"github.com/urfave/cli/v3"
)

func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check connectivity to Spotify, YouTube Music, OpenAI, and Redis",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.HealthRun,
	}
}

// HealthRun probes every upstream and prints the aggregate report.
func (r *Runner) HealthRun(ctx context.Context, cmd *cli.Command) error {
	checker := health.NewChecker(r.config, r.governor.PingStore, r.logger)
	report := checker.Run(ctx)

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlain("Overall: %s\n\n", report.Status)
	for name, check := range report.Checks {
		marker := "✓"
		if check.Status != health.StatusHealthy {
			marker = "✗"
		}
		r.writePlain("%s %s: %s (%s)\n", marker, name, check.Status, check.Message)
	}
	return nil
}
