// package metrics registers the Prometheus collectors the HTTP layer exposes
// at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts transfer requests by terminal status
	// ("completed", "failed", "rejected").
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playtl_transfers_total",
		Help: "Transfer requests by terminal status.",
	}, []string{"status"})

	// TracksResolved counts source tracks matched on the destination.
	TracksResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playtl_tracks_resolved_total",
		Help: "Source tracks matched on the destination platform.",
	})

	// TracksMissing counts source tracks with no acceptable match.
	TracksMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playtl_tracks_missing_total",
		Help: "Source tracks with no acceptable destination match.",
	})

	// RateLimitDenials counts requests refused by the rate governor.
	RateLimitDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playtl_rate_limit_denials_total",
		Help: "Requests refused by the per-user rate limit.",
	})

	// TransferDuration observes end-to-end transfer latency in seconds.
	TransferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playtl_transfer_duration_seconds",
		Help:    "End-to-end transfer duration.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// ObserveTransfer records one completed transfer's duration and track
// outcome counts.
func ObserveTransfer(elapsed time.Duration, resolved, missing int) {
	TransferDuration.Observe(elapsed.Seconds())
	TracksResolved.Add(float64(resolved))
	TracksMissing.Add(float64(missing))
}
