package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/observability"
	"github.com/goldenticket/goldenticket/internal/presence"
)

// StatsReporter periodically logs gateway throughput: live connection
// count, handled commands, dispatched events and delivery failures.
type StatsReporter struct {
	registry *presence.Registry
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
}

// NewStatsReporter constructs the reporter.
func NewStatsReporter(registry *presence.Registry, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) *StatsReporter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsReporter{registry: registry, metrics: metrics, logger: logger, interval: interval}
}

// Run blocks until the context is cancelled, emitting one stats line
// per interval. Intended to run in its own goroutine.
func (r *StatsReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			commands, events, failures := r.metrics.Totals()
			r.logger.Info("gateway stats",
				zap.Int("connections", len(r.registry.AllConnections())),
				zap.Int64("commands", commands),
				zap.Int64("events", events),
				zap.Int64("dispatch_failures", failures))
		}
	}
}
