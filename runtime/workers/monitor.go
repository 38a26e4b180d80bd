package workers

import (
	"context"
	"log/slog"
	"time"

	"lexchat/observability"
)

// MonitorWorker periodically refreshes the stats collector and logs the
// snapshot, so resource drift shows up in the logs even when nobody polls
// the stats endpoint.
type MonitorWorker struct {
	log      *slog.Logger
	stats    *observability.Collector
	interval time.Duration
}

func NewMonitorWorker(log *slog.Logger, stats *observability.Collector, interval time.Duration) *MonitorWorker {
	return &MonitorWorker{log: log, stats: stats, interval: interval}
}

func (w *MonitorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats, err := w.stats.Refresh()
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("realtime stats",
				"sessions", stats.SessionsOnline,
				"connections_opened", stats.ConnectionsOpened,
				"events_received", stats.EventsReceived,
				"goroutines", stats.Goroutines,
				"ram_mb", stats.RSSMb,
				"cpu_percent", stats.CPUPercent)
		}
	}
}
