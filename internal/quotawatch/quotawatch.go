// Package quotawatch periodically checks a scheduler's storage quotas and
// logs an error when any partition crosses a configured threshold,
// grounded on the original check_storage polling task.
package quotawatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/workload"
)

// Config tunes the watcher's cadence and alert threshold.
type Config struct {
	Interval  time.Duration
	Threshold float64
}

// DefaultConfig checks every 6 hours at an 85% threshold.
func DefaultConfig() Config {
	return Config{Interval: 6 * time.Hour, Threshold: 85}
}

// Watcher polls an Adapter's storage stats on a fixed interval.
type Watcher struct {
	adapter workload.Adapter
	cfg     Config
	logger  zerolog.Logger
}

// New builds a Watcher.
func New(adapter workload.Adapter, cfg Config, logger zerolog.Logger) *Watcher {
	return &Watcher{adapter: adapter, cfg: cfg, logger: logger}
}

// CheckOnce fetches storage stats and logs an error for every partition at
// or above the configured threshold. It returns the stats so callers (e.g.
// a CLI command) can report them directly.
func (w *Watcher) CheckOnce(ctx context.Context) (workload.StorageStats, error) {
	stats, err := w.adapter.GetStorageStats(ctx)
	if err != nil {
		return nil, err
	}
	for partition, quota := range stats {
		if quota.PercentUsed >= w.cfg.Threshold {
			w.logger.Error().
				Str("partition", partition).
				Float64("percent_used", quota.PercentUsed).
				Int64("used_bytes", quota.UsedBytes).
				Int64("total_bytes", quota.TotalBytes).
				Msg("storage quota above threshold")
		}
	}
	return stats, nil
}

// Loop blocks, calling CheckOnce on cfg.Interval until ctx is canceled.
// Errors from CheckOnce are logged, not propagated, so a transient
// connection fault doesn't kill the whole watch loop.
func (w *Watcher) Loop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	if _, err := w.CheckOnce(ctx); err != nil {
		w.logger.Error().Err(err).Msg("storage quota check failed")
	}
}
