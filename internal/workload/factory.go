package workload

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/channel"
)

// ErrNoWorkloadManager is returned when no adapter's capability probe
// succeeds on a channel.
var ErrNoWorkloadManager = errors.New("no workload manager found on channel")

// candidates lists adapter constructors in probe order: PBS first, SLURM
// second, matching the source's [PBS, SLURM] iteration.
func candidates(ch channel.Channel, logger zerolog.Logger) []Adapter {
	return []Adapter{
		NewPBS(ch, logger),
		NewSLURM(ch, logger),
	}
}

// Detect probes ch with each candidate adapter's ListJobsCmd, in order, and
// returns the first one whose probe exits 0. Exit 127 (command not found)
// skips to the next candidate; any other non-zero exit is a channel fault
// and aborts detection immediately, since it does not indicate "not this
// scheduler" but "something is wrong talking to the channel". A probe that
// fails to execute at all (err != nil, e.g. a desynced shell) is attempted
// up to maxProbeRetries times in all; if every attempt fails, Detect returns
// that fault without probing the remaining candidates.
func Detect(ctx context.Context, ch channel.Channel, logger zerolog.Logger) (Adapter, error) {
	for _, adapter := range candidates(ch, logger) {
		res, err := probeWithRetry(ctx, ch, adapter, logger)
		if err != nil {
			return nil, err
		}
		switch res.Exit {
		case 0:
			return adapter, nil
		case 127:
			continue
		default:
			return nil, fmt.Errorf("probe %s: %s exited %d: %s", adapter.Name(), adapter.ListJobsCmd(), res.Exit, res.Stderr)
		}
	}
	return nil, ErrNoWorkloadManager
}

// probeWithRetry runs adapter's probe command, retrying on a channel-level
// fault (err != nil) for at most maxProbeRetries attempts in all.
func probeWithRetry(ctx context.Context, ch channel.Channel, adapter Adapter, logger zerolog.Logger) (channel.Result, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts(maxProbeRetries); attempt++ {
		res, err := ch.Execute(ctx, adapter.ListJobsCmd())
		if err == nil {
			return res, nil
		}
		lastErr = err
		logger.Warn().Err(err).Str("adapter", adapter.Name()).Int("attempt", attempt+1).Msg("capability probe failed, retrying")
	}
	return channel.Result{}, fmt.Errorf("probe %s: %w", adapter.Name(), lastErr)
}
