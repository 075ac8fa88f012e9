// Package driver provides the periodic scheduling loop around one
// sweep.Engine: fixed-interval invocation, graceful shutdown, and the
// threshold-safety correction applied once at startup.
package driver

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/sweep"
)

// Config tunes the driver's cadence and the threshold-safety correction.
type Config struct {
	Interval         time.Duration
	Threshold        float64
	ExpectedWalltime time.Duration
	SafeBuffer       float64
}

// DefaultConfig matches the defaults named in the design: a 72h expected
// walltime and a 1.5x safety buffer on the sweep interval.
func DefaultConfig() Config {
	return Config{
		Interval:         time.Hour,
		Threshold:        95,
		ExpectedWalltime: 72 * time.Hour,
		SafeBuffer:       1.5,
	}
}

// CorrectThreshold lowers cfg.Threshold if the configured combination of
// threshold, expected walltime, interval and safety buffer would leave less
// slack than SafeBuffer*Interval before the scheduler's own walltime kill,
// per the formula (1 - threshold/100)*expectedWalltime >= safeBuffer*interval.
// It returns the (possibly corrected) threshold and whether a correction
// was applied.
func CorrectThreshold(cfg Config) (float64, bool) {
	required := cfg.SafeBuffer * float64(cfg.Interval)
	slack := (1 - cfg.Threshold/100) * float64(cfg.ExpectedWalltime)
	if slack >= required {
		return cfg.Threshold, false
	}
	corrected := (1 - required/float64(cfg.ExpectedWalltime)) * 100
	return corrected, true
}

// Driver runs sweep.Engine.Run on a fixed interval until its context is
// canceled, guaranteeing at most one sweep in flight at a time.
type Driver struct {
	engine *sweep.Engine
	cfg    Config
	logger zerolog.Logger
	mu     sync.Mutex
}

// New builds a Driver, applying the startup threshold-safety correction
// and logging a warning if one was needed.
func New(engine *sweep.Engine, cfg Config, logger zerolog.Logger) *Driver {
	if corrected, changed := CorrectThreshold(cfg); changed {
		logger.Warn().
			Float64("configured_threshold", cfg.Threshold).
			Float64("corrected_threshold", corrected).
			Msg("rerun threshold too close to expected walltime for the configured interval, lowering it")
		cfg.Threshold = corrected
	}
	return &Driver{engine: engine, cfg: cfg, logger: logger}
}

// RunOnce performs a single sweep, dropping (not queueing) the call if
// another sweep is already in flight.
func (d *Driver) RunOnce(ctx context.Context) {
	if !d.mu.TryLock() {
		d.logger.Warn().Msg("sweep already in flight, skipping this tick")
		return
	}
	defer d.mu.Unlock()

	if err := d.engine.Run(ctx); err != nil {
		d.logger.Error().Err(err).Msg("sweep failed, will retry next tick")
	}
}

// Loop blocks, invoking RunOnce on cfg.Interval until ctx is canceled. On
// cancellation, it lets any in-flight sweep finish before returning.
func (d *Driver) Loop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("shutdown requested, waiting for in-flight sweep to finish")
			d.mu.Lock()
			d.mu.Unlock()
			return
		case <-ticker.C:
			d.RunOnce(ctx)
		}
	}
}
