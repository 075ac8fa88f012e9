package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/workload"
)

// Config tunes one Engine's classification and rerun behavior.
type Config struct {
	// Threshold is the inclusive percent-completion at or above which a
	// live job is rerun pre-emptively, before the scheduler kills it.
	Threshold float64

	// ContinueOnRerun, when true, leaves a job's live instance running
	// after a successful rerun instead of deleting it (guards against a
	// duplicate running copy when false, the default).
	ContinueOnRerun bool
}

// Engine is the reconciliation engine: one Run call performs the full
// acquire/classify/act/persist sweep described in the design.
type Engine struct {
	adapter workload.Adapter
	tracked TrackedQueue
	mirror  *Mirror
	cache   FallbackCache
	logger  zerolog.Logger
	cfg     Config

	// known carries scheduler-observed Job detail (error path, resource
	// usage, start time) forward between sweeps for jobs that have since
	// dropped out of the live queue; the durable store only persists the
	// JobSpec subset, so this in-memory cache is what lets WasKilled
	// inspect an error file for a job that disappeared between sweeps.
	known *jobmodel.Queue
}

// NewEngine builds an Engine. cache may be nil to disable the fallback-cache
// behavior (e.g. a read-only dry-run caller).
func NewEngine(adapter workload.Adapter, tracked TrackedQueue, mirror *Mirror, cache FallbackCache, logger zerolog.Logger, cfg Config) *Engine {
	return &Engine{
		adapter: adapter,
		tracked: tracked,
		mirror:  mirror,
		cache:   cache,
		logger:  logger,
		cfg:     cfg,
		known:   jobmodel.NewQueue(),
	}
}

// Seed preloads the engine's in-memory known-jobs cache, for process resume
// or tests that need a tracked job to already carry scheduler-observed
// detail (error path, resource usage) before the first Run.
func (e *Engine) Seed(jobs ...jobmodel.Job) {
	for _, j := range jobs {
		e.known.Add(j)
	}
}

// trackedView builds the current tracked Queue from the store's JobSpecs,
// enriched with any scheduler-observed detail already known in memory, plus
// anything present in the fallback cache (step 2).
func (e *Engine) trackedView() (*jobmodel.Queue, error) {
	view := jobmodel.NewQueue()
	for _, spec := range e.tracked.Specs() {
		job := jobmodel.Job{JobSpec: spec}
		if known, ok := e.known.Get(spec.ID); ok {
			known.JobSpec = spec
			job = known
		}
		view.Add(job)
	}

	if e.cache == nil {
		return view, nil
	}
	cached, ok, err := e.cache.Load()
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to load fallback cache, proceeding without it")
		return view, nil
	}
	if ok {
		for _, spec := range cached {
			view.Add(jobmodel.Job{JobSpec: spec})
		}
	}
	return view, nil
}

// Run performs one full sweep.
func (e *Engine) Run(ctx context.Context) error {
	live, err := e.adapter.GetJobs(ctx)
	if err != nil {
		return fmt.Errorf("sweep: acquire live queue: %w", err)
	}

	tracked, err := e.trackedView()
	if err != nil {
		return fmt.Errorf("sweep: acquire tracked queue: %w", err)
	}

	toRerun, completed := e.classify(ctx, tracked, live)

	for _, j := range completed.Jobs() {
		if err := e.tracked.Pop(ctx, j.ID); err != nil {
			e.logger.Warn().Err(err).Str("job_id", j.ID).Msg("failed to untrack completed job")
			continue
		}
		tracked.Pop(j)
		e.logger.Info().Str("job_id", j.ID).Msg("untracked completed job")
	}

	for _, j := range live.Jobs() {
		if err := e.tracked.Register(ctx, j.JobSpec, jobmodel.OnConflictUpdate); err != nil {
			return fmt.Errorf("sweep: merge live job %q into store: %w", j.ID, err)
		}
	}
	working := tracked.Merge(live)

	e.issueReruns(ctx, working, toRerun, live)
	e.known = working

	return e.persist(ctx)
}

// classify splits the tracked-minus-live gap into rerun candidates (killed)
// and completed (finished cleanly), and adds live jobs already over
// threshold to the rerun set.
func (e *Engine) classify(ctx context.Context, tracked, live *jobmodel.Queue) (toRerun, completed *jobmodel.Queue) {
	toRerun = jobmodel.NewQueue()
	completed = jobmodel.NewQueue()

	for _, j := range tracked.Diff(live).Jobs() {
		killed, err := e.adapter.WasKilled(ctx, j)
		if err != nil {
			e.logger.Warn().Err(err).Str("job_id", j.ID).Msg("failed to check whether job was killed, assuming not")
			killed = false
		}
		switch {
		case killed:
			toRerun.Add(j)
		case j.IsRunning() && j.HasElapsed():
			completed.Add(j)
		}
	}

	for _, j := range live.Jobs() {
		if j.PercentCompletion() >= e.cfg.Threshold {
			toRerun.Add(j)
		}
	}
	return toRerun, completed
}

// issueReruns walks working in order, reruns every job also present in
// toRerun, and applies the queue-full/missing-script/other classification.
func (e *Engine) issueReruns(ctx context.Context, working, toRerun, live *jobmodel.Queue) {
	for _, j := range working.Jobs() {
		if !toRerun.Contains(j) {
			continue
		}

		err := e.adapter.RerunJob(ctx, j)
		switch {
		case err == nil:
			if perr := e.tracked.Pop(ctx, j.ID); perr != nil {
				e.logger.Warn().Err(perr).Str("job_id", j.ID).Msg("rerun succeeded but failed to untrack")
			}
			working.Pop(j)
			if live.Contains(j) && !e.cfg.ContinueOnRerun {
				if derr := e.adapter.DeleteJob(ctx, schedulerOrID(j)); derr != nil {
					e.logger.Warn().Err(derr).Str("job_id", j.ID).Msg("failed to delete superseded running duplicate")
				}
			}
			e.logger.Info().Str("job_id", j.ID).Msg("rerun issued")

		case errors.Is(err, workload.ErrQueueFull):
			e.logger.Info().Str("job_id", j.ID).Msg("queue full, deferring remaining reruns to next sweep")
			return

		case errors.Is(err, workload.ErrMissingJobScript):
			if perr := e.tracked.Pop(ctx, j.ID); perr != nil {
				e.logger.Warn().Err(perr).Str("job_id", j.ID).Msg("failed to untrack job with missing jobscript")
			}
			working.Pop(j)
			e.logger.Warn().Str("job_id", j.ID).Msg("jobscript missing, untracked permanently")

		default:
			e.logger.Warn().Err(err).Str("job_id", j.ID).Msg("rerun failed, leaving job tracked")
		}
	}
}

// persist writes the current tracked payload to the remote durable mirror,
// falling back to the local cache on failure.
func (e *Engine) persist(ctx context.Context) error {
	payload := e.tracked.Specs()

	if err := e.mirror.Write(ctx, payload); err != nil {
		e.logger.Warn().Err(err).Msg("failed to write remote tracked mirror, writing local fallback cache")
		if e.cache == nil {
			return fmt.Errorf("sweep: mirror write failed and no fallback cache configured: %w", err)
		}
		if cerr := e.cache.Save(payload); cerr != nil {
			return fmt.Errorf("sweep: mirror write failed (%v) and fallback cache save failed: %w", err, cerr)
		}
		return nil
	}

	if e.cache != nil {
		if cerr := e.cache.Clear(); cerr != nil {
			e.logger.Warn().Err(cerr).Msg("failed to clear fallback cache after successful mirror write")
		}
	}
	return nil
}

func schedulerOrID(j jobmodel.Job) string {
	if j.SchedulerID != "" {
		return j.SchedulerID
	}
	return j.ID
}
