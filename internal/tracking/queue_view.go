package tracking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// TrackingQueue wraps a Store as an in-memory Queue-shaped view, mirroring
// the source's JobTrackingQueue: mutations go to both the in-memory
// collection and the durable table.
type TrackingQueue struct {
	store  *Store
	jobs   map[string]jobmodel.JobSpec
	order  []string
	logger zerolog.Logger
}

// Pull loads a fresh TrackingQueue from the current contents of store.
func Pull(ctx context.Context, store *Store, logger zerolog.Logger) (*TrackingQueue, error) {
	specs, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("pull tracking queue: %w", err)
	}
	tq := &TrackingQueue{store: store, jobs: make(map[string]jobmodel.JobSpec, len(specs)), logger: logger}
	for _, s := range specs {
		tq.jobs[s.ID] = s
		tq.order = append(tq.order, s.ID)
	}
	return tq, nil
}

// Len returns the number of tracked rows.
func (tq *TrackingQueue) Len() int { return len(tq.order) }

// Specs returns the tracked rows in load/registration order.
func (tq *TrackingQueue) Specs() []jobmodel.JobSpec {
	out := make([]jobmodel.JobSpec, 0, len(tq.order))
	for _, id := range tq.order {
		out = append(out, tq.jobs[id])
	}
	return out
}

// Get returns the in-memory copy of the row for id.
func (tq *TrackingQueue) Get(id string) (jobmodel.JobSpec, bool) {
	s, ok := tq.jobs[id]
	return s, ok
}

// Register appends job in memory (if new) and upserts it to disk, honoring
// onConflict. A mismatch between the in-memory and on-disk state under
// onConflict=update is logged as a warning rather than treated as fatal.
func (tq *TrackingQueue) Register(ctx context.Context, job jobmodel.JobSpec, onConflict jobmodel.OnConflict) error {
	if existing, ok := tq.jobs[job.ID]; ok && onConflict == jobmodel.OnConflictUpdate && existing.State != job.State {
		tq.logger.Warn().
			Str("job_id", job.ID).
			Str("in_memory_state", string(existing.State)).
			Str("incoming_state", string(job.State)).
			Msg("registering job state differs from in-memory tracking queue, overwriting")
	}

	if err := tq.store.Upsert(ctx, []jobmodel.JobSpec{job}, onConflict); err != nil {
		return fmt.Errorf("register job %q: %w", job.ID, err)
	}

	if _, ok := tq.jobs[job.ID]; !ok {
		tq.order = append(tq.order, job.ID)
	}
	if onConflict != jobmodel.OnConflictSkip {
		tq.jobs[job.ID] = job
	} else if _, ok := tq.jobs[job.ID]; !ok {
		tq.jobs[job.ID] = job
	}
	return nil
}

// Pop removes jobID from memory and from the durable store.
func (tq *TrackingQueue) Pop(ctx context.Context, jobID string) error {
	if err := tq.store.Pop(ctx, jobID); err != nil {
		return err
	}
	delete(tq.jobs, jobID)
	for i, id := range tq.order {
		if id == jobID {
			tq.order = append(tq.order[:i], tq.order[i+1:]...)
			break
		}
	}
	return nil
}
