// Package sweep implements the reconciliation engine: the periodic
// diff-and-act pass that keeps the local tracking store consistent with a
// scheduler's live queue, reruns jobs nearing their walltime limit or killed
// out from under them, and retires jobs that have plainly finished.
package sweep

import (
	"context"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// TrackedQueue is the narrow slice of tracking.TrackingQueue the engine
// needs, accepted as an interface so tests can substitute an in-memory
// fake instead of a real SQLite-backed store.
type TrackedQueue interface {
	Specs() []jobmodel.JobSpec
	Get(id string) (jobmodel.JobSpec, bool)
	Register(ctx context.Context, job jobmodel.JobSpec, onConflict jobmodel.OnConflict) error
	Pop(ctx context.Context, jobID string) error
}
