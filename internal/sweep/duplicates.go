package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/wbeardall/schedtools-go/internal/workload"
)

// DeleteDuplicates implements §4.6: among the live queue, jobs sharing a
// jobscript_path are duplicates (names are not unique, so that field is
// the identity key here). The first encountered per path is kept; the rest
// are deleted. A per-job JobDeletionError is logged and swallowed so one
// bad delete does not abort the rest of the batch.
func (e *Engine) DeleteDuplicates(ctx context.Context) error {
	live, err := e.adapter.GetJobs(ctx)
	if err != nil {
		return fmt.Errorf("delete duplicates: %w", err)
	}

	seen := make(map[string]bool)
	for _, j := range live.Jobs() {
		if j.JobscriptPath == "" {
			continue
		}
		if !seen[j.JobscriptPath] {
			seen[j.JobscriptPath] = true
			continue
		}
		if err := e.adapter.DeleteJob(ctx, schedulerOrID(j)); err != nil {
			var delErr *workload.JobDeletionError
			if errors.As(err, &delErr) {
				e.logger.Warn().Err(err).Str("job_id", j.ID).Msg("failed to delete duplicate job, continuing")
				continue
			}
			return fmt.Errorf("delete duplicates: job %q: %w", j.ID, err)
		}
		e.logger.Info().Str("job_id", j.ID).Str("jobscript_path", j.JobscriptPath).Msg("deleted duplicate job")
	}
	return nil
}
