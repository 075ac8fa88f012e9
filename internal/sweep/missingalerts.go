package sweep

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/workload"
)

const missingAlertComment = "job not found in scheduler queue, even though it is marked as queued"

// SetMissingAlerts is the out-of-band local scan described in §4.5: every
// tracked job believed queued is checked against the live queue, and any
// absent from it is flagged alert with a diagnostic comment. It is meant to
// run on the cluster head node via the remote update helper, without a
// client SSH connection in the loop.
func SetMissingAlerts(ctx context.Context, tracked TrackedQueue, adapter workload.Adapter, logger zerolog.Logger) error {
	live, err := adapter.GetJobs(ctx)
	if err != nil {
		return fmt.Errorf("set missing alerts: %w", err)
	}

	for _, spec := range tracked.Specs() {
		if spec.State != jobmodel.StateQueued {
			continue
		}
		if live.Contains(spec) {
			continue
		}
		spec.State = jobmodel.StateAlert
		spec.Comment = missingAlertComment
		if err := tracked.Register(ctx, spec, jobmodel.OnConflictUpdate); err != nil {
			logger.Warn().Err(err).Str("job_id", spec.ID).Msg("failed to flag job as alert")
			continue
		}
		logger.Warn().Str("job_id", spec.ID).Msg(missingAlertComment)
	}
	return nil
}
