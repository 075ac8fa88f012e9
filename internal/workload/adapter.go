// Package workload translates the generic submit/rerun/delete/query
// operations the reconciliation engine needs into a specific scheduler's
// CLI vocabulary, reached through a channel.Channel. PBS is the primary,
// fully-implemented adapter; SLURM is a stub enriched with a broader
// read-only command vocabulary than the source ever implemented.
package workload

import (
	"context"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// StorageQuota is one partition's usage tuple, as reported by the login
// banner.
type StorageQuota struct {
	Partition   string
	UsedBytes   int64
	TotalBytes  int64
	PercentUsed float64
	UsedFiles   int64
	TotalFiles  int64
}

// StorageStats is the full set of quota tuples an adapter could extract
// from the channel's login banner. It is always safe to range over: a
// parse failure yields an empty, non-nil map rather than an error.
type StorageStats map[string]StorageQuota

// Adapter is the contract every workload manager implementation satisfies.
type Adapter interface {
	// Name identifies the adapter for logging ("pbs", "slurm").
	Name() string

	// ListJobsCmd is the capability-probe command: an adapter is valid for
	// its channel iff this command exits 0.
	ListJobsCmd() string

	GetJobs(ctx context.Context) (*jobmodel.Queue, error)
	QueryJobs(ctx context.Context, ids []string) (*jobmodel.Queue, error)
	SubmitJob(ctx context.Context, spec jobmodel.JobSpec) error
	DeleteJob(ctx context.Context, idOrSchedulerID string) error
	RerunJob(ctx context.Context, job jobmodel.Job) error
	ResubmitJob(ctx context.Context, job jobmodel.Job) error
	ElevateJob(ctx context.Context, job jobmodel.Job, queue, project string) error
	WasKilled(ctx context.Context, job jobmodel.Job) (bool, error)
	GetStorageStats(ctx context.Context) (StorageStats, error)
}
