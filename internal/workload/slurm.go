package workload

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/channel"
	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// SLURM is a stub adapter: GetJobs/QueryJobs are implemented against
// squeue, and SubmitJob/DeleteJob against sbatch/scancel (enriching the bare
// sinfo-only capability probe the source shipped). RerunJob, ResubmitJob,
// ElevateJob and WasKilled return ErrNotImplemented, matching the source's
// NotImplementedError for the rerun path and its comment pointing at
// `sbatch --dependency=afternotok:<id>` as the eventual strategy, and
// GetStorageStats always returns an empty StorageStats.
type SLURM struct {
	ch     channel.Channel
	logger zerolog.Logger
}

// NewSLURM builds a SLURM adapter over ch.
func NewSLURM(ch channel.Channel, logger zerolog.Logger) *SLURM {
	return &SLURM{ch: ch, logger: logger}
}

func (s *SLURM) Name() string        { return "slurm" }
func (s *SLURM) ListJobsCmd() string { return "sinfo" }

var squeueFields = []string{"%i", "%j", "%T", "%P", "%a", "%S", "%M", "%l"}

// GetJobs queries squeue for every job it reports (no user filter is
// passed) in a pipe-delimited format, parsed the way the virtengine SLURM
// client parses squeue's "|"-joined output.
func (s *SLURM) GetJobs(ctx context.Context) (*jobmodel.Queue, error) {
	cmd := fmt.Sprintf(`squeue --noheader --format="%s"`, strings.Join(squeueFields, "|"))
	res, err := s.ch.Execute(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("slurm get jobs: %w", err)
	}
	if res.Exit != 0 {
		return nil, fmt.Errorf("slurm get jobs: squeue exited %d: %s", res.Exit, res.Stderr)
	}
	return parseSqueueOutput(res.Stdout)
}

// QueryJobs narrows squeue to specific job ids.
func (s *SLURM) QueryJobs(ctx context.Context, ids []string) (*jobmodel.Queue, error) {
	if len(ids) == 0 {
		return jobmodel.NewQueue(), nil
	}
	cmd := fmt.Sprintf(`squeue --noheader --format="%s" --jobs=%s`, strings.Join(squeueFields, "|"), strings.Join(ids, ","))
	res, err := s.ch.Execute(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("slurm query jobs: %w", err)
	}
	if res.Exit != 0 {
		return nil, fmt.Errorf("slurm query jobs: squeue exited %d: %s", res.Exit, res.Stderr)
	}
	return parseSqueueOutput(res.Stdout)
}

func parseSqueueOutput(stdout string) (*jobmodel.Queue, error) {
	q := jobmodel.NewQueue()
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 8 {
			continue
		}
		walltime, _ := jobmodel.ParseWalltime(normalizeSlurmElapsed(fields[6]))
		limit, _ := jobmodel.ParseWalltime(normalizeSlurmElapsed(fields[7]))
		job := jobmodel.Job{
			JobSpec: jobmodel.JobSpec{
				ID:      fields[0],
				Name:    fields[1],
				Queue:   fields[3],
				State:   mapSlurmState(fields[2]),
				Cluster: jobmodel.ClusterUnknown,
			},
			SchedulerID: fields[0],
			Owner:       fields[4],
			ResourceUsage: &jobmodel.ResourceUsage{
				Walltime: walltime,
			},
			ResourceRequest: jobmodel.ResourceRequest{
				Walltime: limit,
			},
		}
		q.Add(job)
	}
	return q, nil
}

// normalizeSlurmElapsed pads SLURM's "[D-]HH:MM:SS" elapsed/limit format
// into the bare "HH:MM:SS" ParseWalltime expects, dropping a day component
// if present by folding it into hours.
func normalizeSlurmElapsed(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "-"); idx >= 0 {
		days := s[:idx]
		rest := s[idx+1:]
		parts := strings.Split(rest, ":")
		if len(parts) == 3 {
			if d, err := parseIntSafe(days); err == nil {
				if h, err := parseIntSafe(parts[0]); err == nil {
					return fmt.Sprintf("%d:%s:%s", d*24+h, parts[1], parts[2])
				}
			}
		}
		return rest
	}
	parts := strings.Split(s, ":")
	if len(parts) == 2 {
		return "00:" + s
	}
	return s
}

func parseIntSafe(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func mapSlurmState(code string) jobmodel.State {
	switch strings.ToUpper(code) {
	case "PENDING":
		return jobmodel.StateQueued
	case "RUNNING":
		return jobmodel.StateRunning
	case "SUSPENDED":
		return jobmodel.StateSuspended
	case "COMPLETED":
		return jobmodel.StateCompleted
	case "FAILED", "TIMEOUT", "NODE_FAIL", "OUT_OF_MEMORY":
		return jobmodel.StateFailed
	case "CANCELLED":
		return jobmodel.StateFailed
	default:
		return jobmodel.StateUnknown
	}
}

// SubmitJob runs sbatch --requeue, the source's submit_cmd for SLURM.
func (s *SLURM) SubmitJob(ctx context.Context, spec jobmodel.JobSpec) error {
	cmd := fmt.Sprintf("sbatch --requeue --parsable %s", spec.JobscriptPath)
	res, err := s.ch.Execute(ctx, cmd)
	if err != nil {
		return fmt.Errorf("slurm submit job %q: %w", spec.ID, err)
	}
	if res.Exit != 0 {
		return NewJobSubmissionError("sbatch", res.Exit, res.Stderr)
	}
	return nil
}

// DeleteJob runs scancel.
func (s *SLURM) DeleteJob(ctx context.Context, idOrSchedulerID string) error {
	res, err := s.ch.Execute(ctx, fmt.Sprintf("scancel %s", idOrSchedulerID))
	if err != nil {
		return fmt.Errorf("slurm delete job %q: %w", idOrSchedulerID, err)
	}
	if res.Exit != 0 {
		return &JobDeletionError{Op: "scancel", ExitCode: res.Exit, Stderr: res.Stderr}
	}
	return nil
}

// RerunJob is unimplemented, matching the source: the documented strategy
// is `sbatch --dependency=afternotok:<jobid>` against the original
// jobscript, which has not been wired up pending a SLURM test cluster.
func (s *SLURM) RerunJob(ctx context.Context, job jobmodel.Job) error {
	return fmt.Errorf("slurm rerun job %q: %w", job.ID, ErrNotImplemented)
}

// ResubmitJob is unimplemented for the same reason as RerunJob.
func (s *SLURM) ResubmitJob(ctx context.Context, job jobmodel.Job) error {
	return fmt.Errorf("slurm resubmit job %q: %w", job.ID, ErrNotImplemented)
}

// ElevateJob is unimplemented: SLURM has no direct queue/project swap
// primitive equivalent to PBS's qsub -q/-P pair without resubmission
// semantics this stub hasn't worked out yet.
func (s *SLURM) ElevateJob(ctx context.Context, job jobmodel.Job, queue, project string) error {
	return fmt.Errorf("slurm elevate job %q: %w", job.ID, ErrNotImplemented)
}

// WasKilled is unimplemented: SLURM surfaces kill reasons through sacct's
// State/ExitCode columns rather than an error-file tail, which this stub
// has not been pointed at yet.
func (s *SLURM) WasKilled(ctx context.Context, job jobmodel.Job) (bool, error) {
	return false, fmt.Errorf("slurm was killed %q: %w", job.ID, ErrNotImplemented)
}

// GetStorageStats has no SLURM equivalent wired up: quota reporting is
// cluster-specific and the source never implemented it for SLURM either.
func (s *SLURM) GetStorageStats(ctx context.Context) (StorageStats, error) {
	return StorageStats{}, nil
}
