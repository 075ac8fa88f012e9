package jobmodel

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobSpec is a job the caller wants tracked, whether or not the scheduler
// currently knows about it. It is the unit persisted by the tracking store.
type JobSpec struct {
	ID             string
	Name           string
	ExperimentPath string
	JobscriptPath  string
	Cluster        Cluster
	Queue          string
	Project        string
	State          State
	ModifiedTime   time.Time
	Comment        string

	// RequestedResources is the envelope the job should be submitted with,
	// if one was assembled before submission (e.g. resolved from a job
	// class). Zero value means "let the scheduler/jobscript decide".
	RequestedResources ResourceRequest
}

// Identifier satisfies Identifiable so JobSpec can be compared with Match.
func (s JobSpec) Identifier() string { return s.ID }

// SchedulerIdentifier is empty for a bare JobSpec: scheduler assignment is a
// Job-only concept. A JobSpec therefore only ever matches by id.
func (s JobSpec) SchedulerIdentifier() (string, bool) { return "", false }

// IsRunning reports whether the spec is in the running state.
func (s JobSpec) IsRunning() bool { return s.State == StateRunning }

// IsQueued reports whether the spec is in the queued state.
func (s JobSpec) IsQueued() bool { return s.State == StateQueued }

// PercentCompletion for a bare JobSpec has no usage data to derive a
// fraction from, so it collapses to the completed/not-completed cases.
func (s JobSpec) PercentCompletion() float64 {
	switch s.State {
	case StateCompleted:
		return 100
	case StateFailed:
		return 0
	default:
		return 0
	}
}

// FromUnsubmittedOptions configures NewUnsubmitted.
type FromUnsubmittedOptions struct {
	JobscriptPath  string
	ExperimentPath string
	Queue          string
	Project        string
	Cluster        Cluster
}

// NewUnsubmitted builds a fresh JobSpec in state unsubmitted with a newly
// generated id, mirroring the source's JobSpec.from_unsubmitted.
func NewUnsubmitted(opts FromUnsubmittedOptions) JobSpec {
	cluster := opts.Cluster
	if cluster == "" {
		cluster = ClusterUnknown
	}
	return JobSpec{
		ID:             uuid.NewString(),
		Name:           filepath.Base(opts.ExperimentPath),
		ExperimentPath: opts.ExperimentPath,
		JobscriptPath:  opts.JobscriptPath,
		Cluster:        cluster,
		Queue:          opts.Queue,
		Project:        opts.Project,
		State:          StateUnsubmitted,
		ModifiedTime:   time.Now().UTC(),
	}
}

// ResourceRequest is the resource envelope a job asked the scheduler for.
type ResourceRequest struct {
	MemBytes       int64
	NCPUs          int
	NGPUs          int
	NodeCount      int
	Place          string
	Priority       *int
	SelectStatement string
	Walltime       time.Duration
}

// ResourceUsage is the resource envelope a job has actually consumed so far.
type ResourceUsage struct {
	CPUPercent float64
	CPUTime    time.Duration
	MemBytes   int64
	VMemBytes  int64
	NCPUs      int
	NGPUs      int
	Walltime   time.Duration
}

// Job extends JobSpec with scheduler-observed fields, populated once a job
// has been submitted and the scheduler has assigned it a scheduler_id.
type Job struct {
	JobSpec

	SchedulerID      string
	Owner            string
	ResourceRequest  ResourceRequest
	ResourceUsage    *ResourceUsage
	Server           string
	StartTime        *time.Time
	CreationTime     *time.Time
	QueueTime        *time.Time
	ErrorPath        string
	OutputPath       string
	Priority         int
	RunCount         int
	SubmitArguments  []string
	JobDetails       map[string]any
}

// Identifier overrides JobSpec's to satisfy Identifiable explicitly (same
// value, kept for readability at call sites that hold a Job).
func (j Job) Identifier() string { return j.ID }

// SchedulerIdentifier reports the scheduler-assigned id, if the job has been
// submitted.
func (j Job) SchedulerIdentifier() (string, bool) {
	if j.SchedulerID == "" {
		return "", false
	}
	return j.SchedulerID, true
}

// OwnerName strips the "@host" suffix from Owner, if present.
func (j Job) OwnerName() string {
	if idx := strings.Index(j.Owner, "@"); idx >= 0 {
		return j.Owner[:idx]
	}
	return j.Owner
}

// EndTime is StartTime plus the requested walltime, when a start time is
// known. It is an upper bound, not an observation: PBS reports no positive
// completion signal.
func (j Job) EndTime() *time.Time {
	if j.StartTime == nil {
		return nil
	}
	t := j.StartTime.Add(j.ResourceRequest.Walltime)
	return &t
}

// HasElapsed reports whether the job's requested walltime has passed,
// relative to its observed start time. A job with no start time has not
// elapsed by definition.
func (j Job) HasElapsed() bool {
	end := j.EndTime()
	if end == nil {
		return false
	}
	return time.Now().After(*end)
}

// Walltime returns the requested walltime, a convenience accessor mirroring
// the source's Job.walltime property.
func (j Job) Walltime() time.Duration { return j.ResourceRequest.Walltime }

// PercentCompletion derives progress from resource usage when available,
// falling back to the terminal-state shortcuts JobSpec already defines.
func (j Job) PercentCompletion() float64 {
	switch j.State {
	case StateCompleted:
		return 100
	case StateFailed:
		return 0
	}
	if j.ResourceUsage == nil || j.ResourceRequest.Walltime <= 0 {
		return 0
	}
	return 100 * j.ResourceUsage.Walltime.Seconds() / j.ResourceRequest.Walltime.Seconds()
}
