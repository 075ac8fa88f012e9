package workload

import (
	"errors"
	"fmt"
)

// ErrJobSubmission is the sentinel every submission fault wraps, so callers
// can classify with errors.Is(err, ErrJobSubmission) without caring whether
// it's a QueueFullError, a MissingJobScriptError, or a bare one.
var ErrJobSubmission = errors.New("job submission failed")

// ErrQueueFull is wrapped by errors returned when the scheduler's submit
// queue rejects a job for being full (PBS exit 38).
var ErrQueueFull = errors.New("queue full")

// ErrMissingJobScript is wrapped by errors returned when the scheduler
// cannot find the jobscript file to (re)submit.
var ErrMissingJobScript = errors.New("jobscript file not found")

// ErrJobDeletion is the sentinel job-deletion faults wrap. It is a separate
// hierarchy from submission faults.
var ErrJobDeletion = errors.New("job deletion failed")

// ErrNotInstalled is returned by capability probing when the adapter's
// list-jobs command exits 127 (command not found).
var ErrNotInstalled = errors.New("workload manager not installed")

// ErrNotImplemented is returned by stub adapter operations that the source
// never implemented (e.g. SLURM's rerun path).
var ErrNotImplemented = errors.New("not implemented")

// JobSubmissionError wraps a submission failure with the scheduler's raw
// exit code and stderr, always satisfying errors.Is(err, ErrJobSubmission).
type JobSubmissionError struct {
	Op       string
	ExitCode int
	Stderr   string
	sentinel error
}

func (e *JobSubmissionError) Error() string {
	return fmt.Sprintf("%s: exit %d: %s", e.Op, e.ExitCode, e.Stderr)
}

func (e *JobSubmissionError) Unwrap() error {
	if e.sentinel != nil {
		return e.sentinel
	}
	return ErrJobSubmission
}

// NewQueueFullError builds a JobSubmissionError that also satisfies
// errors.Is(err, ErrQueueFull), mirroring the source's
// QueueFullError(JobSubmissionError) subclass.
func NewQueueFullError(op string, exitCode int, stderr string) *JobSubmissionError {
	return &JobSubmissionError{Op: op, ExitCode: exitCode, Stderr: stderr, sentinel: wrapBoth(ErrJobSubmission, ErrQueueFull)}
}

// NewMissingJobScriptError builds a JobSubmissionError that also satisfies
// errors.Is(err, ErrMissingJobScript).
func NewMissingJobScriptError(op string, exitCode int, stderr string) *JobSubmissionError {
	return &JobSubmissionError{Op: op, ExitCode: exitCode, Stderr: stderr, sentinel: wrapBoth(ErrJobSubmission, ErrMissingJobScript)}
}

// NewJobSubmissionError builds a plain JobSubmissionError, wrapping only
// ErrJobSubmission.
func NewJobSubmissionError(op string, exitCode int, stderr string) *JobSubmissionError {
	return &JobSubmissionError{Op: op, ExitCode: exitCode, Stderr: stderr}
}

// JobDeletionError wraps a deletion failure.
type JobDeletionError struct {
	Op       string
	ExitCode int
	Stderr   string
}

func (e *JobDeletionError) Error() string {
	return fmt.Sprintf("%s: exit %d: %s", e.Op, e.ExitCode, e.Stderr)
}

func (e *JobDeletionError) Unwrap() error { return ErrJobDeletion }

// wrapBoth returns an error whose Is matches both a and b, used to let a
// QueueFullError satisfy both ErrJobSubmission and ErrQueueFull.
func wrapBoth(a, b error) error {
	return &dualSentinel{a: a, b: b}
}

type dualSentinel struct{ a, b error }

func (d *dualSentinel) Error() string { return d.a.Error() + ": " + d.b.Error() }
func (d *dualSentinel) Is(target error) bool {
	return errors.Is(d.a, target) || errors.Is(d.b, target) || target == d.a || target == d.b
}
