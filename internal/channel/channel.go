// Package channel provides a uniform synchronous command-execution
// interface over either a local shell or a persistent interactive SSH
// shell. Callers never see a non-zero exit status as a Go error: Execute
// reserves errors for channel-level faults (dial failure, shell desync,
// context cancellation).
package channel

import (
	"context"
	"io"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// Result is the outcome of one Execute call.
type Result struct {
	Stdout string
	Stderr string
	Exit   int
}

// StateUpdater is the narrow slice of the tracking store a local Channel
// needs in order to implement UpdateJobState without importing the whole
// tracking package into this one.
type StateUpdater interface {
	UpdateState(ctx context.Context, jobID string, state jobmodel.State, comment string) error
}

// Channel is the contract shared by the local and SSH implementations.
type Channel interface {
	// Execute runs cmd and returns its captured output and exit status.
	// A non-nil error means the channel itself faulted, not that the
	// command exited non-zero.
	Execute(ctx context.Context, cmd string) (Result, error)

	// OpenFile returns a stream for path opened with the given flags
	// (os.O_RDONLY, os.O_WRONLY|os.O_CREATE, etc). The caller must close it.
	OpenFile(ctx context.Context, path string, flag int) (io.ReadWriteCloser, error)

	// UpdateJobState mutates the tracked row for jobID, either by invoking
	// the remote update-job-state helper (SSH channel) or by writing
	// straight to the local store (local channel).
	UpdateJobState(ctx context.Context, jobID string, state jobmodel.State, comment string, onFail jobmodel.OnFail) error

	// SetMissingAlerts invokes the missing-alerts scan, remotely or locally.
	SetMissingAlerts(ctx context.Context) error

	// LoginMessage returns whatever informational banner lines were
	// captured at construction time. Empty for the local channel.
	LoginMessage() []string
}
