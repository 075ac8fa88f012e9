package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// execCommandContext is overridden in tests, matching the teacher's
// execCommand swap-point idiom in internal/ssh.
var execCommandContext = exec.CommandContext

// LocalChannel runs commands on the machine the supervisor itself is
// running on, via "sh -c". It has no login banner and writes job-state
// updates straight to the attached store rather than shelling out to a
// remote helper.
type LocalChannel struct {
	store  StateUpdater
	logger zerolog.Logger
}

// NewLocalChannel builds a LocalChannel backed by store for UpdateJobState.
// store may be nil if the caller never needs it.
func NewLocalChannel(store StateUpdater, logger zerolog.Logger) *LocalChannel {
	return &LocalChannel{store: store, logger: logger}
}

// Execute implements Channel.
func (c *LocalChannel) Execute(ctx context.Context, cmd string) (Result, error) {
	if cmd == "" {
		return Result{}, fmt.Errorf("execute: empty command")
	}
	execCmd := execCommandContext(ctx, "sh", "-c", cmd)
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	exit := 0
	if err != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			exit = exitErr.ExitCode()
		} else {
			return Result{}, fmt.Errorf("execute %q: %w", cmd, err)
		}
	}
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Exit: exit}, nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// OpenFile implements Channel by opening the local filesystem path directly.
func (c *LocalChannel) OpenFile(ctx context.Context, path string, flag int) (io.ReadWriteCloser, error) {
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	return f, nil
}

// UpdateJobState writes directly to the attached store.
func (c *LocalChannel) UpdateJobState(ctx context.Context, jobID string, state jobmodel.State, comment string, onFail jobmodel.OnFail) error {
	if c.store == nil {
		return fmt.Errorf("update job state: no store attached to local channel")
	}
	err := c.store.UpdateState(ctx, jobID, state, comment)
	swallowed, out := applyOnFail(err, onFail)
	if swallowed && onFail == jobmodel.OnFailWarn {
		c.logger.Warn().Err(err).Str("job_id", jobID).Msg("update_job_state failed, continuing per on_fail policy")
	}
	return out
}

// SetMissingAlerts is a no-op placeholder for the local channel: the
// missing-alerts scan runs in-process against the reconciliation engine's
// own adapter/store pair rather than through a channel round-trip when the
// supervisor has direct local access.
func (c *LocalChannel) SetMissingAlerts(ctx context.Context) error {
	return nil
}

// LoginMessage is always empty for a local channel.
func (c *LocalChannel) LoginMessage() []string { return nil }
