package channel

import (
	"context"
	"os/exec"
	"testing"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

type stubStore struct {
	calls []string
	err   error
}

func (s *stubStore) UpdateState(ctx context.Context, jobID string, state jobmodel.State, comment string) error {
	s.calls = append(s.calls, jobID+":"+string(state))
	return s.err
}

func TestLocalChannelExecuteCapturesExitCode(t *testing.T) {
	orig := execCommandContext
	defer func() { execCommandContext = orig }()
	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo out; echo err >&2; exit 3")
	}

	c := NewLocalChannel(nil, nopLogger())
	res, err := c.Execute(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Exit != 3 {
		t.Errorf("Exit = %d, want 3", res.Exit)
	}
}

func TestLocalChannelUpdateJobStateRaisesByDefault(t *testing.T) {
	store := &stubStore{err: errBoom}
	c := NewLocalChannel(store, nopLogger())
	err := c.UpdateJobState(context.Background(), "job-1", jobmodel.StateFailed, "", jobmodel.OnFailRaise)
	if err == nil {
		t.Error("expected error to propagate with on_fail=raise")
	}
}

func TestLocalChannelUpdateJobStateWarnSwallows(t *testing.T) {
	store := &stubStore{err: errBoom}
	c := NewLocalChannel(store, nopLogger())
	err := c.UpdateJobState(context.Background(), "job-1", jobmodel.StateFailed, "", jobmodel.OnFailWarn)
	if err != nil {
		t.Errorf("expected nil error with on_fail=warn, got %v", err)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
