package workload

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/channel"
	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

func nopLog() zerolog.Logger { return zerolog.Nop() }

func TestPBSSubmitJobQueueFull(t *testing.T) {
	fake := channel.NewFake()
	fake.OnCommand(`qsub -v 'JOB_ID=j1,EXPERIMENT_PATH=/exp' /p/job.pbs`, channel.Result{Exit: 38, Stderr: "queue full"})

	p := NewPBS(fake, nopLog())
	spec := jobmodel.JobSpec{ID: "j1", ExperimentPath: "/exp", JobscriptPath: "/p/job.pbs"}
	err := p.SubmitJob(context.Background(), spec)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestPBSRerunFallsBackToQsubOnNotAuthorized(t *testing.T) {
	fake := channel.NewFake()
	fake.OnCommand("qrerun 7013474", channel.Result{Exit: 159})
	fake.OnCommand("qsub /p/job.pbs", channel.Result{Exit: 0})

	p := NewPBS(fake, nopLog())
	job := jobmodel.Job{JobSpec: jobmodel.JobSpec{ID: "j1", JobscriptPath: "/p/job.pbs"}, SchedulerID: "7013474"}

	if err := p.RerunJob(context.Background(), job); err != nil {
		t.Fatalf("RerunJob: %v", err)
	}
	if p.qrerunAllowed {
		t.Error("expected qrerunAllowed to flip false after exit 159")
	}

	// A second rerun should go straight to qsub without trying qrerun again.
	fake.OnCommand("qsub /p/job.pbs", channel.Result{Exit: 0})
	if err := p.RerunJob(context.Background(), job); err != nil {
		t.Fatalf("second RerunJob: %v", err)
	}
}

func TestPBSRerunMissingJobScript(t *testing.T) {
	fake := channel.NewFake()
	fake.OnCommand("qrerun 7013474", channel.Result{Exit: 1, Stderr: "qsub: script file:: No such file or directory"})

	p := NewPBS(fake, nopLog())
	job := jobmodel.Job{JobSpec: jobmodel.JobSpec{ID: "j1", JobscriptPath: "/removed"}, SchedulerID: "7013474"}

	err := p.RerunJob(context.Background(), job)
	if !errors.Is(err, ErrMissingJobScript) {
		t.Fatalf("expected ErrMissingJobScript, got %v", err)
	}
}

func TestPBSWasKilled(t *testing.T) {
	fake := channel.NewFake()
	fake.OnCommand("tail -c 4096 /home/alice/job.err", channel.Result{Exit: 0, Stdout: "some log\nPBS: job killed: mem\n"})

	p := NewPBS(fake, nopLog())
	job := jobmodel.Job{JobSpec: jobmodel.JobSpec{ID: "j1"}, ErrorPath: "/home/alice/job.err"}

	killed, err := p.WasKilled(context.Background(), job)
	if err != nil {
		t.Fatalf("WasKilled: %v", err)
	}
	if !killed {
		t.Error("expected WasKilled to detect mem-kill marker")
	}
}

func TestDetectSkipsNotInstalled(t *testing.T) {
	fake := channel.NewFake()
	fake.OnCommand("qstat -fF json", channel.Result{Exit: 127})
	fake.OnCommand("sinfo", channel.Result{Exit: 0})

	adapter, err := Detect(context.Background(), fake, nopLog())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if adapter.Name() != "slurm" {
		t.Errorf("Name() = %q, want slurm", adapter.Name())
	}
}

func TestDetectPropagatesChannelFault(t *testing.T) {
	fake := channel.NewFake()
	fake.OnCommand("qstat -fF json", channel.Result{Exit: 2, Stderr: "connection reset"})

	if _, err := Detect(context.Background(), fake, nopLog()); err == nil {
		t.Error("expected Detect to surface a non-127 non-zero exit as a fault")
	}
}

// sequenceChannel returns a scripted sequence of (Result, error) pairs for
// one command, in order, and repeats the last entry once the script runs
// out. It is used to exercise retry loops, which channel.Fake's static
// exact-match map cannot.
type sequenceChannel struct {
	channel.Channel
	cmd     string
	results []channel.Result
	errs    []error
	calls   int
}

func (s *sequenceChannel) Execute(ctx context.Context, cmd string) (channel.Result, error) {
	if cmd != s.cmd {
		return s.Channel.Execute(ctx, cmd)
	}
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.results[i], err
}

func TestPBSGetJobsRetriesOnParseFailure(t *testing.T) {
	fake := channel.NewFake()
	seq := &sequenceChannel{
		Channel: fake,
		cmd:     "qstat -fF json",
		results: []channel.Result{
			{Exit: 0, Stdout: "not json"},
			{Exit: 0, Stdout: "still not json"},
			{Exit: 0, Stdout: `{"Jobs":{"7013474.host":{"Job_Name":"x"}}}`},
		},
	}

	p := NewPBS(seq, nopLog())
	q, err := p.GetJobs(context.Background())
	if err != nil {
		t.Fatalf("GetJobs: %v", err)
	}
	if seq.calls != 3 {
		t.Fatalf("expected 3 qstat executions, got %d", seq.calls)
	}
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
}

func TestPBSGetJobsExhaustsRetriesOnPersistentParseFailure(t *testing.T) {
	fake := channel.NewFake()
	seq := &sequenceChannel{
		Channel: fake,
		cmd:     "qstat -fF json",
		results: []channel.Result{{Exit: 0, Stdout: "not json"}},
	}

	p := NewPBS(seq, nopLog())
	if _, err := p.GetJobs(context.Background()); err == nil {
		t.Error("expected error after exhausting retries")
	}
	if seq.calls != maxJSONParseRetries {
		t.Fatalf("expected %d attempts, got %d", maxJSONParseRetries, seq.calls)
	}
}

func TestPBSGetJobsRetryDisabledByEnv(t *testing.T) {
	t.Setenv("REMOTE_JOBS_DISABLE_RETRY", "1")
	fake := channel.NewFake()
	seq := &sequenceChannel{
		Channel: fake,
		cmd:     "qstat -fF json",
		results: []channel.Result{{Exit: 0, Stdout: "not json"}},
	}

	p := NewPBS(seq, nopLog())
	if _, err := p.GetJobs(context.Background()); err == nil {
		t.Error("expected error on first failed parse")
	}
	if seq.calls != 1 {
		t.Fatalf("expected exactly 1 attempt with retries disabled, got %d", seq.calls)
	}
}

func TestDetectRetriesProbeOnChannelFault(t *testing.T) {
	fake := channel.NewFake()
	seq := &sequenceChannel{
		Channel: fake,
		cmd:     "qstat -fF json",
		results: []channel.Result{{}, {Exit: 0}},
		errs:    []error{errors.New("shell desync")},
	}

	adapter, err := Detect(context.Background(), seq, nopLog())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if adapter.Name() != "pbs" {
		t.Errorf("Name() = %q, want pbs", adapter.Name())
	}
	if seq.calls != 2 {
		t.Fatalf("expected 2 probe attempts, got %d", seq.calls)
	}
}

func TestDetectProbeRetryDisabledByEnv(t *testing.T) {
	t.Setenv("REMOTE_JOBS_DISABLE_RETRY", "1")
	fake := channel.NewFake()
	seq := &sequenceChannel{
		Channel: fake,
		cmd:     "qstat -fF json",
		results: []channel.Result{{}},
		errs:    []error{errors.New("shell desync")},
	}

	if _, err := Detect(context.Background(), seq, nopLog()); err == nil {
		t.Error("expected Detect to fail on first probe fault with retries disabled")
	}
	if seq.calls != 1 {
		t.Fatalf("expected exactly 1 probe attempt with retries disabled, got %d", seq.calls)
	}
}
