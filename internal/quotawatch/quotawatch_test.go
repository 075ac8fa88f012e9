package quotawatch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/workload"
)

type fakeAdapter struct {
	stats workload.StorageStats
	err   error
}

func (f *fakeAdapter) Name() string         { return "fake" }
func (f *fakeAdapter) ListJobsCmd() string  { return "true" }
func (f *fakeAdapter) GetJobs(ctx context.Context) (*jobmodel.Queue, error) {
	return jobmodel.NewQueue(), nil
}
func (f *fakeAdapter) QueryJobs(ctx context.Context, ids []string) (*jobmodel.Queue, error) {
	return jobmodel.NewQueue(), nil
}
func (f *fakeAdapter) SubmitJob(ctx context.Context, spec jobmodel.JobSpec) error { return nil }
func (f *fakeAdapter) DeleteJob(ctx context.Context, idOrSchedulerID string) error { return nil }
func (f *fakeAdapter) RerunJob(ctx context.Context, job jobmodel.Job) error        { return nil }
func (f *fakeAdapter) ResubmitJob(ctx context.Context, job jobmodel.Job) error     { return nil }
func (f *fakeAdapter) ElevateJob(ctx context.Context, job jobmodel.Job, queue, project string) error {
	return nil
}
func (f *fakeAdapter) WasKilled(ctx context.Context, job jobmodel.Job) (bool, error) {
	return false, nil
}
func (f *fakeAdapter) GetStorageStats(ctx context.Context) (workload.StorageStats, error) {
	return f.stats, f.err
}

func TestCheckOnceReturnsStats(t *testing.T) {
	adapter := &fakeAdapter{stats: workload.StorageStats{
		"Home": {Partition: "Home", PercentUsed: 91, UsedBytes: 91_000, TotalBytes: 100_000},
	}}
	w := New(adapter, Config{Threshold: 85}, zerolog.Nop())
	stats, err := w.CheckOnce(context.Background())
	if err != nil {
		t.Fatalf("CheckOnce: %v", err)
	}
	if stats["Home"].PercentUsed != 91 {
		t.Errorf("PercentUsed = %v, want 91", stats["Home"].PercentUsed)
	}
}

func TestCheckOnceBelowThresholdNoPanic(t *testing.T) {
	adapter := &fakeAdapter{stats: workload.StorageStats{
		"Home": {Partition: "Home", PercentUsed: 10},
	}}
	w := New(adapter, Config{Threshold: 85}, zerolog.Nop())
	if _, err := w.CheckOnce(context.Background()); err != nil {
		t.Fatalf("CheckOnce: %v", err)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	adapter := &fakeAdapter{stats: workload.StorageStats{}}
	w := New(adapter, Config{Interval: time.Millisecond}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Loop(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Loop did not return after cancel")
	}
}
