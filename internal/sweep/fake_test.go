package sweep

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wbeardall/schedtools-go/internal/channel"
	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/workload"
)

// fakeTrackedQueue is an in-memory TrackedQueue, avoiding a real SQLite
// store in sweep unit tests.
type fakeTrackedQueue struct {
	jobs  map[string]jobmodel.JobSpec
	order []string
}

func newFakeTrackedQueue(specs ...jobmodel.JobSpec) *fakeTrackedQueue {
	tq := &fakeTrackedQueue{jobs: make(map[string]jobmodel.JobSpec)}
	for _, s := range specs {
		tq.jobs[s.ID] = s
		tq.order = append(tq.order, s.ID)
	}
	return tq
}

func (tq *fakeTrackedQueue) Specs() []jobmodel.JobSpec {
	out := make([]jobmodel.JobSpec, 0, len(tq.order))
	for _, id := range tq.order {
		out = append(out, tq.jobs[id])
	}
	return out
}

func (tq *fakeTrackedQueue) Get(id string) (jobmodel.JobSpec, bool) {
	s, ok := tq.jobs[id]
	return s, ok
}

func (tq *fakeTrackedQueue) Register(ctx context.Context, job jobmodel.JobSpec, onConflict jobmodel.OnConflict) error {
	if _, ok := tq.jobs[job.ID]; !ok {
		tq.order = append(tq.order, job.ID)
	}
	tq.jobs[job.ID] = job
	return nil
}

func (tq *fakeTrackedQueue) Pop(ctx context.Context, jobID string) error {
	if _, ok := tq.jobs[jobID]; !ok {
		return fmt.Errorf("not found: %s", jobID)
	}
	delete(tq.jobs, jobID)
	for i, id := range tq.order {
		if id == jobID {
			tq.order = append(tq.order[:i], tq.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeAdapter is a scriptable workload.Adapter for sweep tests.
type fakeAdapter struct {
	name string
	live *jobmodel.Queue

	rerunResults  map[string][]error // per job id, consumed in order
	rerunCalls    []string
	deleteCalls   []string
	killedResults map[string]bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		name:          "pbs",
		live:          jobmodel.NewQueue(),
		rerunResults:  make(map[string][]error),
		killedResults: make(map[string]bool),
	}
}

func (a *fakeAdapter) withLive(jobs ...jobmodel.Job) *fakeAdapter {
	for _, j := range jobs {
		a.live.Add(j)
	}
	return a
}

func (a *fakeAdapter) withRerun(jobID string, errs ...error) *fakeAdapter {
	a.rerunResults[jobID] = errs
	return a
}

func (a *fakeAdapter) withKilled(jobID string, killed bool) *fakeAdapter {
	a.killedResults[jobID] = killed
	return a
}

func (a *fakeAdapter) Name() string        { return a.name }
func (a *fakeAdapter) ListJobsCmd() string { return "fake-list" }

func (a *fakeAdapter) GetJobs(ctx context.Context) (*jobmodel.Queue, error) {
	return jobmodel.NewQueue(a.live.Jobs()...), nil
}

func (a *fakeAdapter) QueryJobs(ctx context.Context, ids []string) (*jobmodel.Queue, error) {
	return a.GetJobs(ctx)
}

func (a *fakeAdapter) SubmitJob(ctx context.Context, spec jobmodel.JobSpec) error { return nil }

func (a *fakeAdapter) DeleteJob(ctx context.Context, idOrSchedulerID string) error {
	a.deleteCalls = append(a.deleteCalls, idOrSchedulerID)
	return nil
}

func (a *fakeAdapter) RerunJob(ctx context.Context, job jobmodel.Job) error {
	a.rerunCalls = append(a.rerunCalls, job.ID)
	queue, ok := a.rerunResults[job.ID]
	if !ok || len(queue) == 0 {
		return nil
	}
	next := queue[0]
	a.rerunResults[job.ID] = queue[1:]
	return next
}

func (a *fakeAdapter) ResubmitJob(ctx context.Context, job jobmodel.Job) error { return nil }

func (a *fakeAdapter) ElevateJob(ctx context.Context, job jobmodel.Job, queue, project string) error {
	return nil
}

func (a *fakeAdapter) WasKilled(ctx context.Context, job jobmodel.Job) (bool, error) {
	return a.killedResults[job.ID], nil
}

func (a *fakeAdapter) GetStorageStats(ctx context.Context) (workload.StorageStats, error) {
	return workload.StorageStats{}, nil
}

// flakyChannel wraps a channel.Channel and makes OpenFile fail for
// write-intent flags when broken is true, to exercise the mirror's
// fallback-cache path without a real network fault.
type flakyChannel struct {
	channel.Channel
	broken bool
}

func (f *flakyChannel) OpenFile(ctx context.Context, path string, flag int) (io.ReadWriteCloser, error) {
	if f.broken && flag&os.O_WRONLY != 0 {
		return nil, fmt.Errorf("simulated remote write failure")
	}
	return f.Channel.OpenFile(ctx, path, flag)
}
