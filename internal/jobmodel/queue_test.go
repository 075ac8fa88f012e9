package jobmodel

import "testing"

func job(id, schedID string, state State) Job {
	return Job{JobSpec: JobSpec{ID: id, State: state}, SchedulerID: schedID}
}

func TestQueueAddReplacesOnIdentityMatch(t *testing.T) {
	q := NewQueue()
	q.Add(job("a", "", StateQueued))
	q.Add(job("a", "", StateRunning))

	if q.Len() != 1 {
		t.Fatalf("expected 1 job after replace-add, got %d", q.Len())
	}
	got, ok := q.Get("a")
	if !ok || got.State != StateRunning {
		t.Errorf("expected replaced job to be running, got %+v ok=%v", got, ok)
	}
}

func TestQueueUniquenessInvariant(t *testing.T) {
	q := NewQueue()
	q.Add(job("a", "1", StateQueued))
	q.Add(job("b", "1", StateQueued)) // matches on scheduler id
	q.Add(job("c", "2", StateQueued))

	jobs := q.Jobs()
	for i := range jobs {
		for j := i + 1; j < len(jobs); j++ {
			if Match(jobs[i], jobs[j]) {
				t.Errorf("queue invariant violated: entries %d and %d match", i, j)
			}
		}
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 distinct jobs, got %d", q.Len())
	}
}

func TestQueueMergeCommutativeOnDisjointIDs(t *testing.T) {
	a := NewQueue(job("a", "", StateQueued))
	b := NewQueue(job("b", "", StateRunning))

	ab := a.Merge(b)
	ba := b.Merge(a)

	if ab.Len() != ba.Len() {
		t.Fatalf("merge result sizes differ: %d vs %d", ab.Len(), ba.Len())
	}
	for _, j := range ab.Jobs() {
		if !ba.Contains(j) {
			t.Errorf("job %+v present in a.Merge(b) but not b.Merge(a)", j)
		}
	}
}

func TestQueueDiff(t *testing.T) {
	tracked := NewQueue(job("a", "", StateQueued), job("b", "", StateRunning))
	live := NewQueue(job("a", "", StateQueued))

	diff := tracked.Diff(live)
	if diff.Len() != 1 {
		t.Fatalf("expected 1 job in diff, got %d", diff.Len())
	}
	if _, ok := diff.Get("b"); !ok {
		t.Error("expected diff to contain job b")
	}
}

func TestQueueFilterOwner(t *testing.T) {
	q := NewQueue(
		Job{JobSpec: JobSpec{ID: "a"}, Owner: "alice@head1"},
		Job{JobSpec: JobSpec{ID: "b"}, Owner: "bob@head1"},
	)

	if got := q.FilterOwner("alice"); got.Len() != 1 {
		t.Errorf("expected 1 job for bare owner filter, got %d", got.Len())
	}
	if got := q.FilterOwner("alice@head1"); got.Len() != 1 {
		t.Errorf("expected 1 job for full owner filter, got %d", got.Len())
	}
	if got := q.FilterOwner("alice@head2"); got.Len() != 0 {
		t.Errorf("expected 0 jobs for mismatched full owner filter, got %d", got.Len())
	}
}

func TestQueueFilterName(t *testing.T) {
	q := NewQueue(
		Job{JobSpec: JobSpec{ID: "a", Name: "train-resnet"}},
		Job{JobSpec: JobSpec{ID: "b", Name: "eval-resnet"}},
		Job{JobSpec: JobSpec{ID: "c", Name: "train-vit"}},
	)

	got, err := q.FilterName("train")
	if err != nil {
		t.Fatalf("FilterName: %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("expected 2 jobs matching substring 'train', got %d", got.Len())
	}
}

func TestQueuePopNotFound(t *testing.T) {
	q := NewQueue(job("a", "", StateQueued))
	if _, ok := q.Pop(JobSpec{ID: "missing"}); ok {
		t.Error("expected Pop of absent job to report not found")
	}
}
