package jobmodel

import "regexp"

// Queue is an insertion-order-preserving collection of Jobs. Identity is
// decided by Match: Add replaces an existing entry that matches rather than
// appending a duplicate.
type Queue struct {
	jobs []Job
}

// NewQueue builds a Queue from an initial slice of jobs, applying the same
// identity-aware Add semantics a caller would get by adding them one by one.
func NewQueue(jobs ...Job) *Queue {
	q := &Queue{}
	for _, j := range jobs {
		q.Add(j)
	}
	return q
}

// Len returns the number of jobs in the queue.
func (q *Queue) Len() int { return len(q.jobs) }

// Jobs returns the queue's contents in iteration order. The slice is a copy;
// mutating it does not affect the queue.
func (q *Queue) Jobs() []Job {
	out := make([]Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}

// Add replaces the first job that Match-equals job, or appends it if none
// does. This is the sole mutation primitive that establishes queue
// uniqueness (invariant: no two entries in a Queue ever Match each other).
func (q *Queue) Add(job Job) {
	for i := range q.jobs {
		if Match(q.jobs[i], job) {
			q.jobs[i] = job
			return
		}
	}
	q.jobs = append(q.jobs, job)
}

// Merge returns a new Queue containing q's jobs with other's jobs added on
// top: jobs in other that Match an existing entry replace it in place (so
// the merged entry keeps q's position), and unmatched jobs from other are
// appended. For ids that appear in only one side, this is commutative.
func (q *Queue) Merge(other *Queue) *Queue {
	merged := NewQueue(q.jobs...)
	for _, j := range other.jobs {
		merged.Add(j)
	}
	return merged
}

// Contains reports whether any job in the queue Matches job.
func (q *Queue) Contains(job Identifiable) bool {
	for _, j := range q.jobs {
		if Match(j, job) {
			return true
		}
	}
	return false
}

// Get returns the job matching id (by JobSpec.ID or Job.SchedulerID), if any.
func (q *Queue) Get(id string) (Job, bool) {
	for _, j := range q.jobs {
		if MatchID(id, j) {
			return j, true
		}
	}
	return Job{}, false
}

// Pop removes and returns the job matching job's identity. ok is false if no
// such job was present.
func (q *Queue) Pop(job Identifiable) (Job, bool) {
	for i := range q.jobs {
		if Match(q.jobs[i], job) {
			removed := q.jobs[i]
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return removed, true
		}
	}
	return Job{}, false
}

// Diff returns the jobs in q that have no Match in other: "tracked minus
// live" in reconciliation-engine terms.
func (q *Queue) Diff(other *Queue) *Queue {
	out := &Queue{}
	for _, j := range q.jobs {
		if !other.Contains(j) {
			out.jobs = append(out.jobs, j)
		}
	}
	return out
}

// Count returns the number of jobs in state s.
func (q *Queue) Count(s State) int {
	n := 0
	for _, j := range q.jobs {
		if j.State == s {
			n++
		}
	}
	return n
}

// FilterOwner returns jobs whose owner matches owner. If owner contains "@"
// it is compared against the full Owner field; otherwise it is compared
// against the bare OwnerName().
func (q *Queue) FilterOwner(owner string) *Queue {
	out := &Queue{}
	full := false
	for _, c := range owner {
		if c == '@' {
			full = true
			break
		}
	}
	for _, j := range q.jobs {
		if full {
			if j.Owner == owner {
				out.jobs = append(out.jobs, j)
			}
		} else if j.OwnerName() == owner {
			out.jobs = append(out.jobs, j)
		}
	}
	return out
}

// FilterState returns jobs whose state is one of states.
func (q *Queue) FilterState(states ...State) *Queue {
	set := make(map[State]bool, len(states))
	for _, s := range states {
		set[s] = true
	}
	out := &Queue{}
	for _, j := range q.jobs {
		if set[j.State] {
			out.jobs = append(out.jobs, j)
		}
	}
	return out
}

// FilterID returns jobs whose id or scheduler id is one of ids.
func (q *Queue) FilterID(ids ...string) *Queue {
	out := &Queue{}
	for _, j := range q.jobs {
		for _, id := range ids {
			if MatchID(id, j) {
				out.jobs = append(out.jobs, j)
				break
			}
		}
	}
	return out
}

// FilterName returns jobs whose Name matches pattern as a regex substring
// search (re.search semantics, not full-match).
func (q *Queue) FilterName(pattern string) (*Queue, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	out := &Queue{}
	for _, j := range q.jobs {
		if re.MatchString(j.Name) {
			out.jobs = append(out.jobs, j)
		}
	}
	return out, nil
}

// FilterCluster returns jobs tagged with cluster.
func (q *Queue) FilterCluster(cluster Cluster) *Queue {
	out := &Queue{}
	for _, j := range q.jobs {
		if j.Cluster == cluster {
			out.jobs = append(out.jobs, j)
		}
	}
	return out
}
