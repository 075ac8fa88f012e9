package jobmodel

// Identifiable is implemented by JobSpec and Job. It exposes exactly the two
// fields the identity rule is allowed to compare: the user-owned id and,
// where known, the scheduler-assigned id.
//
// Per the design notes this is the single canonical place identity is
// decided. Nothing outside this file may compare a raw string against
// job.ID or job.SchedulerID directly.
type Identifiable interface {
	Identifier() string
	SchedulerIdentifier() (id string, ok bool)
}

// Match reports whether a and b refer to the same job: their ids are equal,
// or both expose a scheduler id and those are equal. No other combination
// (id vs scheduler_id across sides) yields a match.
func Match(a, b Identifiable) bool {
	if aID, bID := a.Identifier(), b.Identifier(); aID != "" && bID != "" && aID == bID {
		return true
	}
	aSched, aOK := a.SchedulerIdentifier()
	bSched, bOK := b.SchedulerIdentifier()
	return aOK && bOK && aSched == bSched
}

// MatchID reports whether id identifies the same job as j: either it equals
// j's id, or it equals j's scheduler id. This is the one sanctioned
// shortcut for comparing a bare string (e.g. a CLI argument) against a job,
// and it still routes through the same two fields Match uses.
func MatchID(id string, j Identifiable) bool {
	if id == j.Identifier() {
		return true
	}
	if sched, ok := j.SchedulerIdentifier(); ok && sched == id {
		return true
	}
	return false
}
