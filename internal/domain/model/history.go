package model

import "time"

// StatusChange is one entry in a job's audit trail: who moved the job to which
// status, when, and why.
type StatusChange struct {
	Status    JobStatus `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	Reason    *string   `json:"reason,omitempty"`
}

// StatusHistory is the append-only ordered log of status changes for a job.
// Entries are ordered by commit order, never mutated, reordered, or truncated.
// The only mutator is Appended, which returns a new slice; existing entries are
// never touched.
type StatusHistory []StatusChange

// Appended returns the history with one new entry added at the end.
func (h StatusHistory) Appended(change StatusChange) StatusHistory {
	out := make(StatusHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, change)
}

// Last returns the most recent entry and true, or the zero value and false
// when the history is empty.
func (h StatusHistory) Last() (StatusChange, bool) {
	if len(h) == 0 {
		return StatusChange{}, false
	}
	return h[len(h)-1], true
}

// ConsistentWith reports whether the history satisfies the audit invariant for
// the given current status: at least one entry, and the last entry matches.
func (h StatusHistory) ConsistentWith(status JobStatus) bool {
	last, ok := h.Last()
	return ok && last.Status == status
}
