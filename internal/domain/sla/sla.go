// Package sla computes service-level due dates and breach state for jobs.
// Evaluation is a pure read-side computation; nothing here writes state.
package sla

import (
	"math"
	"time"

	"github.com/rowhq/fieldproof/internal/domain/model"
)

// Policy maps job types to their completion window. The table comes from
// configuration, not hardcoded arithmetic.
type Policy struct {
	windows  map[model.JobType]time.Duration
	fallback time.Duration
}

// NewPolicy builds a Policy from per-type windows. fallback applies to any
// type missing from the table.
func NewPolicy(windows map[model.JobType]time.Duration, fallback time.Duration) *Policy {
	cp := make(map[model.JobType]time.Duration, len(windows))
	for k, v := range windows {
		cp[k] = v
	}
	return &Policy{windows: cp, fallback: fallback}
}

// Window returns the completion window for the given job type.
func (p *Policy) Window(jobType model.JobType) time.Duration {
	if d, ok := p.windows[jobType]; ok {
		return d
	}
	return p.fallback
}

// DueAt computes the SLA deadline for a job dispatched at the given time.
func (p *Policy) DueAt(jobType model.JobType, dispatchedAt time.Time) time.Time {
	return dispatchedAt.Add(p.Window(jobType))
}

// Breach describes one job currently past its SLA deadline.
type Breach struct {
	JobID        string          `json:"job_id"`
	Status       model.JobStatus `json:"status"`
	AppraiserID  *string         `json:"appraiser_id,omitempty"`
	SLADueAt     time.Time       `json:"sla_due_at"`
	HoursOverdue float64         `json:"hours_overdue"`
}

// Breached reports whether the job counts as an SLA breach at the given
// instant: an active status with a due date in the past. Jobs with no due
// date (never dispatched) cannot breach.
func Breached(job *model.Job, now time.Time) bool {
	if job.SLADueAt == nil || !job.SLADueAt.Before(now) {
		return false
	}
	for _, s := range model.ActiveStatuses {
		if job.Status == s {
			return true
		}
	}
	return false
}

// HoursOverdue returns how many hours past due the deadline is at the given
// instant, rounded to one decimal. Returns 0 when not yet due.
func HoursOverdue(dueAt, now time.Time) float64 {
	if !dueAt.Before(now) {
		return 0
	}
	hours := now.Sub(dueAt).Hours()
	return math.Round(hours*10) / 10
}

// Stats is the read model served to dashboards: active totals plus the
// currently breached jobs.
type Stats struct {
	ActiveJobs   int       `json:"active_jobs"`
	BreachedJobs int       `json:"breached_jobs"`
	BreachRate   float64   `json:"breach_rate"`
	Breaches     []Breach  `json:"breaches"`
	GeneratedAt  time.Time `json:"generated_at"`
}
