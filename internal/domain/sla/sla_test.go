package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowhq/fieldproof/internal/domain/model"
)

func testPolicy() *Policy {
	return NewPolicy(map[model.JobType]time.Duration{
		model.JobTypeOnsitePhotos:       72 * time.Hour,
		model.JobTypeCertifiedAppraisal: 120 * time.Hour,
	}, 72*time.Hour)
}

func TestPolicy_DueAt(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	dispatched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, dispatched.Add(72*time.Hour), p.DueAt(model.JobTypeOnsitePhotos, dispatched))
	assert.Equal(t, dispatched.Add(120*time.Hour), p.DueAt(model.JobTypeCertifiedAppraisal, dispatched))
	// Unknown type falls back.
	assert.Equal(t, dispatched.Add(72*time.Hour), p.DueAt(model.JobType("OTHER"), dispatched))
}

func TestBreached(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	tests := []struct {
		name   string
		status model.JobStatus
		dueAt  *time.Time
		want   bool
	}{
		{"active past due", model.JobStatusAccepted, &past, true},
		{"in progress past due", model.JobStatusInProgress, &past, true},
		{"active not yet due", model.JobStatusAccepted, &future, false},
		{"completed past due", model.JobStatusCompleted, &past, false},
		{"under review past due", model.JobStatusUnderReview, &past, false},
		{"never dispatched", model.JobStatusPendingDispatch, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := &model.Job{Status: tt.status, SLADueAt: tt.dueAt}
			assert.Equal(t, tt.want, Breached(job, now))
		})
	}
}

func TestHoursOverdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.Equal(t, 0.0, HoursOverdue(now.Add(time.Hour), now))
	assert.InDelta(t, 2.0, HoursOverdue(now.Add(-2*time.Hour), now), 1e-9)
	// 90 minutes overdue rounds to 1.5; 100 minutes to 1.7.
	assert.InDelta(t, 1.5, HoursOverdue(now.Add(-90*time.Minute), now), 1e-9)
	assert.InDelta(t, 1.7, HoursOverdue(now.Add(-100*time.Minute), now), 1e-9)
}
