// Package model defines the core data types for the fieldproof job lifecycle engine.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the kind of field work dispatched to appraisers.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current lifecycle status of a job.
type JobStatus string

const (
	// JobTypeOnsitePhotos is a photo-only inspection visit.
	JobTypeOnsitePhotos JobType = "ONSITE_PHOTOS"
	// JobTypeCertifiedAppraisal is a full certified appraisal inspection.
	JobTypeCertifiedAppraisal JobType = "CERTIFIED_APPRAISAL"

	// JobStatusPendingDispatch indicates a job created but not yet visible to appraisers.
	JobStatusPendingDispatch JobStatus = "PENDING_DISPATCH"
	// JobStatusDispatched indicates a job visible and assignable to appraisers.
	JobStatusDispatched JobStatus = "DISPATCHED"
	// JobStatusAccepted indicates an appraiser has claimed the job.
	JobStatusAccepted JobStatus = "ACCEPTED"
	// JobStatusInProgress indicates the inspection has started.
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	// JobStatusSubmitted indicates the appraiser submitted their work for review.
	JobStatusSubmitted JobStatus = "SUBMITTED"
	// JobStatusUnderReview indicates an admin is reviewing the submission.
	JobStatusUnderReview JobStatus = "UNDER_REVIEW"
	// JobStatusCompleted indicates the work was approved; terminal.
	JobStatusCompleted JobStatus = "COMPLETED"
	// JobStatusCancelled indicates the job was cancelled by an admin; terminal.
	JobStatusCancelled JobStatus = "CANCELLED"
	// JobStatusFailed indicates the work was rejected; terminal.
	JobStatusFailed JobStatus = "FAILED"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToUpper(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeOnsitePhotos || t == JobTypeCertifiedAppraisal
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPendingDispatch, JobStatusDispatched, JobStatusAccepted,
		JobStatusInProgress, JobStatusSubmitted, JobStatusUnderReview,
		JobStatusCompleted, JobStatusCancelled, JobStatusFailed:
		return true
	}
	return false
}

// Terminal returns true if no further transition is permitted from this status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled || s == JobStatusFailed
}

// ActiveStatuses are the statuses counted against the SLA clock.
var ActiveStatuses = []JobStatus{
	JobStatusDispatched,
	JobStatusAccepted,
	JobStatusInProgress,
	JobStatusSubmitted,
}

// transitionTable enumerates every permitted (current → next) status move.
// Admin reassign explains the wide fan-in to DISPATCHED/ACCEPTED, and admin
// cancel the fan-in to CANCELLED; everything else is the normal forward path.
var transitionTable = map[JobStatus][]JobStatus{
	JobStatusPendingDispatch: {JobStatusDispatched, JobStatusAccepted, JobStatusCancelled},
	JobStatusDispatched:      {JobStatusAccepted, JobStatusCancelled},
	JobStatusAccepted:        {JobStatusInProgress, JobStatusDispatched, JobStatusAccepted, JobStatusCancelled},
	JobStatusInProgress:      {JobStatusSubmitted, JobStatusDispatched, JobStatusAccepted, JobStatusCancelled},
	JobStatusSubmitted: {
		JobStatusUnderReview, JobStatusCompleted, JobStatusFailed,
		JobStatusInProgress, JobStatusDispatched, JobStatusAccepted, JobStatusCancelled,
	},
	JobStatusUnderReview: {
		JobStatusUnderReview, JobStatusCompleted, JobStatusFailed,
		JobStatusInProgress, JobStatusDispatched, JobStatusAccepted, JobStatusCancelled,
	},
	JobStatusCompleted: {},
	JobStatusCancelled: {},
	JobStatusFailed:    {},
}

// CanTransitionTo reports whether the transition table permits moving from s to next.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range transitionTable[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AssignedStatuses are the statuses that require a non-nil assignedAppraiserId.
var AssignedStatuses = []JobStatus{
	JobStatusAccepted,
	JobStatusInProgress,
	JobStatusSubmitted,
	JobStatusUnderReview,
	JobStatusCompleted,
}

// Job represents a unit of dispatched field work and its full audit trail.
type Job struct {
	ID                  string        `json:"id"                              db:"id"`
	OrganizationID      string        `json:"organization_id"                 db:"organization_id"`
	PropertyID          string        `json:"property_id"                     db:"property_id"`
	Type                JobType       `json:"type"                            db:"type"`
	Status              JobStatus     `json:"status"                          db:"status"`
	AssignedAppraiserID *string       `json:"assigned_appraiser_id,omitempty" db:"assigned_appraiser_id"`
	GeofenceRadiusM     int           `json:"geofence_radius_m"               db:"geofence_radius_m"`
	GeofenceVerified    bool          `json:"geofence_verified"               db:"geofence_verified"`
	PayoutAmountCents   int64         `json:"payout_amount_cents"             db:"payout_amount_cents"`
	RevisionRequested   bool          `json:"revision_requested"              db:"revision_requested"`
	RequiredPhotos      []string      `json:"required_photos,omitempty"       db:"required_photos"`
	SLADueAt            *time.Time    `json:"sla_due_at,omitempty"            db:"sla_due_at"`
	DispatchedAt        *time.Time    `json:"dispatched_at,omitempty"         db:"dispatched_at"`
	AcceptedAt          *time.Time    `json:"accepted_at,omitempty"           db:"accepted_at"`
	StartedAt           *time.Time    `json:"started_at,omitempty"            db:"started_at"`
	SubmittedAt         *time.Time    `json:"submitted_at,omitempty"          db:"submitted_at"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"          db:"completed_at"`
	StatusHistory       StatusHistory `json:"status_history"                  db:"status_history"`
	CreatedAt           time.Time     `json:"created_at"                      db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"                      db:"updated_at"`
}

// Assigned reports whether the job currently has an appraiser assigned.
func (j *Job) Assigned() bool {
	return j.AssignedAppraiserID != nil && *j.AssignedAppraiserID != ""
}

// IsAssignedTo reports whether the given appraiser is the job's current assignee.
func (j *Job) IsAssignedTo(appraiserID string) bool {
	return j.Assigned() && *j.AssignedAppraiserID == appraiserID
}

// CreateJobRequest represents a dispatch event creating a new job.
type CreateJobRequest struct {
	OrganizationID    string  `json:"organization_id"`
	PropertyID        string  `json:"property_id"`
	Type              JobType `json:"type"`
	GeofenceRadiusM   int     `json:"geofence_radius_m,omitempty"`
	PayoutAmountCents int64   `json:"payout_amount_cents,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if r.OrganizationID == "" {
		return errors.New("organization id is required")
	}
	if r.PropertyID == "" {
		return errors.New("property id is required")
	}
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if r.GeofenceRadiusM < 0 {
		return errors.New("geofence radius must be >= 0")
	}
	if r.PayoutAmountCents < 0 {
		return errors.New("payout amount must be >= 0")
	}
	return nil
}

// StartJobRequest carries the appraiser's device location when starting an inspection.
type StartJobRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the reported coordinates are on the globe.
func (r *StartJobRequest) Validate() error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ReassignJobRequest carries an admin reassignment. A nil AppraiserID unassigns
// the job back to DISPATCHED.
type ReassignJobRequest struct {
	AppraiserID *string `json:"appraiser_id"`
	Reason      string  `json:"reason"`
}

// ReviewDecisionRequest carries admin review outcomes (approve/reject/revision).
type ReviewDecisionRequest struct {
	Reason         string   `json:"reason,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	RequiredPhotos []string `json:"required_photos,omitempty"`
}

// BulkJobRequest names the jobs targeted by a bulk admin operation.
type BulkJobRequest struct {
	JobIDs []string `json:"job_ids"`
	Reason string   `json:"reason,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

// Validate validates the BulkJobRequest fields.
func (r *BulkJobRequest) Validate() error {
	if len(r.JobIDs) == 0 {
		return errors.New("job ids are required")
	}
	return nil
}

// BulkJobItemResult reports the outcome for one job in a bulk operation.
type BulkJobItemResult struct {
	JobID string `json:"job_id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BulkJobResult summarizes a bulk admin operation; one item's failure never
// aborts the rest of the batch.
type BulkJobResult struct {
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Items     []BulkJobItemResult `json:"items"`
}
