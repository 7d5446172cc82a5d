package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rowhq/fieldproof/internal/domain/model"
)

// RepoConfig holds configuration options shared by the data-layer repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for the job lifecycle. Every status
// move is a single conditional UPDATE keyed on the expected current status,
// appending the status-history entry in the same statement, so a lost race
// leaves both status and history untouched.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  organization_id,
  property_id,
  type,
  status,
  assigned_appraiser_id,
  geofence_radius_m,
  geofence_verified,
  payout_amount_cents,
  revision_requested,
  required_photos,
  sla_due_at,
  dispatched_at,
  accepted_at,
  started_at,
  submitted_at,
  completed_at,
  status_history,
  created_at,
  updated_at
`

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	assignedAppraiserID                 sql.NullString
	requiredPhotos, statusHistory       []byte
	slaDueAt, dispatchedAt, acceptedAt  sql.NullTime
	startedAt, submittedAt, completedAt sql.NullTime
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.OrganizationID,
		&job.PropertyID,
		&job.Type,
		&job.Status,
		&d.assignedAppraiserID,
		&job.GeofenceRadiusM,
		&job.GeofenceVerified,
		&job.PayoutAmountCents,
		&job.RevisionRequested,
		&d.requiredPhotos,
		&d.slaDueAt,
		&d.dispatchedAt,
		&d.acceptedAt,
		&d.startedAt,
		&d.submittedAt,
		&d.completedAt,
		&d.statusHistory,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.Job) error {
	job.AssignedAppraiserID = cloneNullableString(d.assignedAppraiserID)
	job.SLADueAt = cloneNullableTime(d.slaDueAt)
	job.DispatchedAt = cloneNullableTime(d.dispatchedAt)
	job.AcceptedAt = cloneNullableTime(d.acceptedAt)
	job.StartedAt = cloneNullableTime(d.startedAt)
	job.SubmittedAt = cloneNullableTime(d.submittedAt)
	job.CompletedAt = cloneNullableTime(d.completedAt)

	if len(d.requiredPhotos) > 0 {
		if err := json.Unmarshal(d.requiredPhotos, &job.RequiredPhotos); err != nil {
			return fmt.Errorf("decode required photos: %w", err)
		}
	}
	if len(d.statusHistory) > 0 {
		if err := json.Unmarshal(d.statusHistory, &job.StatusHistory); err != nil {
			return fmt.Errorf("decode status history: %w", err)
		}
	}
	return nil
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}

	if err := data.apply(job); err != nil {
		return nil, err
	}
	return job, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// historyEntryJSON marshals one status change as a single-element jsonb array
// so it can be appended with the || operator inside the UPDATE.
func historyEntryJSON(change model.StatusChange) ([]byte, error) {
	raw, err := json.Marshal([]model.StatusChange{change})
	if err != nil {
		return nil, fmt.Errorf("encode status change: %w", err)
	}
	return raw, nil
}
