package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rowhq/fieldproof/internal/core"
	"github.com/rowhq/fieldproof/internal/data/pgxutil"
	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
)

// Create inserts a new job in PENDING_DISPATCH with its first history entry.
func (r *JobRepo) Create(ctx context.Context, params core.CreateJobParams) (*model.Job, error) {
	if params.Req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := params.Req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := r.timeProvider.Now().UTC()
	history, err := historyEntryJSON(model.StatusChange{
		Status:    model.JobStatusPendingDispatch,
		Timestamp: now,
		ActorID:   params.ActorID,
	})
	if err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx, `
      INSERT INTO jobs(
        organization_id, property_id, type, status,
        geofence_radius_m, payout_amount_cents, status_history,
        created_at, updated_at
      )
      VALUES ($1, $2, $3, 'PENDING_DISPATCH', $4, $5, $6::jsonb, $7, $7)
      RETURNING `+jobColumns,
		params.Req.OrganizationID,
		params.Req.PropertyID,
		params.Req.Type,
		params.Req.GeofenceRadiusM,
		params.Req.PayoutAmountCents,
		history,
		now,
	)

	job, err := scanJobFromRow(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		row := pgxConn.QueryRow(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = $1
		`, id)
		var scanErr error
		job, scanErr = scanJobFromRow(row)
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("Job not found.")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// Dispatch moves PENDING_DISPATCH → DISPATCHED, stamping dispatchedAt and the
// SLA due date exactly once.
func (r *JobRepo) Dispatch(ctx context.Context, params core.DispatchJobParams) (bool, error) {
	now := r.timeProvider.Now().UTC()
	history, err := historyEntryJSON(model.StatusChange{
		Status:    model.JobStatusDispatched,
		Timestamp: now,
		ActorID:   params.ActorID,
	})
	if err != nil {
		return false, err
	}

	return r.execTransition(ctx, `
		UPDATE jobs
		SET status = 'DISPATCHED',
		    dispatched_at = $2,
		    sla_due_at = $3,
		    status_history = status_history || $4::jsonb,
		    updated_at = $2
		WHERE id = $1 AND status = 'PENDING_DISPATCH'
	`, params.ID, now, params.SLADueAt.UTC(), history)
}

// Accept moves DISPATCHED → ACCEPTED and assigns the appraiser. The status
// and assignment guards live in the same statement, so under concurrent
// accept attempts exactly one wins and the rest see zero rows affected.
func (r *JobRepo) Accept(ctx context.Context, params core.AcceptJobParams) (bool, error) {
	now := r.timeProvider.Now().UTC()
	history, err := historyEntryJSON(model.StatusChange{
		Status:    model.JobStatusAccepted,
		Timestamp: now,
		ActorID:   params.AppraiserID,
	})
	if err != nil {
		return false, err
	}

	return r.execTransition(ctx, `
		UPDATE jobs
		SET status = 'ACCEPTED',
		    assigned_appraiser_id = $2,
		    accepted_at = $3,
		    status_history = status_history || $4::jsonb,
		    updated_at = $3
		WHERE id = $1 AND status = 'DISPATCHED' AND assigned_appraiser_id IS NULL
	`, params.ID, params.AppraiserID, now, history)
}

// Start moves ACCEPTED → IN_PROGRESS for the assigned appraiser, stamping
// startedAt and the geofence outcome. A failed geofence check still starts
// the job; it only records geofence_verified=false.
func (r *JobRepo) Start(ctx context.Context, params core.StartJobParams) (bool, error) {
	now := r.timeProvider.Now().UTC()
	history, err := historyEntryJSON(model.StatusChange{
		Status:    model.JobStatusInProgress,
		Timestamp: now,
		ActorID:   params.AppraiserID,
	})
	if err != nil {
		return false, err
	}

	return r.execTransition(ctx, `
		UPDATE jobs
		SET status = 'IN_PROGRESS',
		    started_at = $3,
		    geofence_verified = $4,
		    status_history = status_history || $5::jsonb,
		    updated_at = $3
		WHERE id = $1 AND status = 'ACCEPTED' AND assigned_appraiser_id = $2
	`, params.ID, params.AppraiserID, now, params.GeofenceVerified, history)
}

// Submit moves IN_PROGRESS → SUBMITTED for the assigned appraiser. The
// evidence-count gate is a subquery inside the same statement; a concurrent
// upload can only make a stale count spuriously reject, never corrupt.
func (r *JobRepo) Submit(ctx context.Context, params core.SubmitJobParams) (bool, error) {
	now := r.timeProvider.Now().UTC()
	history, err := historyEntryJSON(model.StatusChange{
		Status:    model.JobStatusSubmitted,
		Timestamp: now,
		ActorID:   params.AppraiserID,
		Reason:    params.Notes,
	})
	if err != nil {
		return false, err
	}

	return r.execTransition(ctx, `
		UPDATE jobs
		SET status = 'SUBMITTED',
		    submitted_at = $3,
		    status_history = status_history || $4::jsonb,
		    updated_at = $3
		WHERE id = $1
		  AND status = 'IN_PROGRESS'
		  AND assigned_appraiser_id = $2
		  AND (SELECT count(*) FROM evidence WHERE job_id = $1) >= $5
	`, params.ID, params.AppraiserID, now, history, params.MinEvidence)
}

// Transition performs a generic From → To compare-and-swap. completedAt is
// stamped when the job completes; revision flag and required-photo list are
// overwritten only when the caller provides them.
func (r *JobRepo) Transition(ctx context.Context, params core.TransitionJobParams) (bool, error) {
	if !params.From.Valid() || !params.To.Valid() {
		return false, apperrors.Validationf("invalid status transition %s → %s", params.From, params.To)
	}

	now := r.timeProvider.Now().UTC()
	history, err := historyEntryJSON(model.StatusChange{
		Status:    params.To,
		Timestamp: now,
		ActorID:   params.ActorID,
		Reason:    params.Reason,
	})
	if err != nil {
		return false, err
	}

	var requiredPhotos []byte
	if params.RequiredPhotos != nil {
		requiredPhotos, err = encodeRequiredPhotos(params.RequiredPhotos)
		if err != nil {
			return false, err
		}
	}

	return r.execTransition(ctx, `
		UPDATE jobs
		SET status = $3,
		    completed_at = CASE WHEN $3 = 'COMPLETED' THEN $4::timestamptz ELSE completed_at END,
		    revision_requested = COALESCE($5, revision_requested),
		    required_photos = COALESCE($6::jsonb, required_photos),
		    status_history = status_history || $7::jsonb,
		    updated_at = $4
		WHERE id = $1 AND status = $2
	`, params.ID, params.From, params.To, now, params.RevisionRequested, requiredPhotos, history)
}

// Reassign sets or clears the assignee from any non-terminal status. The
// target status is derived from the assignment: an assignee means ACCEPTED,
// none means back to the DISPATCHED pool. Either way the in-flight episode
// timestamps are reset: unassigning clears acceptedAt and startedAt so the
// next accept stamps them fresh; assigning stamps acceptedAt for the new
// appraiser and clears startedAt. Jobs that were never dispatched have no
// SLA due date yet and cannot be reassigned into the active pool.
func (r *JobRepo) Reassign(ctx context.Context, params core.ReassignJobParams) (bool, error) {
	now := r.timeProvider.Now().UTC()

	target := model.JobStatusDispatched
	if params.AppraiserID != nil {
		target = model.JobStatusAccepted
	}
	reason := params.Reason
	history, err := historyEntryJSON(model.StatusChange{
		Status:    target,
		Timestamp: now,
		ActorID:   params.ActorID,
		Reason:    &reason,
	})
	if err != nil {
		return false, err
	}

	return r.execTransition(ctx, `
		UPDATE jobs
		SET status = $3,
		    assigned_appraiser_id = $2,
		    accepted_at = CASE WHEN $2::uuid IS NULL THEN NULL ELSE $5::timestamptz END,
		    started_at = NULL,
		    status_history = status_history || $4::jsonb,
		    updated_at = $5
		WHERE id = $1
		  AND status NOT IN ('PENDING_DISPATCH', 'COMPLETED', 'CANCELLED', 'FAILED')
	`, params.ID, params.AppraiserID, target, history, now)
}

// CountActive counts jobs in SLA-active statuses.
func (r *JobRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `
		SELECT count(*)
		FROM jobs
		WHERE status IN ('DISPATCHED', 'ACCEPTED', 'IN_PROGRESS', 'SUBMITTED')
	`).Scan(&count)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return count, nil
}

// ListOverdue returns jobs in SLA-active statuses whose due date passed.
func (r *JobRepo) ListOverdue(ctx context.Context, now time.Time) ([]*model.Job, error) {
	var jobs []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE status IN ('DISPATCHED', 'ACCEPTED', 'IN_PROGRESS', 'SUBMITTED')
			  AND sla_due_at IS NOT NULL
			  AND sla_due_at < $1
			ORDER BY sla_due_at ASC
		`, now.UTC())
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			job, scanErr := scanJobFromRow(rows)
			if scanErr != nil {
				return scanErr
			}
			jobs = append(jobs, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return jobs, nil
}

// execTransition runs one conditional UPDATE and reports whether a row moved.
func (r *JobRepo) execTransition(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func encodeRequiredPhotos(photos []string) ([]byte, error) {
	raw, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("encode required photos: %w", err)
	}
	return raw, nil
}
