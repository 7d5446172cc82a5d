package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rowhq/fieldproof/internal/core"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/geo"
	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/domain/sla"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/ports"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Jobs              core.JobRepository       // Required: job repository
	Appraisers        core.AppraiserRepository // Required: appraiser lookups for accept/reassign guards
	Properties        core.PropertyRepository  // Required: property lookups for geofence checks
	Payments          core.PaymentRepository   // Required: payout creation on approval
	SLAPolicy         *sla.Policy              // Required: due-date policy applied at dispatch
	MinEvidence       int                      // Required: evidence rows needed before submit
	Notifier          ports.AppraiserNotifier  // Optional: fire-and-forget dispatch announcements
	NotifyRadiusMiles float64                  // Optional: notification radius, defaults to 50
	Logger            *slog.Logger             // Optional: structured logger
	Now               func() time.Time         // Optional: clock override for tests
}

// JobService enforces the job lifecycle: the transition table, assignment
// rules, the geofence check at start, the evidence gate at submit, review
// outcomes, and payout creation on approval.
type JobService struct {
	jobs              core.JobRepository
	appraisers        core.AppraiserRepository
	properties        core.PropertyRepository
	payments          core.PaymentRepository
	slaPolicy         *sla.Policy
	minEvidence       int
	notifier          ports.AppraiserNotifier
	notifyRadiusMiles float64
	logger            *slog.Logger
	now               func() time.Time
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Appraisers == nil {
		return nil, errors.New("AppraiserRepository is required")
	}
	if opts.Properties == nil {
		return nil, errors.New("PropertyRepository is required")
	}
	if opts.Payments == nil {
		return nil, errors.New("PaymentRepository is required")
	}
	if opts.SLAPolicy == nil {
		return nil, errors.New("SLA policy is required")
	}
	if opts.MinEvidence <= 0 {
		return nil, errors.New("MinEvidence must be positive")
	}

	radius := opts.NotifyRadiusMiles
	if radius <= 0 {
		radius = 50
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		jobs:              opts.Jobs,
		appraisers:        opts.Appraisers,
		properties:        opts.Properties,
		payments:          opts.Payments,
		slaPolicy:         opts.SLAPolicy,
		minEvidence:       opts.MinEvidence,
		notifier:          opts.Notifier,
		notifyRadiusMiles: radius,
		logger:            logger,
		now:               now,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Get returns one job. Appraisers may only see jobs assigned to them or still
// open for acceptance.
func (s *JobService) Get(ctx context.Context, sess domainauth.Session, id string) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.IsAdmin() {
		return job, nil
	}
	if sess.IsAppraiser() && (job.IsAssignedTo(sess.AppraiserID) || job.Status == model.JobStatusDispatched) {
		return job, nil
	}
	return nil, apperrors.Forbidden("You do not have access to this job.")
}

// Create creates a new job in PENDING_DISPATCH. Admin only.
func (s *JobService) Create(ctx context.Context, sess domainauth.Session, req *model.CreateJobRequest) (*model.Job, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}

	// The property must exist before work can be dispatched against it.
	if _, err := s.properties.GetByID(ctx, req.PropertyID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ValidationField("property_id", "Property not found.")
		}
		return nil, err
	}

	job, err := s.jobs.Create(ctx, core.CreateJobParams{Req: req, ActorID: sess.UserID})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job created",
			"job_id", job.ID,
			"type", job.Type,
			"property_id", job.PropertyID,
		)
	}
	return job, nil
}

// Dispatch makes the job visible to appraisers, stamping the SLA due date
// exactly once from the per-type policy. Appraiser notification is
// fire-and-forget: a failure is logged, never fatal to the dispatch.
func (s *JobService) Dispatch(ctx context.Context, sess domainauth.Session, id string) (*model.Job, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dueAt := s.slaPolicy.DueAt(job.Type, s.now())
	moved, err := s.jobs.Dispatch(ctx, core.DispatchJobParams{
		ID:       id,
		ActorID:  sess.UserID,
		SLADueAt: dueAt,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.transitionFailure(ctx, id, model.JobStatusDispatched)
	}

	job, err = s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go s.notifyDispatched(job)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job dispatched",
			"job_id", job.ID,
			"sla_due_at", dueAt,
		)
	}
	return job, nil
}

func (s *JobService) notifyDispatched(job *model.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notified, err := s.notifier.NotifyNewJob(ctx, job, s.notifyRadiusMiles)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "appraiser notification failed",
				"job_id", job.ID,
				"error", err,
			)
		}
		return
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "appraisers notified",
			"job_id", job.ID,
			"notified", notified,
		)
	}
}

// Accept claims a dispatched job for the calling appraiser. Under concurrent
// accepts exactly one caller wins; the rest get Conflict.
func (s *JobService) Accept(ctx context.Context, sess domainauth.Session, id string) (*model.Job, error) {
	if err := requireAppraiser(sess); err != nil {
		return nil, err
	}

	appraiser, err := s.appraisers.GetByID(ctx, sess.AppraiserID)
	if err != nil {
		return nil, err
	}
	if !appraiser.Verified() {
		return nil, apperrors.Forbidden("Only verified appraisers can accept jobs.")
	}

	moved, err := s.jobs.Accept(ctx, core.AcceptJobParams{ID: id, AppraiserID: appraiser.ID})
	if err != nil {
		return nil, err
	}
	if !moved {
		job, getErr := s.jobs.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if job.Status == model.JobStatusDispatched || job.Status == model.JobStatusAccepted {
			// The job was (or is being) claimed by someone else.
			return nil, apperrors.Conflict("This job has already been accepted.")
		}
		return nil, apperrors.InvalidTransition(string(job.Status), string(model.JobStatusAccepted),
			"Job can no longer be accepted.")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job accepted",
			"job_id", id,
			"appraiser_id", appraiser.ID,
		)
	}
	return s.jobs.GetByID(ctx, id)
}

// Start begins the on-site inspection. The geofence check compares the
// reported device location against the property coordinates; failing it does
// not block the start, it only records geofence_verified=false as a trust
// signal for reviewers.
func (s *JobService) Start(ctx context.Context, sess domainauth.Session, id string, req *model.StartJobRequest) (*model.Job, error) {
	if err := requireAppraiser(sess); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("start request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.IsAssignedTo(sess.AppraiserID) {
		return nil, apperrors.Forbidden("Job is not assigned to you.")
	}

	verified := false
	property, err := s.properties.GetByID(ctx, job.PropertyID)
	switch {
	case err == nil && property.HasCoordinates() && job.GeofenceRadiusM > 0:
		result := geo.WithinRadius(*property.Latitude, *property.Longitude, req.Latitude, req.Longitude, job.GeofenceRadiusM)
		verified = result.Within
		if !verified && s.logger != nil {
			s.logger.WarnContext(ctx, "geofence check failed",
				"job_id", id,
				"distance_miles", result.DistanceMiles,
				"radius_m", job.GeofenceRadiusM,
			)
		}
	case err != nil && !apperrors.IsNotFound(err):
		return nil, err
	}

	moved, err := s.jobs.Start(ctx, core.StartJobParams{
		ID:               id,
		AppraiserID:      sess.AppraiserID,
		GeofenceVerified: verified,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.transitionFailure(ctx, id, model.JobStatusInProgress)
	}
	return s.jobs.GetByID(ctx, id)
}

// Submit hands the finished work in for review. The evidence-count gate is
// enforced atomically with the status move.
func (s *JobService) Submit(ctx context.Context, sess domainauth.Session, id string, notes *string) (*model.Job, error) {
	if err := requireAppraiser(sess); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.IsAssignedTo(sess.AppraiserID) {
		return nil, apperrors.Forbidden("Job is not assigned to you.")
	}

	moved, err := s.jobs.Submit(ctx, core.SubmitJobParams{
		ID:          id,
		AppraiserID: sess.AppraiserID,
		MinEvidence: s.minEvidence,
		Notes:       notes,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		current, getErr := s.jobs.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == model.JobStatusInProgress {
			return nil, apperrors.InvalidTransition(string(current.Status), string(model.JobStatusSubmitted),
				fmt.Sprintf("Minimum %d evidence items required.", s.minEvidence))
		}
		return nil, apperrors.InvalidTransition(string(current.Status), string(model.JobStatusSubmitted),
			"Job cannot be submitted from its current status.")
	}
	return s.jobs.GetByID(ctx, id)
}

// StartReview moves a submitted job into UNDER_REVIEW. Admin only.
func (s *JobService) StartReview(ctx context.Context, sess domainauth.Session, id string) (*model.Job, error) {
	return s.adminTransition(ctx, sess, adminTransitionParams{
		ID: id,
		To: model.JobStatusUnderReview,
	})
}

// Approve completes the job and creates the pending payout record for the
// assigned appraiser. The payout is created exactly once per job.
func (s *JobService) Approve(ctx context.Context, sess domainauth.Session, id string, req *model.ReviewDecisionRequest) (*model.Job, error) {
	var reason *string
	if req != nil && req.Notes != "" {
		reason = &req.Notes
	}
	falseVal := false
	job, err := s.adminTransition(ctx, sess, adminTransitionParams{
		ID:                id,
		To:                model.JobStatusCompleted,
		Reason:            reason,
		RevisionRequested: &falseVal,
	})
	if err != nil {
		return nil, err
	}

	if err := s.createPayout(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobService) createPayout(ctx context.Context, job *model.Job) error {
	if job.PayoutAmountCents <= 0 || !job.Assigned() {
		return nil
	}

	_, err := s.payments.CreateJobPayout(ctx, core.CreateJobPayoutParams{
		JobID:       job.ID,
		AppraiserID: *job.AssignedAppraiserID,
		AmountCents: job.PayoutAmountCents,
	})
	if apperrors.IsConflict(err) {
		// A payout already exists for this job; keep the original.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "payout already exists", "job_id", job.ID)
		}
		return nil
	}
	return err
}

// Reject fails the job. Admin only; a reason is required.
func (s *JobService) Reject(ctx context.Context, sess domainauth.Session, id string, req *model.ReviewDecisionRequest) (*model.Job, error) {
	if req == nil || req.Reason == "" {
		return nil, apperrors.ValidationField("reason", "A rejection reason is required.")
	}
	return s.adminTransition(ctx, sess, adminTransitionParams{
		ID:     id,
		To:     model.JobStatusFailed,
		Reason: &req.Reason,
	})
}

// RequestRevision sends the job back to the appraiser with an optional list
// of photo categories to redo.
func (s *JobService) RequestRevision(ctx context.Context, sess domainauth.Session, id string, req *model.ReviewDecisionRequest) (*model.Job, error) {
	if req == nil || req.Reason == "" {
		return nil, apperrors.ValidationField("reason", "A revision reason is required.")
	}
	trueVal := true
	return s.adminTransition(ctx, sess, adminTransitionParams{
		ID:                id,
		To:                model.JobStatusInProgress,
		Reason:            &req.Reason,
		RevisionRequested: &trueVal,
		RequiredPhotos:    req.RequiredPhotos,
	})
}

// Cancel cancels the job from any non-terminal status. Admin only.
func (s *JobService) Cancel(ctx context.Context, sess domainauth.Session, id string, reason string) (*model.Job, error) {
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	return s.adminTransition(ctx, sess, adminTransitionParams{
		ID:     id,
		To:     model.JobStatusCancelled,
		Reason: reasonPtr,
	})
}

// Reassign assigns the job to another verified appraiser, or back to the
// DISPATCHED pool when AppraiserID is nil.
func (s *JobService) Reassign(ctx context.Context, sess domainauth.Session, id string, req *model.ReassignJobRequest) (*model.Job, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if req == nil || req.Reason == "" {
		return nil, apperrors.ValidationField("reason", "A reassignment reason is required.")
	}

	if req.AppraiserID != nil {
		appraiser, err := s.appraisers.GetByID(ctx, *req.AppraiserID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.ValidationField("appraiser_id", "Appraiser not found.")
			}
			return nil, err
		}
		if !appraiser.Verified() {
			return nil, apperrors.ValidationField("appraiser_id", "Appraiser is not verified.")
		}
	}

	moved, err := s.jobs.Reassign(ctx, core.ReassignJobParams{
		ID:          id,
		AppraiserID: req.AppraiserID,
		ActorID:     sess.UserID,
		Reason:      req.Reason,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		job, getErr := s.jobs.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		target := model.JobStatusDispatched
		if req.AppraiserID != nil {
			target = model.JobStatusAccepted
		}
		return nil, apperrors.InvalidTransition(string(job.Status), string(target),
			"Only dispatched, non-terminal jobs can be reassigned.")
	}
	return s.jobs.GetByID(ctx, id)
}

// BulkCancel cancels many jobs; one item's failure is recorded and skipped,
// never aborting the rest of the batch.
func (s *JobService) BulkCancel(ctx context.Context, sess domainauth.Session, req *model.BulkJobRequest) (*model.BulkJobResult, error) {
	return s.bulk(ctx, sess, req, func(ctx context.Context, id string) error {
		_, err := s.Cancel(ctx, sess, id, req.Reason)
		return err
	})
}

// BulkApprove approves many jobs with the same per-item failure isolation.
func (s *JobService) BulkApprove(ctx context.Context, sess domainauth.Session, req *model.BulkJobRequest) (*model.BulkJobResult, error) {
	return s.bulk(ctx, sess, req, func(ctx context.Context, id string) error {
		_, err := s.Approve(ctx, sess, id, &model.ReviewDecisionRequest{Notes: req.Notes})
		return err
	})
}

func (s *JobService) bulk(
	ctx context.Context,
	sess domainauth.Session,
	req *model.BulkJobRequest,
	op func(ctx context.Context, id string) error,
) (*model.BulkJobResult, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("bulk request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	result := &model.BulkJobResult{Items: make([]model.BulkJobItemResult, 0, len(req.JobIDs))}
	for _, id := range req.JobIDs {
		item := model.BulkJobItemResult{JobID: id, OK: true}
		if err := op(ctx, id); err != nil {
			item.OK = false
			item.Error = err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

type adminTransitionParams struct {
	ID                string
	To                model.JobStatus
	Reason            *string
	RevisionRequested *bool
	RequiredPhotos    []string
}

// adminTransition loads the job, checks the transition table against its
// current status, and performs the compare-and-swap from exactly that status,
// so a concurrent move surfaces as a transition error instead of silently
// overwriting someone else's write.
func (s *JobService) adminTransition(ctx context.Context, sess domainauth.Session, params adminTransitionParams) (*model.Job, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransitionTo(params.To) {
		return nil, apperrors.InvalidTransition(string(job.Status), string(params.To),
			fmt.Sprintf("Cannot move job from %s to %s.", job.Status, params.To))
	}

	moved, err := s.jobs.Transition(ctx, core.TransitionJobParams{
		ID:                params.ID,
		From:              job.Status,
		To:                params.To,
		ActorID:           sess.UserID,
		Reason:            params.Reason,
		RevisionRequested: params.RevisionRequested,
		RequiredPhotos:    params.RequiredPhotos,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.transitionFailure(ctx, params.ID, params.To)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job transitioned",
			"job_id", params.ID,
			"to", params.To,
			"actor", sess.UserID,
		)
	}
	return s.jobs.GetByID(ctx, params.ID)
}

// transitionFailure diagnoses a zero-row conditional update: the job either
// vanished or moved concurrently.
func (s *JobService) transitionFailure(ctx context.Context, id string, to model.JobStatus) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.InvalidTransition(string(job.Status), string(to),
		fmt.Sprintf("Cannot move job from %s to %s.", job.Status, to))
}
