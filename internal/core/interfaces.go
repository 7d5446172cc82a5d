package core

import (
	"context"
	"time"

	"github.com/rowhq/fieldproof/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// CreateJobParams groups parameters for JobRepository.Create.
type CreateJobParams struct {
	Req     *model.CreateJobRequest
	ActorID string
}

// DispatchJobParams groups parameters for JobRepository.Dispatch.
type DispatchJobParams struct {
	ID       string
	ActorID  string
	SLADueAt time.Time
}

// AcceptJobParams groups parameters for JobRepository.Accept.
type AcceptJobParams struct {
	ID          string
	AppraiserID string
}

// StartJobParams groups parameters for JobRepository.Start.
type StartJobParams struct {
	ID               string
	AppraiserID      string
	GeofenceVerified bool
}

// SubmitJobParams groups parameters for JobRepository.Submit.
type SubmitJobParams struct {
	ID          string
	AppraiserID string
	MinEvidence int
	Notes       *string
}

// TransitionJobParams groups parameters for the generic compare-and-swap
// transition used by review, approve, reject, revision and cancel.
type TransitionJobParams struct {
	ID      string
	From    model.JobStatus
	To      model.JobStatus
	ActorID string
	Reason  *string
	// RevisionRequested, when non-nil, overwrites the job's flag.
	RevisionRequested *bool
	// RequiredPhotos, when non-nil, replaces the job's required photo list.
	RequiredPhotos []string
}

// ReassignJobParams groups parameters for JobRepository.Reassign.
// A nil AppraiserID unassigns the job back to DISPATCHED.
type ReassignJobParams struct {
	ID          string
	AppraiserID *string
	ActorID     string
	Reason      string
}

// JobRepository defines the interface for job data operations. Every mutating
// operation is a single conditional UPDATE keyed on the expected current
// status; zero rows affected (false) means the caller lost the race or the
// precondition does not hold, and status plus history are untouched.
type JobRepository interface {
	Create(ctx context.Context, params CreateJobParams) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)

	// Dispatch moves PENDING_DISPATCH → DISPATCHED, stamping dispatchedAt and
	// the SLA due date exactly once.
	Dispatch(ctx context.Context, params DispatchJobParams) (bool, error)

	// Accept moves DISPATCHED → ACCEPTED only while no appraiser is assigned,
	// so exactly one of any concurrent accept attempts wins.
	Accept(ctx context.Context, params AcceptJobParams) (bool, error)

	// Start moves ACCEPTED → IN_PROGRESS for the assigned appraiser, stamping
	// startedAt and the geofence outcome.
	Start(ctx context.Context, params StartJobParams) (bool, error)

	// Submit moves IN_PROGRESS → SUBMITTED for the assigned appraiser only if
	// the job has at least MinEvidence evidence rows, counted inside the same
	// statement.
	Submit(ctx context.Context, params SubmitJobParams) (bool, error)

	// Transition performs a generic From → To compare-and-swap, stamping
	// completedAt when To is terminal COMPLETED.
	Transition(ctx context.Context, params TransitionJobParams) (bool, error)

	// Reassign sets or clears the assignee from any non-terminal status.
	Reassign(ctx context.Context, params ReassignJobParams) (bool, error)

	// CountActive counts jobs in SLA-active statuses.
	CountActive(ctx context.Context) (int, error)

	// ListOverdue returns jobs in SLA-active statuses whose due date is
	// before the given instant.
	ListOverdue(ctx context.Context, now time.Time) ([]*model.Job, error)
}

// EvidenceRepository defines the interface for evidence data operations.
type EvidenceRepository interface {
	Create(ctx context.Context, ev *model.Evidence) (*model.Evidence, error)
	GetByID(ctx context.Context, id string) (*model.Evidence, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Evidence, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateJobPayoutParams groups parameters for PaymentRepository.CreateJobPayout.
type CreateJobPayoutParams struct {
	JobID       string
	AppraiserID string
	AmountCents int64
}

// CompletePaymentsParams groups parameters for PaymentRepository.MarkCompleted.
type CompletePaymentsParams struct {
	IDs        []string
	TransferID string
}

// FailPaymentsParams groups parameters for PaymentRepository.MarkFailed.
type FailPaymentsParams struct {
	IDs     []string
	Message string
}

// PaymentRepository defines the interface for payout data operations. Status
// moves are guarded updates (WHERE status = expected) so concurrent
// reconciliation passes cannot double-settle; the row count tells the caller
// how many rows actually moved.
type PaymentRepository interface {
	// CreateJobPayout inserts the PENDING payout for a completed job. At most
	// one payout may exist per job; a second insert returns Conflict.
	CreateJobPayout(ctx context.Context, params CreateJobPayoutParams) (*model.Payment, error)

	GetByID(ctx context.Context, id string) (*model.Payment, error)

	// ListPending returns PENDING payouts, optionally narrowed to appraisers.
	ListPending(ctx context.Context, appraiserIDs []string) ([]*model.Payment, error)

	// MarkProcessing moves PENDING → PROCESSING and returns the ids actually
	// claimed; rows another pass already claimed are absent from the result.
	MarkProcessing(ctx context.Context, ids []string) ([]string, error)

	// MarkCompleted moves PROCESSING → COMPLETED, storing the transfer id and
	// completion timestamp.
	MarkCompleted(ctx context.Context, params CompletePaymentsParams) (int, error)

	// MarkFailed moves PENDING or PROCESSING → FAILED with the gateway's message.
	MarkFailed(ctx context.Context, params FailPaymentsParams) (int, error)

	// RetryFailed is the audited manual FAILED → PENDING exception.
	RetryFailed(ctx context.Context, id string, actorID string) (bool, error)

	// SweepStale fails PROCESSING payouts whose last update is older than the
	// cutoff, so a crashed pass never leaves payouts ambiguous forever.
	SweepStale(ctx context.Context, cutoff time.Time, message string) (int64, error)

	// RecordBatch persists the audit summary of one reconciliation pass.
	RecordBatch(ctx context.Context, result *model.PayoutBatchResult) error
}

// AppraiserRepository defines the interface for appraiser profile lookups.
type AppraiserRepository interface {
	GetByID(ctx context.Context, id string) (*model.Appraiser, error)
	GetByUserID(ctx context.Context, userID string) (*model.Appraiser, error)
}

// PropertyRepository defines the interface for property lookups.
type PropertyRepository interface {
	GetByID(ctx context.Context, id string) (*model.Property, error)
}
