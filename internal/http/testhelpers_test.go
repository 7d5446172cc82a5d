package httpx

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rowhq/fieldproof/internal/core"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAuthService implements AuthServiceInterface over a fixed session table,
// so router tests can authenticate with a plain cookie value.
type stubAuthService struct {
	sessions map[string]domainauth.Session
}

func newStubAuthService(sessions ...domainauth.Session) *stubAuthService {
	s := &stubAuthService{sessions: map[string]domainauth.Session{}}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	return s
}

func (s *stubAuthService) BeginLogin(_ context.Context, _ string) (*service.BeginLoginResult, error) {
	return &service.BeginLoginResult{AuthURL: "https://idp.example/auth", State: "state-1", Nonce: "nonce-1"}, nil
}

func (s *stubAuthService) CompleteLogin(_ context.Context, _ service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	sess := domainauth.Session{
		ID: "completed-session", UserID: "user-1", Role: domainauth.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return &service.CompleteLoginResult{Session: sess}, nil
}

func (s *stubAuthService) GetSession(_ context.Context, sessionID string) (*domainauth.Session, error) {
	if sess, ok := s.sessions[sessionID]; ok {
		return &sess, nil
	}
	return nil, apperrors.NotFound("session not found")
}

func (s *stubAuthService) Logout(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

// memJobRepo is a minimal in-memory core.JobRepository for router tests. It
// honors the conditional-update contract: a mutation whose precondition fails
// reports zero rows moved.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]*model.Job{}}
}

func (r *memJobRepo) put(job *model.Job) *model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return job
}

func (r *memJobRepo) Create(_ context.Context, params core.CreateJobParams) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := &model.Job{
		ID:                uuid.NewString(),
		OrganizationID:    params.Req.OrganizationID,
		PropertyID:        params.Req.PropertyID,
		Type:              params.Req.Type,
		Status:            model.JobStatusPendingDispatch,
		GeofenceRadiusM:   params.Req.GeofenceRadiusM,
		PayoutAmountCents: params.Req.PayoutAmountCents,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	r.jobs[job.ID] = job
	return job, nil
}

func (r *memJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("Job not found.")
	}
	clone := *job
	return &clone, nil
}

func (r *memJobRepo) Dispatch(_ context.Context, params core.DispatchJobParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok || job.Status != model.JobStatusPendingDispatch {
		return false, nil
	}
	now := time.Now()
	job.Status = model.JobStatusDispatched
	job.DispatchedAt = &now
	job.SLADueAt = &params.SLADueAt
	return true, nil
}

func (r *memJobRepo) Accept(_ context.Context, params core.AcceptJobParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok || job.Status != model.JobStatusDispatched || job.Assigned() {
		return false, nil
	}
	now := time.Now()
	job.Status = model.JobStatusAccepted
	job.AssignedAppraiserID = &params.AppraiserID
	job.AcceptedAt = &now
	return true, nil
}

func (r *memJobRepo) Start(_ context.Context, params core.StartJobParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok || job.Status != model.JobStatusAccepted || !job.IsAssignedTo(params.AppraiserID) {
		return false, nil
	}
	now := time.Now()
	job.Status = model.JobStatusInProgress
	job.StartedAt = &now
	job.GeofenceVerified = params.GeofenceVerified
	return true, nil
}

func (r *memJobRepo) Submit(_ context.Context, params core.SubmitJobParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok || job.Status != model.JobStatusInProgress || !job.IsAssignedTo(params.AppraiserID) {
		return false, nil
	}
	now := time.Now()
	job.Status = model.JobStatusSubmitted
	job.SubmittedAt = &now
	return true, nil
}

func (r *memJobRepo) Transition(_ context.Context, params core.TransitionJobParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok || job.Status != params.From {
		return false, nil
	}
	job.Status = params.To
	if params.RevisionRequested != nil {
		job.RevisionRequested = *params.RevisionRequested
	}
	if params.To == model.JobStatusCompleted {
		now := time.Now()
		job.CompletedAt = &now
	}
	return true, nil
}

func (r *memJobRepo) Reassign(_ context.Context, params core.ReassignJobParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok || job.Status.Terminal() {
		return false, nil
	}
	job.AssignedAppraiserID = params.AppraiserID
	return true, nil
}

func (r *memJobRepo) CountActive(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, job := range r.jobs {
		if !job.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (r *memJobRepo) ListOverdue(_ context.Context, now time.Time) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var overdue []*model.Job
	for _, job := range r.jobs {
		if !job.Status.Terminal() && job.SLADueAt != nil && job.SLADueAt.Before(now) {
			clone := *job
			overdue = append(overdue, &clone)
		}
	}
	return overdue, nil
}

// memAppraiserRepo is a fixed-table core.AppraiserRepository.
type memAppraiserRepo struct {
	byID map[string]*model.Appraiser
}

func (r *memAppraiserRepo) GetByID(_ context.Context, id string) (*model.Appraiser, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, apperrors.NotFound("Appraiser not found.")
}

func (r *memAppraiserRepo) GetByUserID(_ context.Context, userID string) (*model.Appraiser, error) {
	for _, a := range r.byID {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, apperrors.NotFound("Appraiser not found.")
}

// memPaymentRepo is a core.PaymentRepository that records created payouts.
// Router tests only exercise payout creation on approval.
type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: map[string]*model.Payment{}}
}

func (r *memPaymentRepo) CreateJobPayout(_ context.Context, params core.CreateJobPayoutParams) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.RelatedJobID != nil && *p.RelatedJobID == params.JobID {
			return nil, apperrors.Conflict("A payout already exists for this job.")
		}
	}
	payment := &model.Payment{
		ID:           uuid.NewString(),
		AppraiserID:  params.AppraiserID,
		RelatedJobID: &params.JobID,
		AmountCents:  params.AmountCents,
		Status:       model.PayoutStatusPending,
	}
	r.payments[payment.ID] = payment
	return payment, nil
}

func (r *memPaymentRepo) GetByID(_ context.Context, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("Payment not found.")
}

func (r *memPaymentRepo) ListPending(_ context.Context, _ []string) ([]*model.Payment, error) {
	return nil, nil
}

func (r *memPaymentRepo) MarkProcessing(_ context.Context, ids []string) ([]string, error) {
	return ids, nil
}

func (r *memPaymentRepo) MarkCompleted(_ context.Context, params core.CompletePaymentsParams) (int, error) {
	return len(params.IDs), nil
}

func (r *memPaymentRepo) MarkFailed(_ context.Context, params core.FailPaymentsParams) (int, error) {
	return len(params.IDs), nil
}

func (r *memPaymentRepo) RetryFailed(_ context.Context, _ string, _ string) (bool, error) {
	return false, nil
}

func (r *memPaymentRepo) SweepStale(_ context.Context, _ time.Time, _ string) (int64, error) {
	return 0, nil
}

func (r *memPaymentRepo) RecordBatch(_ context.Context, _ *model.PayoutBatchResult) error {
	return nil
}

// memPropertyRepo is a fixed-table core.PropertyRepository.
type memPropertyRepo struct {
	byID map[string]*model.Property
}

func (r *memPropertyRepo) GetByID(_ context.Context, id string) (*model.Property, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("Property not found.")
}
