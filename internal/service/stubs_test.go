package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rowhq/fieldproof/internal/core"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/ports"
)

// In-memory fakes mirroring the conditional-update semantics of the real
// repositories, so service tests exercise the same zero-rows-lost-race paths
// without a database.

type fakeJobRepo struct {
	mu            sync.Mutex
	jobs          map[string]*model.Job
	evidenceCount map[string]int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:          make(map[string]*model.Job),
		evidenceCount: make(map[string]int),
	}
}

func (f *fakeJobRepo) setEvidenceCount(jobID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evidenceCount[jobID] = n
}

func cloneJob(j *model.Job) *model.Job {
	out := *j
	out.StatusHistory = append(model.StatusHistory(nil), j.StatusHistory...)
	return &out
}

func (f *fakeJobRepo) Create(_ context.Context, params core.CreateJobParams) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	job := &model.Job{
		ID:                uuid.NewString(),
		OrganizationID:    params.Req.OrganizationID,
		PropertyID:        params.Req.PropertyID,
		Type:              params.Req.Type,
		Status:            model.JobStatusPendingDispatch,
		GeofenceRadiusM:   params.Req.GeofenceRadiusM,
		PayoutAmountCents: params.Req.PayoutAmountCents,
		StatusHistory: model.StatusHistory{
			{Status: model.JobStatusPendingDispatch, Timestamp: now, ActorID: params.ActorID},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.jobs[job.ID] = job
	return cloneJob(job), nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("Job not found.")
	}
	return cloneJob(job), nil
}

func (f *fakeJobRepo) Dispatch(_ context.Context, params core.DispatchJobParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[params.ID]
	if !ok || job.Status != model.JobStatusPendingDispatch {
		return false, nil
	}
	now := time.Now()
	job.Status = model.JobStatusDispatched
	job.DispatchedAt = &now
	due := params.SLADueAt
	job.SLADueAt = &due
	job.StatusHistory = job.StatusHistory.Appended(model.StatusChange{
		Status: model.JobStatusDispatched, Timestamp: now, ActorID: params.ActorID,
	})
	return true, nil
}

func (f *fakeJobRepo) Accept(_ context.Context, params core.AcceptJobParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[params.ID]
	if !ok || job.Status != model.JobStatusDispatched || job.AssignedAppraiserID != nil {
		return false, nil
	}
	now := time.Now()
	appraiserID := params.AppraiserID
	job.Status = model.JobStatusAccepted
	job.AssignedAppraiserID = &appraiserID
	job.AcceptedAt = &now
	job.StatusHistory = job.StatusHistory.Appended(model.StatusChange{
		Status: model.JobStatusAccepted, Timestamp: now, ActorID: appraiserID,
	})
	return true, nil
}

func (f *fakeJobRepo) Start(_ context.Context, params core.StartJobParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[params.ID]
	if !ok || job.Status != model.JobStatusAccepted || !job.IsAssignedTo(params.AppraiserID) {
		return false, nil
	}
	now := time.Now()
	job.Status = model.JobStatusInProgress
	job.StartedAt = &now
	job.GeofenceVerified = params.GeofenceVerified
	job.StatusHistory = job.StatusHistory.Appended(model.StatusChange{
		Status: model.JobStatusInProgress, Timestamp: now, ActorID: params.AppraiserID,
	})
	return true, nil
}

func (f *fakeJobRepo) Submit(_ context.Context, params core.SubmitJobParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[params.ID]
	if !ok || job.Status != model.JobStatusInProgress || !job.IsAssignedTo(params.AppraiserID) {
		return false, nil
	}
	if f.evidenceCount[params.ID] < params.MinEvidence {
		return false, nil
	}
	now := time.Now()
	job.Status = model.JobStatusSubmitted
	job.SubmittedAt = &now
	job.StatusHistory = job.StatusHistory.Appended(model.StatusChange{
		Status: model.JobStatusSubmitted, Timestamp: now, ActorID: params.AppraiserID, Reason: params.Notes,
	})
	return true, nil
}

func (f *fakeJobRepo) Transition(_ context.Context, params core.TransitionJobParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[params.ID]
	if !ok || job.Status != params.From {
		return false, nil
	}
	now := time.Now()
	job.Status = params.To
	if params.To == model.JobStatusCompleted {
		job.CompletedAt = &now
	}
	if params.RevisionRequested != nil {
		job.RevisionRequested = *params.RevisionRequested
	}
	if params.RequiredPhotos != nil {
		job.RequiredPhotos = params.RequiredPhotos
	}
	job.StatusHistory = job.StatusHistory.Appended(model.StatusChange{
		Status: params.To, Timestamp: now, ActorID: params.ActorID, Reason: params.Reason,
	})
	return true, nil
}

func (f *fakeJobRepo) Reassign(_ context.Context, params core.ReassignJobParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[params.ID]
	if !ok || job.Status.Terminal() || job.Status == model.JobStatusPendingDispatch {
		return false, nil
	}
	now := time.Now()
	target := model.JobStatusDispatched
	if params.AppraiserID != nil {
		target = model.JobStatusAccepted
	}
	job.Status = target
	job.AssignedAppraiserID = params.AppraiserID
	if params.AppraiserID == nil {
		job.AcceptedAt = nil
	} else {
		job.AcceptedAt = &now
	}
	job.StartedAt = nil
	reason := params.Reason
	job.StatusHistory = job.StatusHistory.Appended(model.StatusChange{
		Status: target, Timestamp: now, ActorID: params.ActorID, Reason: &reason,
	})
	return true, nil
}

func (f *fakeJobRepo) CountActive(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, job := range f.jobs {
		for _, status := range model.ActiveStatuses {
			if job.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeJobRepo) ListOverdue(_ context.Context, now time.Time) ([]*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Job
	for _, job := range f.jobs {
		if job.SLADueAt == nil || !job.SLADueAt.Before(now) {
			continue
		}
		for _, status := range model.ActiveStatuses {
			if job.Status == status {
				out = append(out, cloneJob(job))
				break
			}
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment
	batches  []*model.PayoutBatchResult

	// onListPending runs after a ListPending snapshot is taken, letting tests
	// interleave a concurrent pass between list and claim.
	onListPending func()
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*model.Payment)}
}

func clonePayment(p *model.Payment) *model.Payment {
	out := *p
	return &out
}

func (f *fakePaymentRepo) CreateJobPayout(_ context.Context, params core.CreateJobPayoutParams) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.payments {
		if p.RelatedJobID != nil && *p.RelatedJobID == params.JobID {
			return nil, apperrors.Conflict("A payout already exists for this job.")
		}
	}
	jobID := params.JobID
	payment := &model.Payment{
		ID:           uuid.NewString(),
		Type:         model.PaymentTypeJobPayout,
		AppraiserID:  params.AppraiserID,
		RelatedJobID: &jobID,
		AmountCents:  params.AmountCents,
		Status:       model.PayoutStatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.payments[payment.ID] = payment
	return clonePayment(payment), nil
}

func (f *fakePaymentRepo) GetByID(_ context.Context, id string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	payment, ok := f.payments[id]
	if !ok {
		return nil, apperrors.NotFound("Payment not found.")
	}
	return clonePayment(payment), nil
}

func (f *fakePaymentRepo) ListPending(_ context.Context, appraiserIDs []string) ([]*model.Payment, error) {
	f.mu.Lock()
	var out []*model.Payment
	for _, p := range f.payments {
		if p.Status != model.PayoutStatusPending {
			continue
		}
		if len(appraiserIDs) > 0 {
			match := false
			for _, id := range appraiserIDs {
				if p.AppraiserID == id {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, clonePayment(p))
	}
	hook := f.onListPending
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakePaymentRepo) moveStatus(ids []string, from, to model.PayoutStatus, mutate func(*model.Payment)) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	moved := 0
	for _, id := range ids {
		p, ok := f.payments[id]
		if !ok || p.Status != from {
			continue
		}
		p.Status = to
		p.UpdatedAt = time.Now()
		if mutate != nil {
			mutate(p)
		}
		moved++
	}
	return moved
}

func (f *fakePaymentRepo) MarkProcessing(_ context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var claimed []string
	for _, id := range ids {
		p, ok := f.payments[id]
		if !ok || p.Status != model.PayoutStatusPending {
			continue
		}
		p.Status = model.PayoutStatusProcessing
		p.UpdatedAt = time.Now()
		claimed = append(claimed, id)
	}
	return claimed, nil
}

func (f *fakePaymentRepo) MarkCompleted(_ context.Context, params core.CompletePaymentsParams) (int, error) {
	transferID := params.TransferID
	return f.moveStatus(params.IDs, model.PayoutStatusProcessing, model.PayoutStatusCompleted, func(p *model.Payment) {
		now := time.Now()
		p.StripeTransferID = &transferID
		p.CompletedAt = &now
	}), nil
}

func (f *fakePaymentRepo) MarkFailed(_ context.Context, params core.FailPaymentsParams) (int, error) {
	message := params.Message
	moved := f.moveStatus(params.IDs, model.PayoutStatusPending, model.PayoutStatusFailed, func(p *model.Payment) {
		p.StatusMessage = &message
	})
	moved += f.moveStatus(params.IDs, model.PayoutStatusProcessing, model.PayoutStatusFailed, func(p *model.Payment) {
		p.StatusMessage = &message
	})
	return moved, nil
}

func (f *fakePaymentRepo) RetryFailed(_ context.Context, id string, actorID string) (bool, error) {
	message := "Retry requested by " + actorID
	moved := f.moveStatus([]string{id}, model.PayoutStatusFailed, model.PayoutStatusPending, func(p *model.Payment) {
		p.StatusMessage = &message
	})
	return moved == 1, nil
}

func (f *fakePaymentRepo) SweepStale(_ context.Context, cutoff time.Time, message string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var swept int64
	for _, p := range f.payments {
		if p.Status == model.PayoutStatusProcessing && p.UpdatedAt.Before(cutoff) {
			p.Status = model.PayoutStatusFailed
			msg := message
			p.StatusMessage = &msg
			swept++
		}
	}
	return swept, nil
}

func (f *fakePaymentRepo) RecordBatch(_ context.Context, result *model.PayoutBatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches = append(f.batches, result)
	return nil
}

type fakeAppraiserRepo struct {
	mu         sync.Mutex
	appraisers map[string]*model.Appraiser
}

func newFakeAppraiserRepo() *fakeAppraiserRepo {
	return &fakeAppraiserRepo{appraisers: make(map[string]*model.Appraiser)}
}

func (f *fakeAppraiserRepo) add(a *model.Appraiser) *model.Appraiser {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	f.appraisers[a.ID] = a
	return a
}

func (f *fakeAppraiserRepo) GetByID(_ context.Context, id string) (*model.Appraiser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appraisers[id]
	if !ok {
		return nil, apperrors.NotFound("Appraiser not found.")
	}
	out := *a
	return &out, nil
}

func (f *fakeAppraiserRepo) GetByUserID(_ context.Context, userID string) (*model.Appraiser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.appraisers {
		if a.UserID == userID {
			out := *a
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("Appraiser not found.")
}

type fakePropertyRepo struct {
	mu         sync.Mutex
	properties map[string]*model.Property
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{properties: make(map[string]*model.Property)}
}

func (f *fakePropertyRepo) add(p *model.Property) *model.Property {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	f.properties[p.ID] = p
	return p
}

func (f *fakePropertyRepo) GetByID(_ context.Context, id string) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.properties[id]
	if !ok {
		return nil, apperrors.NotFound("Property not found.")
	}
	out := *p
	return &out, nil
}

type fakeEvidenceRepo struct {
	mu       sync.Mutex
	evidence map[string]*model.Evidence
}

func newFakeEvidenceRepo() *fakeEvidenceRepo {
	return &fakeEvidenceRepo{evidence: make(map[string]*model.Evidence)}
}

func (f *fakeEvidenceRepo) Create(_ context.Context, ev *model.Evidence) (*model.Evidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := *ev
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now()
	f.evidence[out.ID] = &out
	copied := out
	return &copied, nil
}

func (f *fakeEvidenceRepo) GetByID(_ context.Context, id string) (*model.Evidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev, ok := f.evidence[id]
	if !ok {
		return nil, apperrors.NotFound("Evidence not found.")
	}
	out := *ev
	return &out, nil
}

func (f *fakeEvidenceRepo) ListByJob(_ context.Context, jobID string) ([]*model.Evidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Evidence
	for _, ev := range f.evidence {
		if ev.JobID == jobID {
			copied := *ev
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeEvidenceRepo) CountByJob(_ context.Context, jobID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, ev := range f.evidence {
		if ev.JobID == jobID {
			count++
		}
	}
	return count, nil
}

func (f *fakeEvidenceRepo) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.evidence[id]; !ok {
		return false, nil
	}
	delete(f.evidence, id)
	return true, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (f *fakeStorage) GetUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (ports.UploadSlot, error) {
	return ports.UploadSlot{
		UploadURL: "https://storage.test/upload/" + key,
		PublicURL: "https://storage.test/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}

func (f *fakeStorage) GetDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + key, nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) GetPublicURL(key string) string {
	return "https://storage.test/" + key
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNotifier) NotifyNewJob(_ context.Context, job *model.Job, _ float64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	f.calls = append(f.calls, job.ID)
	return 3, nil
}

func (f *fakeNotifier) notifiedJobs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func adminSession() domainauth.Session {
	return domainauth.Session{ID: "sess-admin", UserID: "admin-1", Role: domainauth.RoleAdmin}
}

func appraiserSession(appraiserID string) domainauth.Session {
	return domainauth.Session{
		ID:          "sess-" + appraiserID,
		UserID:      "user-" + appraiserID,
		Role:        domainauth.RoleAppraiser,
		AppraiserID: appraiserID,
	}
}
