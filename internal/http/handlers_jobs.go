// Package httpx provides HTTP handlers and utilities for the fieldproof job lifecycle API.
package httpx

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/service"
)

// JobHandlers provides HTTP handlers for job lifecycle operations.
type JobHandlers struct {
	Svc *service.JobService
}

// jobID extracts the {id} path value, writing a 400 when absent.
func jobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return "", false
	}
	return id, true
}

// Get handles GET /api/jobs/{id}.
func (h *JobHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	job, err := h.Svc.Get(r.Context(), sessionOrGuest(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Create handles POST /api/jobs.
func (h *JobHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Create(r.Context(), sessionOrGuest(r.Context()), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// Dispatch handles POST /api/jobs/{id}/dispatch.
func (h *JobHandlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Dispatch)
}

// Accept handles POST /api/jobs/{id}/accept.
func (h *JobHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Accept)
}

// StartReview handles POST /api/jobs/{id}/review.
func (h *JobHandlers) StartReview(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.StartReview)
}

// Start handles POST /api/jobs/{id}/start with the appraiser's reported coordinates.
func (h *JobHandlers) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var req model.StartJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Start(r.Context(), sessionOrGuest(r.Context()), id, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Submit handles POST /api/jobs/{id}/submit.
func (h *JobHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var body struct {
		Notes *string `json:"notes,omitempty"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	job, err := h.Svc.Submit(r.Context(), sessionOrGuest(r.Context()), id, body.Notes)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Approve handles POST /api/jobs/{id}/approve.
func (h *JobHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	h.reviewDecision(w, r, h.Svc.Approve)
}

// Reject handles POST /api/jobs/{id}/reject.
func (h *JobHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.reviewDecision(w, r, h.Svc.Reject)
}

// RequestRevision handles POST /api/jobs/{id}/request-revision.
func (h *JobHandlers) RequestRevision(w http.ResponseWriter, r *http.Request) {
	h.reviewDecision(w, r, h.Svc.RequestRevision)
}

// Cancel handles POST /api/jobs/{id}/cancel.
func (h *JobHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason,omitempty"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	job, err := h.Svc.Cancel(r.Context(), sessionOrGuest(r.Context()), id, body.Reason)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Reassign handles POST /api/jobs/{id}/reassign.
func (h *JobHandlers) Reassign(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var req model.ReassignJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Reassign(r.Context(), sessionOrGuest(r.Context()), id, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// BulkCancel handles POST /api/jobs/bulk-cancel.
func (h *JobHandlers) BulkCancel(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Svc.BulkCancel)
}

// BulkApprove handles POST /api/jobs/bulk-approve.
func (h *JobHandlers) BulkApprove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Svc.BulkApprove)
}

type transitionFunc = func(ctx context.Context, sess domainauth.Session, id string) (*model.Job, error)

func (h *JobHandlers) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	job, err := fn(r.Context(), sessionOrGuest(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

type reviewDecisionFunc = func(ctx context.Context, sess domainauth.Session, id string, req *model.ReviewDecisionRequest) (*model.Job, error)

func (h *JobHandlers) reviewDecision(w http.ResponseWriter, r *http.Request, fn reviewDecisionFunc) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var req model.ReviewDecisionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := fn(r.Context(), sessionOrGuest(r.Context()), id, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

type bulkFunc = func(ctx context.Context, sess domainauth.Session, req *model.BulkJobRequest) (*model.BulkJobResult, error)

func (h *JobHandlers) bulk(w http.ResponseWriter, r *http.Request, fn bulkFunc) {
	var req model.BulkJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := fn(r.Context(), sessionOrGuest(r.Context()), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
