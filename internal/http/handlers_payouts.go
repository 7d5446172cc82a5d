package httpx

import (
	"net/http"

	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/service"
)

// PayoutHandlers provides HTTP handlers for payout reconciliation.
type PayoutHandlers struct {
	Svc *service.PayoutService
}

// Process handles POST /api/payouts/process.
func (h *PayoutHandlers) Process(w http.ResponseWriter, r *http.Request) {
	var req model.ProcessPayoutsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Process(r.Context(), sessionOrGuest(r.Context()), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Retry handles POST /api/payouts/{id}/retry.
func (h *PayoutHandlers) Retry(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	payment, err := h.Svc.Retry(r.Context(), sessionOrGuest(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payment)
}

// ListPending handles GET /api/payouts/pending.
func (h *PayoutHandlers) ListPending(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Svc.ListPending(r.Context(), sessionOrGuest(r.Context()))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payments)
}

// SweepStale handles POST /api/payouts/sweep-stale.
func (h *PayoutHandlers) SweepStale(w http.ResponseWriter, r *http.Request) {
	swept, err := h.Svc.SweepStale(r.Context(), sessionOrGuest(r.Context()))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"swept": swept})
}
