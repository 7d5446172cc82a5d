package httpx

import (
	"errors"
	"net/http"

	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/service"
)

// EvidenceHandlers provides HTTP handlers for evidence capture and review.
type EvidenceHandlers struct {
	Svc *service.EvidenceService
}

// RequestUpload handles POST /api/jobs/{id}/evidence/upload-url.
func (h *EvidenceHandlers) RequestUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var req model.UploadURLRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	slot, err := h.Svc.RequestUpload(r.Context(), sessionOrGuest(r.Context()), id, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, slot)
}

// Confirm handles POST /api/jobs/{id}/evidence.
func (h *EvidenceHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var req model.ConfirmEvidenceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	evidence, err := h.Svc.Confirm(r.Context(), sessionOrGuest(r.Context()), id, &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, evidence)
}

// List handles GET /api/jobs/{id}/evidence.
func (h *EvidenceHandlers) List(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	items, err := h.Svc.List(r.Context(), sessionOrGuest(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// Delete handles DELETE /api/jobs/{id}/evidence/{evidenceID}.
func (h *EvidenceHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	evidenceID := r.PathValue("evidenceID")
	if evidenceID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("evidence id is required")},
		)
		return
	}

	if err := h.Svc.Delete(r.Context(), sessionOrGuest(r.Context()), id, evidenceID); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadURL handles GET /api/evidence/{id}/download-url.
func (h *EvidenceHandlers) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	url, err := h.Svc.DownloadURL(r.Context(), sessionOrGuest(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"download_url": url})
}
