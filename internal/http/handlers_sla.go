package httpx

import (
	"net/http"

	"github.com/rowhq/fieldproof/internal/service"
)

// SLAHandlers provides HTTP handlers for SLA reporting.
type SLAHandlers struct {
	Svc *service.SLAService
}

// Stats handles GET /api/sla/stats.
func (h *SLAHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context(), sessionOrGuest(r.Context()))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
