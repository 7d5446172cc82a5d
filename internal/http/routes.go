package httpx

import (
	"log/slog"
	"net/http"
)

// RouterOptions bundles the handlers and shared dependencies for NewRouter.
type RouterOptions struct {
	// Required:
	Auth     *AuthHandlers
	Jobs     *JobHandlers
	Evidence *EvidenceHandlers
	Payouts  *PayoutHandlers
	SLA      *SLAHandlers
	// Optional:
	Logger *slog.Logger
}

// NewRouter wires every API route with its middleware chain. Authentication
// is enforced by RequireAuth; per-role rules live in the service layer so the
// same capability checks apply to every caller.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	// Health and auth endpoints are reachable without a session.
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	mux.HandleFunc("GET /auth/login", opts.Auth.Login)
	mux.HandleFunc("GET /auth/callback", opts.Auth.Callback)
	mux.HandleFunc("POST /auth/logout", opts.Auth.Logout)
	mux.HandleFunc("GET /auth/status", opts.Auth.Status)

	authed := RequireAuth(opts.Auth.Svc)

	// Job lifecycle.
	mux.Handle("POST /api/jobs", authed(http.HandlerFunc(opts.Jobs.Create)))
	mux.Handle("GET /api/jobs/{id}", authed(http.HandlerFunc(opts.Jobs.Get)))
	mux.Handle("POST /api/jobs/{id}/dispatch", authed(http.HandlerFunc(opts.Jobs.Dispatch)))
	mux.Handle("POST /api/jobs/{id}/accept", authed(http.HandlerFunc(opts.Jobs.Accept)))
	mux.Handle("POST /api/jobs/{id}/start", authed(http.HandlerFunc(opts.Jobs.Start)))
	mux.Handle("POST /api/jobs/{id}/submit", authed(http.HandlerFunc(opts.Jobs.Submit)))
	mux.Handle("POST /api/jobs/{id}/review", authed(http.HandlerFunc(opts.Jobs.StartReview)))
	mux.Handle("POST /api/jobs/{id}/approve", authed(http.HandlerFunc(opts.Jobs.Approve)))
	mux.Handle("POST /api/jobs/{id}/reject", authed(http.HandlerFunc(opts.Jobs.Reject)))
	mux.Handle("POST /api/jobs/{id}/request-revision", authed(http.HandlerFunc(opts.Jobs.RequestRevision)))
	mux.Handle("POST /api/jobs/{id}/cancel", authed(http.HandlerFunc(opts.Jobs.Cancel)))
	mux.Handle("POST /api/jobs/{id}/reassign", authed(http.HandlerFunc(opts.Jobs.Reassign)))
	mux.Handle("POST /api/jobs/bulk-cancel", authed(http.HandlerFunc(opts.Jobs.BulkCancel)))
	mux.Handle("POST /api/jobs/bulk-approve", authed(http.HandlerFunc(opts.Jobs.BulkApprove)))

	// Evidence capture and review.
	mux.Handle("POST /api/jobs/{id}/evidence/upload-url", authed(http.HandlerFunc(opts.Evidence.RequestUpload)))
	mux.Handle("POST /api/jobs/{id}/evidence", authed(http.HandlerFunc(opts.Evidence.Confirm)))
	mux.Handle("GET /api/jobs/{id}/evidence", authed(http.HandlerFunc(opts.Evidence.List)))
	mux.Handle("DELETE /api/jobs/{id}/evidence/{evidenceID}", authed(http.HandlerFunc(opts.Evidence.Delete)))
	mux.Handle("GET /api/evidence/{id}/download-url", authed(http.HandlerFunc(opts.Evidence.DownloadURL)))

	// Payout reconciliation.
	mux.Handle("POST /api/payouts/process", authed(http.HandlerFunc(opts.Payouts.Process)))
	mux.Handle("POST /api/payouts/{id}/retry", authed(http.HandlerFunc(opts.Payouts.Retry)))
	mux.Handle("GET /api/payouts/pending", authed(http.HandlerFunc(opts.Payouts.ListPending)))
	mux.Handle("POST /api/payouts/sweep-stale", authed(http.HandlerFunc(opts.Payouts.SweepStale)))

	// SLA reporting.
	mux.Handle("GET /api/sla/stats", authed(http.HandlerFunc(opts.SLA.Stats)))

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
