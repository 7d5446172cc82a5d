package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rowhq/fieldproof/internal/core"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/ports"
)

// PayoutServiceOptions groups dependencies for PayoutService.
type PayoutServiceOptions struct {
	Payments       core.PaymentRepository   // Required: payout repository
	Appraisers     core.AppraiserRepository // Required: payout configuration checks
	Gateway        ports.TransferGateway    // Required: external transfer provider
	GatewayTimeout time.Duration            // Optional: per-transfer deadline, defaults to 30s
	StaleAfter     time.Duration            // Optional: PROCESSING age treated as stuck, defaults to 1h
	Concurrency    int                      // Optional: appraiser groups settled in parallel, defaults to 4
	Logger         *slog.Logger             // Optional: structured logger
	Now            func() time.Time         // Optional: clock override for tests
}

// PayoutService reconciles pending payouts into gateway transfers: one
// batched transfer per appraiser per pass, with guarded status moves so a
// concurrent pass cannot double-settle, and per-appraiser failure isolation.
type PayoutService struct {
	payments       core.PaymentRepository
	appraisers     core.AppraiserRepository
	gateway        ports.TransferGateway
	gatewayTimeout time.Duration
	staleAfter     time.Duration
	concurrency    int
	logger         *slog.Logger
	now            func() time.Time
}

// NewPayoutService constructs a new PayoutService.
func NewPayoutService(opts PayoutServiceOptions) (*PayoutService, error) {
	if opts.Payments == nil {
		return nil, errors.New("PaymentRepository is required")
	}
	if opts.Appraisers == nil {
		return nil, errors.New("AppraiserRepository is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("TransferGateway is required")
	}

	gatewayTimeout := opts.GatewayTimeout
	if gatewayTimeout <= 0 {
		gatewayTimeout = 30 * time.Second
	}
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "payout_service")
	}

	return &PayoutService{
		payments:       opts.Payments,
		appraisers:     opts.Appraisers,
		gateway:        opts.Gateway,
		gatewayTimeout: gatewayTimeout,
		staleAfter:     staleAfter,
		concurrency:    concurrency,
		logger:         logger,
		now:            now,
	}, nil
}

// MustNewPayoutService constructs a new PayoutService and panics on error.
func MustNewPayoutService(opts PayoutServiceOptions) *PayoutService {
	svc, err := NewPayoutService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create PayoutService: %v", err))
	}
	return svc
}

// Process runs one reconciliation pass: pending payouts are grouped per
// appraiser and settled as one batched transfer each. Misconfigured payees
// and gateway failures fail only their own group; ambiguous gateway outcomes
// are left FAILED for a human, never retried automatically.
func (s *PayoutService) Process(ctx context.Context, sess domainauth.Session, req *model.ProcessPayoutsRequest) (*model.PayoutBatchResult, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	var appraiserIDs []string
	if req != nil {
		appraiserIDs = req.AppraiserIDs
	}
	pending, err := s.payments.ListPending(ctx, appraiserIDs)
	if err != nil {
		return nil, err
	}

	result := &model.PayoutBatchResult{BatchID: uuid.NewString()}
	if len(pending) == 0 {
		if err := s.payments.RecordBatch(ctx, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	groups := make(map[string][]*model.Payment)
	for _, p := range pending {
		groups[p.AppraiserID] = append(groups[p.AppraiserID], p)
	}
	// Deterministic processing order makes batch audit records comparable.
	ordered := make([]string, 0, len(groups))
	for id := range groups {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	// Groups are settled in parallel: each group touches only its own
	// appraiser's rows, so the guarded status moves never contend.
	outcomes := make([]model.PayoutAppraiserResult, len(ordered))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, appraiserID := range ordered {
		g.Go(func() error {
			outcomes[i] = s.settleGroup(ctx, result.BatchID, appraiserID, groups[appraiserID])
			return nil
		})
	}
	// Group goroutines report failures through their outcome, never an error.
	_ = g.Wait()

	for _, outcome := range outcomes {
		result.Appraisers = append(result.Appraisers, outcome)
		if outcome.OK {
			result.ProcessedCount += len(outcome.PaymentIDs)
			result.ProcessedAmountCents += outcome.AmountCents
		} else {
			result.FailedCount += len(outcome.PaymentIDs)
			result.FailedAmountCents += outcome.AmountCents
		}
	}

	if err := s.payments.RecordBatch(ctx, result); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "payout batch finished",
			"batch_id", result.BatchID,
			"processed", result.ProcessedCount,
			"failed", result.FailedCount,
		)
	}
	return result, nil
}

// settleGroup settles one appraiser's pending payouts as a single transfer.
func (s *PayoutService) settleGroup(ctx context.Context, batchID, appraiserID string, group []*model.Payment) model.PayoutAppraiserResult {
	ids := make([]string, 0, len(group))
	var total int64
	for _, p := range group {
		ids = append(ids, p.ID)
		total += p.AmountCents
	}
	outcome := model.PayoutAppraiserResult{
		AppraiserID: appraiserID,
		PaymentIDs:  ids,
		AmountCents: total,
	}

	appraiser, err := s.appraisers.GetByID(ctx, appraiserID)
	if err != nil {
		return s.failGroup(ctx, outcome, "appraiser lookup failed: "+err.Error())
	}
	if !appraiser.PayoutReady() {
		return s.failGroup(ctx, outcome, "appraiser is not configured for payouts")
	}

	// Claim the rows first; a concurrent pass claiming any of them shrinks
	// this group to the rows actually won.
	claimed, err := s.payments.MarkProcessing(ctx, ids)
	if err != nil {
		return s.failGroup(ctx, outcome, "failed to mark processing: "+err.Error())
	}
	if len(claimed) == 0 {
		outcome.PaymentIDs = nil
		outcome.AmountCents = 0
		outcome.Error = "payouts already claimed by another pass"
		return outcome
	}
	if len(claimed) != len(ids) {
		won := make(map[string]bool, len(claimed))
		for _, id := range claimed {
			won[id] = true
		}
		total = 0
		for _, p := range group {
			if won[p.ID] {
				total += p.AmountCents
			}
		}
		ids = claimed
		outcome.PaymentIDs = claimed
		outcome.AmountCents = total
		if s.logger != nil {
			s.logger.WarnContext(ctx, "partial payout claim",
				"appraiser_id", appraiserID,
				"claimed", len(claimed),
				"requested", len(group),
			)
		}
	}

	transferCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	transfer, err := s.gateway.CreateTransfer(transferCtx, ports.CreateTransferInput{
		AmountCents:   total,
		DestinationID: *appraiser.StripeAccountID,
		Description:   fmt.Sprintf("Payout for %d completed jobs", len(ids)),
		Metadata: map[string]string{
			"batch_id":     batchID,
			"appraiser_id": appraiserID,
		},
		IdempotencyKey: batchID + ":" + appraiserID,
	})
	if err != nil {
		return s.failGroup(ctx, outcome, "transfer failed: "+err.Error())
	}

	if _, err := s.payments.MarkCompleted(ctx, core.CompletePaymentsParams{
		IDs:        ids,
		TransferID: transfer.ID,
	}); err != nil {
		// Money moved but the completion write failed; the stale sweep and the
		// idempotency key make the follow-up retry safe.
		return s.failGroup(ctx, outcome, "transfer "+transfer.ID+" created but completion write failed: "+err.Error())
	}

	outcome.OK = true
	outcome.TransferID = transfer.ID
	return outcome
}

func (s *PayoutService) failGroup(ctx context.Context, outcome model.PayoutAppraiserResult, message string) model.PayoutAppraiserResult {
	outcome.Error = message
	if _, err := s.payments.MarkFailed(ctx, core.FailPaymentsParams{
		IDs:     outcome.PaymentIDs,
		Message: message,
	}); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to mark payouts failed",
			"appraiser_id", outcome.AppraiserID,
			"error", err,
		)
	}
	return outcome
}

// Retry moves one FAILED payout back to PENDING for the next pass. This is
// the only backwards move in the payout lifecycle and it is audited.
func (s *PayoutService) Retry(ctx context.Context, sess domainauth.Session, paymentID string) (*model.Payment, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	moved, err := s.payments.RetryFailed(ctx, paymentID, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !moved {
		payment, getErr := s.payments.GetByID(ctx, paymentID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.Conflictf("Only FAILED payouts can be retried; this one is %s.", payment.Status)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "payout retry requested",
			"payment_id", paymentID,
			"actor", sess.UserID,
		)
	}
	return s.payments.GetByID(ctx, paymentID)
}

// SweepStale fails PROCESSING payouts whose last update predates the stale
// window, so a crashed pass never leaves payouts ambiguous forever.
func (s *PayoutService) SweepStale(ctx context.Context, sess domainauth.Session) (int64, error) {
	if err := requireAdmin(sess); err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.staleAfter)
	swept, err := s.payments.SweepStale(ctx, cutoff, "payout stuck in processing; swept for manual review")
	if err != nil {
		return 0, err
	}
	if swept > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "stale payouts swept", "count", swept)
	}
	return swept, nil
}

// ListPending returns the payouts awaiting the next reconciliation pass.
func (s *PayoutService) ListPending(ctx context.Context, sess domainauth.Session) ([]*model.Payment, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.payments.ListPending(ctx, nil)
}
