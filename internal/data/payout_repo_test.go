package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowhq/fieldproof/internal/core"
	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/testutil"
)

func seedCompletedJob(t *testing.T, db *sql.DB, repo *JobRepo, appraiserID string) *model.Job {
	t.Helper()

	ctx := context.Background()
	job := seedJob(t, db, repo)
	dispatchJob(t, repo, job.ID)

	_, err := repo.Accept(ctx, core.AcceptJobParams{ID: job.ID, AppraiserID: appraiserID})
	require.NoError(t, err)
	_, err = repo.Start(ctx, core.StartJobParams{ID: job.ID, AppraiserID: appraiserID})
	require.NoError(t, err)
	seedEvidenceRows(t, db, job.ID, 5)
	_, err = repo.Submit(ctx, core.SubmitJobParams{ID: job.ID, AppraiserID: appraiserID, MinEvidence: 5})
	require.NoError(t, err)
	moved, err := repo.Transition(ctx, core.TransitionJobParams{
		ID: job.ID, From: model.JobStatusSubmitted, To: model.JobStatusCompleted, ActorID: "admin-1",
	})
	require.NoError(t, err)
	require.True(t, moved)
	return job
}

func TestPayoutRepo_CreateJobPayoutOncePerJob(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := newTestJobRepo(db)
		payouts := NewPayoutRepo(db, RepoConfig{})
		appraiserID := testutil.SeedAppraiser(t, db, testutil.SeedAppraiserParams{PayoutsEnabled: true})
		job := seedCompletedJob(t, db, jobs, appraiserID)

		payment, err := payouts.CreateJobPayout(ctx, core.CreateJobPayoutParams{
			JobID: job.ID, AppraiserID: appraiserID, AmountCents: 15000,
		})
		require.NoError(t, err)
		assert.Equal(t, model.PayoutStatusPending, payment.Status)
		assert.Equal(t, int64(15000), payment.AmountCents)
		require.NotNil(t, payment.RelatedJobID)
		assert.Equal(t, job.ID, *payment.RelatedJobID)

		// A second payout for the same job must conflict, never pay twice.
		_, err = payouts.CreateJobPayout(ctx, core.CreateJobPayoutParams{
			JobID: job.ID, AppraiserID: appraiserID, AmountCents: 15000,
		})
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestPayoutRepo_StatusMovesAreGuarded(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := newTestJobRepo(db)
		payouts := NewPayoutRepo(db, RepoConfig{})
		appraiserID := testutil.SeedAppraiser(t, db, testutil.SeedAppraiserParams{PayoutsEnabled: true})
		job := seedCompletedJob(t, db, jobs, appraiserID)

		payment, err := payouts.CreateJobPayout(ctx, core.CreateJobPayoutParams{
			JobID: job.ID, AppraiserID: appraiserID, AmountCents: 15000,
		})
		require.NoError(t, err)

		// Completing a payout that never entered PROCESSING moves nothing.
		n, err := payouts.MarkCompleted(ctx, core.CompletePaymentsParams{
			IDs: []string{payment.ID}, TransferID: "tr_1",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		claimed, err := payouts.MarkProcessing(ctx, []string{payment.ID})
		require.NoError(t, err)
		require.Equal(t, []string{payment.ID}, claimed)

		// A second pass over the same payment finds nothing PENDING.
		claimed, err = payouts.MarkProcessing(ctx, []string{payment.ID})
		require.NoError(t, err)
		assert.Empty(t, claimed)

		n, err = payouts.MarkCompleted(ctx, core.CompletePaymentsParams{
			IDs: []string{payment.ID}, TransferID: "tr_1",
		})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		got, err := payouts.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PayoutStatusCompleted, got.Status)
		require.NotNil(t, got.StripeTransferID)
		assert.Equal(t, "tr_1", *got.StripeTransferID)
		assert.NotNil(t, got.CompletedAt)
		assert.Equal(t, int64(15000), got.AmountCents, "amount is immutable through settlement")
	})
}

func TestPayoutRepo_FailAndRetry(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := newTestJobRepo(db)
		payouts := NewPayoutRepo(db, RepoConfig{})
		appraiserID := testutil.SeedAppraiser(t, db, testutil.SeedAppraiserParams{PayoutsEnabled: true})
		job := seedCompletedJob(t, db, jobs, appraiserID)

		payment, err := payouts.CreateJobPayout(ctx, core.CreateJobPayoutParams{
			JobID: job.ID, AppraiserID: appraiserID, AmountCents: 15000,
		})
		require.NoError(t, err)

		_, err = payouts.MarkProcessing(ctx, []string{payment.ID})
		require.NoError(t, err)
		n, err := payouts.MarkFailed(ctx, core.FailPaymentsParams{
			IDs: []string{payment.ID}, Message: "destination account closed",
		})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		got, err := payouts.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PayoutStatusFailed, got.Status)
		require.NotNil(t, got.StatusMessage)
		assert.Equal(t, "destination account closed", *got.StatusMessage)

		// Manual retry is the only backwards move.
		ok, err := payouts.RetryFailed(ctx, payment.ID, "admin-1")
		require.NoError(t, err)
		require.True(t, ok)

		got, err = payouts.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PayoutStatusPending, got.Status)

		// Retrying a non-FAILED payout does nothing.
		ok, err = payouts.RetryFailed(ctx, payment.ID, "admin-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPayoutRepo_ListPendingFiltersByAppraiser(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := newTestJobRepo(db)
		payouts := NewPayoutRepo(db, RepoConfig{})
		first := testutil.SeedAppraiser(t, db, testutil.SeedAppraiserParams{PayoutsEnabled: true})
		second := testutil.SeedAppraiser(t, db, testutil.SeedAppraiserParams{PayoutsEnabled: true})

		firstJob := seedCompletedJob(t, db, jobs, first)
		secondJob := seedCompletedJob(t, db, jobs, second)

		_, err := payouts.CreateJobPayout(ctx, core.CreateJobPayoutParams{
			JobID: firstJob.ID, AppraiserID: first, AmountCents: 10000,
		})
		require.NoError(t, err)
		_, err = payouts.CreateJobPayout(ctx, core.CreateJobPayoutParams{
			JobID: secondJob.ID, AppraiserID: second, AmountCents: 20000,
		})
		require.NoError(t, err)

		all, err := payouts.ListPending(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		onlyFirst, err := payouts.ListPending(ctx, []string{first})
		require.NoError(t, err)
		require.Len(t, onlyFirst, 1)
		assert.Equal(t, first, onlyFirst[0].AppraiserID)
	})
}

func TestPayoutRepo_SweepStale(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := newTestJobRepo(db)
		payouts := NewPayoutRepo(db, RepoConfig{})
		appraiserID := testutil.SeedAppraiser(t, db, testutil.SeedAppraiserParams{PayoutsEnabled: true})
		job := seedCompletedJob(t, db, jobs, appraiserID)

		payment, err := payouts.CreateJobPayout(ctx, core.CreateJobPayoutParams{
			JobID: job.ID, AppraiserID: appraiserID, AmountCents: 15000,
		})
		require.NoError(t, err)
		_, err = payouts.MarkProcessing(ctx, []string{payment.ID})
		require.NoError(t, err)

		// A cutoff in the past leaves the fresh payout alone.
		swept, err := payouts.SweepStale(ctx, time.Now().Add(-time.Hour), "stuck in processing")
		require.NoError(t, err)
		assert.Zero(t, swept)

		// A future cutoff treats it as stale.
		swept, err = payouts.SweepStale(ctx, time.Now().Add(time.Hour), "stuck in processing")
		require.NoError(t, err)
		assert.Equal(t, int64(1), swept)

		got, err := payouts.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PayoutStatusFailed, got.Status)
	})
}

func TestPayoutRepo_RecordBatch(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		payouts := NewPayoutRepo(db, RepoConfig{})

		result := &model.PayoutBatchResult{
			BatchID:              uuid.NewString(),
			ProcessedCount:       2,
			FailedCount:          1,
			ProcessedAmountCents: 30000,
			FailedAmountCents:    5000,
			Appraisers: []model.PayoutAppraiserResult{
				{AppraiserID: "a1", AmountCents: 30000, OK: true, TransferID: "tr_1"},
				{AppraiserID: "a2", AmountCents: 5000, OK: false, Error: "payouts disabled"},
			},
		}
		require.NoError(t, payouts.RecordBatch(ctx, result))

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT count(*) FROM payout_batches WHERE id = $1`, result.BatchID).Scan(&count))
		assert.Equal(t, 1, count)
	})
}
