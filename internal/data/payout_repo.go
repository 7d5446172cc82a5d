package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rowhq/fieldproof/internal/core"
	"github.com/rowhq/fieldproof/internal/data/pgxutil"
	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
)

// PayoutRepo provides database operations for payout records. Status moves
// are guarded updates so concurrent reconciliation passes cannot
// double-settle a payment.
type PayoutRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewPayoutRepo creates a new PayoutRepo instance.
func NewPayoutRepo(db *sql.DB, cfg RepoConfig) *PayoutRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &PayoutRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const paymentColumns = `
  id,
  type,
  appraiser_id,
  related_job_id,
  amount_cents,
  status,
  stripe_transfer_id,
  status_message,
  completed_at,
  created_at,
  updated_at
`

// CreateJobPayout inserts the PENDING payout for a completed job. The unique
// constraint on related_job_id makes a second insert return Conflict, so a
// double approve can never pay twice.
func (r *PayoutRepo) CreateJobPayout(ctx context.Context, params core.CreateJobPayoutParams) (*model.Payment, error) {
	if params.AmountCents <= 0 {
		return nil, apperrors.Validation("payout amount must be positive")
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
      INSERT INTO payments(type, appraiser_id, related_job_id, amount_cents, status, created_at, updated_at)
      VALUES ('JOB_PAYOUT', $1, $2, $3, 'PENDING', $4, $4)
      RETURNING `+paymentColumns,
		params.AppraiserID,
		params.JobID,
		params.AmountCents,
		now,
	)

	payment, err := scanPaymentFromRow(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return payment, nil
}

// GetByID retrieves a payment by its ID.
func (r *PayoutRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
	`, id)

	payment, err := scanPaymentFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Payment not found.")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return payment, nil
}

// ListPending returns PENDING payouts in creation order, optionally narrowed
// to the given appraisers.
func (r *PayoutRepo) ListPending(ctx context.Context, appraiserIDs []string) ([]*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'PENDING' AND type IN ('JOB_PAYOUT', 'PAYOUT')
	`
	args := []any{}
	if len(appraiserIDs) > 0 {
		query += ` AND appraiser_id = ANY($1)`
		args = append(args, appraiserIDs)
	}
	query += ` ORDER BY created_at ASC`

	var out []*model.Payment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			payment, scanErr := scanPaymentFromRow(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, payment)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// MarkProcessing moves PENDING → PROCESSING for the given payments and
// returns the ids this call claimed. Rows a concurrent pass already moved
// out of PENDING are not returned, so the caller settles only what it won.
func (r *PayoutRepo) MarkProcessing(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
		UPDATE payments
		SET status = 'PROCESSING', updated_at = $2
		WHERE id = ANY($1) AND status = 'PENDING'
		RETURNING id
	`, ids, r.timeProvider.Now().UTC())
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var claimed []string
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		claimed = append(claimed, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return claimed, nil
}

// MarkCompleted moves PROCESSING → COMPLETED, storing the gateway transfer id
// and a completion timestamp.
func (r *PayoutRepo) MarkCompleted(ctx context.Context, params core.CompletePaymentsParams) (int, error) {
	if len(params.IDs) == 0 {
		return 0, nil
	}

	now := r.timeProvider.Now().UTC()
	return r.execGuarded(ctx, `
		UPDATE payments
		SET status = 'COMPLETED',
		    stripe_transfer_id = $2,
		    status_message = NULL,
		    completed_at = $3,
		    updated_at = $3
		WHERE id = ANY($1) AND status = 'PROCESSING'
	`, params.IDs, params.TransferID, now)
}

// MarkFailed moves PENDING or PROCESSING → FAILED with the failure message.
func (r *PayoutRepo) MarkFailed(ctx context.Context, params core.FailPaymentsParams) (int, error) {
	if len(params.IDs) == 0 {
		return 0, nil
	}

	return r.execGuarded(ctx, `
		UPDATE payments
		SET status = 'FAILED',
		    status_message = $2,
		    updated_at = $3
		WHERE id = ANY($1) AND status IN ('PENDING', 'PROCESSING')
	`, params.IDs, params.Message, r.timeProvider.Now().UTC())
}

// RetryFailed is the audited manual FAILED → PENDING exception; the retry is
// noted in the status message.
func (r *PayoutRepo) RetryFailed(ctx context.Context, id string, actorID string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE payments
		SET status = 'PENDING',
		    status_message = 'Retry requested by ' || $2 || ' at ' || $3,
		    updated_at = $4
		WHERE id = $1 AND status = 'FAILED'
	`, id, actorID, now.Format(time.RFC3339), now)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("retry payout rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// SweepStale fails PROCESSING payouts whose last update is older than the
// cutoff. A crashed reconciliation pass can strand payouts in PROCESSING;
// the sweep makes them eligible for an explicit retry instead of ambiguous
// forever.
func (r *PayoutRepo) SweepStale(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE payments
		SET status = 'FAILED',
		    status_message = $2,
		    updated_at = $3
		WHERE status = 'PROCESSING' AND updated_at < $1
	`, cutoff.UTC(), message, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep stale rows affected: %w", err)
	}
	return rowsAffected, nil
}

// RecordBatch persists the audit summary of one reconciliation pass.
func (r *PayoutRepo) RecordBatch(ctx context.Context, result *model.PayoutBatchResult) error {
	if result == nil {
		return apperrors.Validation("batch result is required")
	}

	detail, err := json.Marshal(result.Appraisers)
	if err != nil {
		return fmt.Errorf("encode batch detail: %w", err)
	}

	if _, err := r.DB.ExecContext(ctx, `
      INSERT INTO payout_batches(
        id, processed_count, failed_count,
        processed_amount_cents, failed_amount_cents, detail, created_at
      )
      VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`,
		result.BatchID,
		result.ProcessedCount,
		result.FailedCount,
		result.ProcessedAmountCents,
		result.FailedAmountCents,
		detail,
		r.timeProvider.Now().UTC(),
	); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

func (r *PayoutRepo) execGuarded(ctx context.Context, query string, args ...any) (int, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("payout rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

type paymentRowScanner interface {
	Scan(dest ...any) error
}

func scanPaymentFromRow(scanner paymentRowScanner) (*model.Payment, error) {
	payment := &model.Payment{}
	var (
		relatedJobID, transferID, message sql.NullString
		completedAt                       sql.NullTime
	)

	if err := scanner.Scan(
		&payment.ID,
		&payment.Type,
		&payment.AppraiserID,
		&relatedJobID,
		&payment.AmountCents,
		&payment.Status,
		&transferID,
		&message,
		&completedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		return nil, err
	}

	payment.RelatedJobID = cloneNullableString(relatedJobID)
	payment.StripeTransferID = cloneNullableString(transferID)
	payment.StatusMessage = cloneNullableString(message)
	payment.CompletedAt = cloneNullableTime(completedAt)
	return payment, nil
}
