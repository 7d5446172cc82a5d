package model

import "time"

// PaymentType distinguishes payout records from other payment rows.
type PaymentType string

const (
	// PaymentTypeJobPayout is a payout created when a job completes.
	PaymentTypeJobPayout PaymentType = "JOB_PAYOUT"
	// PaymentTypePayout is a manually created payout.
	PaymentTypePayout PaymentType = "PAYOUT"
)

// Valid returns true if the PaymentType is a payout type.
func (t PaymentType) Valid() bool {
	return t == PaymentTypeJobPayout || t == PaymentTypePayout
}

// PayoutStatus is the settlement state of a payout record.
type PayoutStatus string

const (
	// PayoutStatusPending indicates the payout awaits reconciliation.
	PayoutStatusPending PayoutStatus = "PENDING"
	// PayoutStatusProcessing indicates a gateway transfer is in flight.
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	// PayoutStatusCompleted indicates funds were transferred.
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
	// PayoutStatusFailed indicates the transfer failed or the payee is misconfigured.
	PayoutStatusFailed PayoutStatus = "FAILED"
)

// Valid returns true if the PayoutStatus is valid.
func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusCompleted, PayoutStatusFailed:
		return true
	}
	return false
}

// Payment is a payout owed to an appraiser for a completed job.
// AmountCents is immutable after creation; only Status, StripeTransferID and
// StatusMessage change, and the only backwards move is the audited manual
// FAILED → PENDING retry.
type Payment struct {
	ID               string       `json:"id"                           db:"id"`
	Type             PaymentType  `json:"type"                         db:"type"`
	AppraiserID      string       `json:"appraiser_id"                 db:"appraiser_id"`
	RelatedJobID     *string      `json:"related_job_id,omitempty"     db:"related_job_id"`
	AmountCents      int64        `json:"amount_cents"                 db:"amount_cents"`
	Status           PayoutStatus `json:"status"                       db:"status"`
	StripeTransferID *string      `json:"stripe_transfer_id,omitempty" db:"stripe_transfer_id"`
	StatusMessage    *string      `json:"status_message,omitempty"     db:"status_message"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"       db:"completed_at"`
	CreatedAt        time.Time    `json:"created_at"                   db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"                   db:"updated_at"`
}

// PayoutAppraiserResult reports one appraiser's outcome within a reconciliation pass.
type PayoutAppraiserResult struct {
	AppraiserID string   `json:"appraiser_id"`
	PaymentIDs  []string `json:"payment_ids"`
	AmountCents int64    `json:"amount_cents"`
	OK          bool     `json:"ok"`
	TransferID  string   `json:"transfer_id,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// PayoutBatchResult summarizes a full reconciliation pass. One appraiser's
// misconfiguration never blocks the others.
type PayoutBatchResult struct {
	BatchID              string                  `json:"batch_id"`
	ProcessedCount       int                     `json:"processed_count"`
	FailedCount          int                     `json:"failed_count"`
	ProcessedAmountCents int64                   `json:"processed_amount_cents"`
	FailedAmountCents    int64                   `json:"failed_amount_cents"`
	Appraisers           []PayoutAppraiserResult `json:"appraisers"`
}

// ProcessPayoutsRequest optionally narrows a reconciliation pass to specific appraisers.
type ProcessPayoutsRequest struct {
	AppraiserIDs []string `json:"appraiser_ids,omitempty"`
}
