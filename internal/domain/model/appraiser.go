package model

import "time"

// VerificationStatus is the licensing/verification state of an appraiser.
type VerificationStatus string

const (
	// VerificationStatusPending indicates license review is in progress.
	VerificationStatusPending VerificationStatus = "PENDING"
	// VerificationStatusVerified indicates the appraiser may accept jobs.
	VerificationStatusVerified VerificationStatus = "VERIFIED"
	// VerificationStatusRejected indicates the appraiser failed verification.
	VerificationStatusRejected VerificationStatus = "REJECTED"
)

// Appraiser is the slice of the appraiser profile the lifecycle engine needs:
// verification for accept/reassign guards and payout configuration for the
// reconciler. Profile management itself lives outside this core.
type Appraiser struct {
	ID                 string             `json:"id"                          db:"id"`
	UserID             string             `json:"user_id"                     db:"user_id"`
	VerificationStatus VerificationStatus `json:"verification_status"         db:"verification_status"`
	PayoutsEnabled     bool               `json:"payouts_enabled"             db:"payouts_enabled"`
	StripeAccountID    *string            `json:"stripe_account_id,omitempty" db:"stripe_account_id"`
	CreatedAt          time.Time          `json:"created_at"                  db:"created_at"`
}

// Verified reports whether the appraiser may accept jobs.
func (a *Appraiser) Verified() bool {
	return a.VerificationStatus == VerificationStatusVerified
}

// PayoutReady reports whether the reconciler can transfer funds to this appraiser.
func (a *Appraiser) PayoutReady() bool {
	return a.PayoutsEnabled && a.StripeAccountID != nil && *a.StripeAccountID != ""
}
