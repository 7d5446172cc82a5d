package ports

import "context"

// CreateTransferInput carries one batched transfer to an appraiser's account.
type CreateTransferInput struct {
	AmountCents   int64
	DestinationID string
	Description   string
	Metadata      map[string]string
	// IdempotencyKey dedupes retried submissions of the same batch.
	IdempotencyKey string
}

// Transfer is the gateway's record of a created transfer.
type Transfer struct {
	ID     string
	Status string
}

// TransferGateway is the contract for the external payment-transfer provider.
// Failures are returned as a typed gateway error carrying the provider's
// message; callers must never retry automatically.
type TransferGateway interface {
	CreateTransfer(ctx context.Context, in CreateTransferInput) (Transfer, error)
}
