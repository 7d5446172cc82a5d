package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/rowhq/fieldproof/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			OrganizationID:    "org-test",
			Type:              model.JobTypeOnsitePhotos,
			GeofenceRadiusM:   500,
			PayoutAmountCents: 15000,
		},
	}
}

// WithType sets the job type.
func (b *JobRequestBuilder) WithType(jobType model.JobType) *JobRequestBuilder {
	b.req.Type = jobType
	return b
}

// WithProperty sets the property ID.
func (b *JobRequestBuilder) WithProperty(propertyID string) *JobRequestBuilder {
	b.req.PropertyID = propertyID
	return b
}

// WithGeofenceRadius sets the geofence radius in meters.
func (b *JobRequestBuilder) WithGeofenceRadius(meters int) *JobRequestBuilder {
	b.req.GeofenceRadiusM = meters
	return b
}

// WithPayout sets the payout amount in cents.
func (b *JobRequestBuilder) WithPayout(cents int64) *JobRequestBuilder {
	b.req.PayoutAmountCents = cents
	return b
}

// Build returns the constructed request.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// SeedAppraiserParams controls the appraiser row inserted by SeedAppraiser.
type SeedAppraiserParams struct {
	UserID             string
	VerificationStatus model.VerificationStatus
	PayoutsEnabled     bool
	StripeAccountID    *string
}

// SeedAppraiser inserts an appraiser row and returns its generated ID.
func SeedAppraiser(t TestingTB, db *sql.DB, params SeedAppraiserParams) string {
	t.Helper()

	if params.UserID == "" {
		params.UserID = "user-" + generateSchemaName()
	}
	if params.VerificationStatus == "" {
		params.VerificationStatus = model.VerificationStatusVerified
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO appraisers(user_id, verification_status, payouts_enabled, stripe_account_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, params.UserID, params.VerificationStatus, params.PayoutsEnabled, params.StripeAccountID).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed appraiser: %v", err)
	}
	return id
}

// SeedProperty inserts a property row and returns its generated ID.
func SeedProperty(t TestingTB, db *sql.DB, lat, lon *float64) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO properties(organization_id, address, latitude, longitude)
		VALUES ('org-test', '123 Test St', $1, $2)
		RETURNING id
	`, lat, lon).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed property: %v", err)
	}
	return id
}
