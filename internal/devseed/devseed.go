// Package devseed populates a development database with a small marketplace:
// a couple of appraisers, a handful of properties, and jobs in various
// lifecycle states. Inserts are idempotent so the seeder can run repeatedly.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/rowhq/fieldproof/internal/core"
	"github.com/rowhq/fieldproof/internal/data"
	"github.com/rowhq/fieldproof/internal/domain/model"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB   *sql.DB
	jobs *data.JobRepo
}

// NewServices constructs the repositories needed for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:   db,
		jobs: data.NewJobRepo(db, data.RepoConfig{}),
	}
}

const seedOrg = "org-dev"

type seedAppraiser struct {
	ID             string
	UserID         string
	Status         string
	PayoutsEnabled bool
	StripeAccount  *string
}

type seedProperty struct {
	ID        string
	Address   string
	Latitude  float64
	Longitude float64
}

func strPtr(s string) *string { return &s }

func seedAppraisers() []seedAppraiser {
	return []seedAppraiser{
		{
			ID:             "0c4f1c2a-1111-4a61-9d3e-000000000001",
			UserID:         "dev-appraiser-1",
			Status:         "VERIFIED",
			PayoutsEnabled: true,
			StripeAccount:  strPtr("acct_dev_appraiser_1"),
		},
		{
			ID:     "0c4f1c2a-1111-4a61-9d3e-000000000002",
			UserID: "dev-appraiser-2",
			Status: "PENDING",
		},
	}
}

func seedProperties() []seedProperty {
	return []seedProperty{
		{
			ID:        "7b9d2e84-2222-4c10-8f7a-000000000001",
			Address:   "128 Court St, Brooklyn, NY 11201",
			Latitude:  40.6892,
			Longitude: -73.9927,
		},
		{
			ID:        "7b9d2e84-2222-4c10-8f7a-000000000002",
			Address:   "55 Hudson Yards, New York, NY 10001",
			Latitude:  40.7539,
			Longitude: -74.0024,
		},
		{
			ID:        "7b9d2e84-2222-4c10-8f7a-000000000003",
			Address:   "901 Pine St, Austin, TX 78701",
			Latitude:  30.2672,
			Longitude: -97.7431,
		},
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if svcs.DB == nil {
		return fmt.Errorf("seed: database connection is required")
	}

	for _, a := range seedAppraisers() {
		if err := insertAppraiser(ctx, svcs.DB, a); err != nil {
			return fmt.Errorf("seed appraiser %s: %w", a.UserID, err)
		}
	}

	for _, p := range seedProperties() {
		if err := insertProperty(ctx, svcs.DB, p); err != nil {
			return fmt.Errorf("seed property %s: %w", p.Address, err)
		}
	}

	created, err := seedJobs(ctx, svcs)
	if err != nil {
		return err
	}

	if logger != nil {
		logger.InfoContext(ctx, "development data seeded",
			"appraisers", len(seedAppraisers()),
			"properties", len(seedProperties()),
			"jobs_created", created,
		)
	}
	return nil
}

func insertAppraiser(ctx context.Context, db *sql.DB, a seedAppraiser) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO appraisers (id, user_id, verification_status, payouts_enabled, stripe_account_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING`,
		a.ID, a.UserID, a.Status, a.PayoutsEnabled, a.StripeAccount,
	)
	return err
}

func insertProperty(ctx context.Context, db *sql.DB, p seedProperty) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO properties (id, organization_id, address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, seedOrg, p.Address, p.Latitude, p.Longitude,
	)
	return err
}

// seedJobs creates one job per seeded property, skipping properties that
// already have one.
func seedJobs(ctx context.Context, svcs Services) (int, error) {
	types := []model.JobType{
		model.JobTypeOnsitePhotos,
		model.JobTypeCertifiedAppraisal,
		model.JobTypeOnsitePhotos,
	}

	created := 0
	for i, p := range seedProperties() {
		var existing int
		if err := svcs.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM jobs WHERE property_id = $1`, p.ID,
		).Scan(&existing); err != nil {
			return created, fmt.Errorf("count jobs for property %s: %w", p.ID, err)
		}
		if existing > 0 {
			continue
		}

		_, err := svcs.jobs.Create(ctx, core.CreateJobParams{
			Req: &model.CreateJobRequest{
				OrganizationID:    seedOrg,
				PropertyID:        p.ID,
				Type:              types[i%len(types)],
				GeofenceRadiusM:   150,
				PayoutAmountCents: 15000,
			},
			ActorID: "devseed",
		})
		if err != nil {
			return created, fmt.Errorf("create job for property %s: %w", p.ID, err)
		}
		created++
	}
	return created, nil
}
