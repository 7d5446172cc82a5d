package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
)

// AppraiserRepo provides read access to appraiser profiles. Profile writes
// belong to the marketplace surface outside this core.
type AppraiserRepo struct {
	DB *sql.DB
}

// NewAppraiserRepo creates a new AppraiserRepo instance.
func NewAppraiserRepo(db *sql.DB) *AppraiserRepo {
	return &AppraiserRepo{DB: db}
}

const appraiserColumns = `
  id,
  user_id,
  verification_status,
  payouts_enabled,
  stripe_account_id,
  created_at
`

// GetByID retrieves an appraiser by its ID.
func (r *AppraiserRepo) GetByID(ctx context.Context, id string) (*model.Appraiser, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetByUserID retrieves the appraiser profile linked to a user account.
func (r *AppraiserRepo) GetByUserID(ctx context.Context, userID string) (*model.Appraiser, error) {
	return r.getByColumn(ctx, "user_id", userID)
}

func (r *AppraiserRepo) getByColumn(ctx context.Context, column, value string) (*model.Appraiser, error) {
	appraiser := &model.Appraiser{}
	var stripeAccountID sql.NullString

	err := r.DB.QueryRowContext(ctx, `
		SELECT `+appraiserColumns+`
		FROM appraisers
		WHERE `+column+` = $1
	`, value).Scan(
		&appraiser.ID,
		&appraiser.UserID,
		&appraiser.VerificationStatus,
		&appraiser.PayoutsEnabled,
		&stripeAccountID,
		&appraiser.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Appraiser not found.")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	appraiser.StripeAccountID = cloneNullableString(stripeAccountID)
	return appraiser, nil
}
