package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
)

// PropertyRepo provides read access to the property records the lifecycle
// engine needs for geofence and evidence-location checks.
type PropertyRepo struct {
	DB *sql.DB
}

// NewPropertyRepo creates a new PropertyRepo instance.
func NewPropertyRepo(db *sql.DB) *PropertyRepo {
	return &PropertyRepo{DB: db}
}

// GetByID retrieves a property by its ID.
func (r *PropertyRepo) GetByID(ctx context.Context, id string) (*model.Property, error) {
	property := &model.Property{}
	var lat, lon sql.NullFloat64

	err := r.DB.QueryRowContext(ctx, `
		SELECT id, organization_id, address, latitude, longitude
		FROM properties
		WHERE id = $1
	`, id).Scan(
		&property.ID,
		&property.OrganizationID,
		&property.Address,
		&lat,
		&lon,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Property not found.")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	if lat.Valid {
		v := lat.Float64
		property.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		property.Longitude = &v
	}
	return property, nil
}
