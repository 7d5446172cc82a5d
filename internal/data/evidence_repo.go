package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
)

// EvidenceRepo provides database operations for evidence artifacts.
type EvidenceRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewEvidenceRepo creates a new EvidenceRepo instance.
func NewEvidenceRepo(db *sql.DB, cfg RepoConfig) *EvidenceRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &EvidenceRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const evidenceColumns = `
  id,
  job_id,
  media_type,
  category,
  file_key,
  file_name,
  file_size,
  mime_type,
  captured_at,
  latitude,
  longitude,
  integrity_hash,
  verified,
  flags,
  exif,
  created_at
`

// Create inserts one evidence row with its derived trust facts.
func (r *EvidenceRepo) Create(ctx context.Context, ev *model.Evidence) (*model.Evidence, error) {
	if ev == nil {
		return nil, apperrors.Validation("evidence is required")
	}

	flags, err := json.Marshal(ev.Flags)
	if err != nil {
		return nil, fmt.Errorf("encode evidence flags: %w", err)
	}
	exif := ev.EXIF
	if len(exif) == 0 {
		exif = json.RawMessage(`{}`)
	}

	row := r.DB.QueryRowContext(ctx, `
      INSERT INTO evidence(
        job_id, media_type, category, file_key, file_name, file_size,
        mime_type, captured_at, latitude, longitude,
        integrity_hash, verified, flags, exif, created_at
      )
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::jsonb,$14::jsonb,$15)
      RETURNING `+evidenceColumns,
		ev.JobID,
		ev.MediaType,
		ev.Category,
		ev.FileKey,
		ev.FileName,
		ev.FileSize,
		ev.MimeType,
		ev.CapturedAt.UTC(),
		ev.Latitude,
		ev.Longitude,
		ev.IntegrityHash,
		ev.Verified,
		flags,
		[]byte(exif),
		r.timeProvider.Now().UTC(),
	)

	created, err := scanEvidenceFromRow(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return created, nil
}

// GetByID retrieves one evidence row by its ID.
func (r *EvidenceRepo) GetByID(ctx context.Context, id string) (*model.Evidence, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+evidenceColumns+`
		FROM evidence
		WHERE id = $1
	`, id)

	ev, err := scanEvidenceFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Evidence not found.")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return ev, nil
}

// ListByJob returns all evidence for a job in upload order.
func (r *EvidenceRepo) ListByJob(ctx context.Context, jobID string) ([]*model.Evidence, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+evidenceColumns+`
		FROM evidence
		WHERE job_id = $1
		ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*model.Evidence
	for rows.Next() {
		ev, scanErr := scanEvidenceFromRow(rows)
		if scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// CountByJob counts the evidence rows attached to a job.
func (r *EvidenceRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM evidence WHERE job_id = $1
	`, jobID).Scan(&count); err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return count, nil
}

// Delete removes one evidence row. Returns false if it did not exist.
func (r *EvidenceRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM evidence WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete evidence rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

type evidenceRowScanner interface {
	Scan(dest ...any) error
}

func scanEvidenceFromRow(scanner evidenceRowScanner) (*model.Evidence, error) {
	ev := &model.Evidence{}
	var (
		category sql.NullString
		lat, lon sql.NullFloat64
		flags    []byte
		exif     []byte
	)

	if err := scanner.Scan(
		&ev.ID,
		&ev.JobID,
		&ev.MediaType,
		&category,
		&ev.FileKey,
		&ev.FileName,
		&ev.FileSize,
		&ev.MimeType,
		&ev.CapturedAt,
		&lat,
		&lon,
		&ev.IntegrityHash,
		&ev.Verified,
		&flags,
		&exif,
		&ev.CreatedAt,
	); err != nil {
		return nil, err
	}

	if category.Valid {
		ev.Category = category.String
	}
	if lat.Valid {
		v := lat.Float64
		ev.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		ev.Longitude = &v
	}
	if len(flags) > 0 {
		if err := json.Unmarshal(flags, &ev.Flags); err != nil {
			return nil, fmt.Errorf("decode evidence flags: %w", err)
		}
	}
	if len(exif) > 0 {
		ev.EXIF = append(json.RawMessage(nil), exif...)
	}
	return ev, nil
}
