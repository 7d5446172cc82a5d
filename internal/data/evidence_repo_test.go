package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/testutil"
)

func TestEvidenceRepo_CreateAndRoundTrip(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := newTestJobRepo(db)
		repo := NewEvidenceRepo(db, RepoConfig{})
		job := seedJob(t, db, jobs)

		created, err := repo.Create(ctx, &model.Evidence{
			JobID:         job.ID,
			MediaType:     model.MediaTypePhoto,
			Category:      "exterior",
			FileKey:       "jobs/" + job.ID + "/front.jpg",
			FileName:      "front.jpg",
			FileSize:      2048,
			MimeType:      "image/jpeg",
			CapturedAt:    time.Now().Add(-time.Minute),
			Latitude:      testutil.Float64Ptr(40.7128),
			Longitude:     testutil.Float64Ptr(-74.0060),
			IntegrityHash: "abc123",
			Verified:      true,
			Flags:         model.EvidenceFlags{DistanceFromPropertyMiles: 0.1},
			EXIF:          json.RawMessage(`{"Make":"Apple"}`),
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.JobID)
		assert.Equal(t, model.MediaTypePhoto, got.MediaType)
		assert.Equal(t, "abc123", got.IntegrityHash)
		assert.True(t, got.Verified)
		assert.InDelta(t, 0.1, got.Flags.DistanceFromPropertyMiles, 1e-9)
		require.NotNil(t, got.Latitude)
		assert.InDelta(t, 40.7128, *got.Latitude, 1e-9)
		assert.JSONEq(t, `{"Make":"Apple"}`, string(got.EXIF))

		count, err := repo.CountByJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		list, err := repo.ListByJob(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})
}

func TestEvidenceRepo_Delete(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := newTestJobRepo(db)
		repo := NewEvidenceRepo(db, RepoConfig{})
		job := seedJob(t, db, jobs)
		seedEvidenceRows(t, db, job.ID, 1)

		list, err := repo.ListByJob(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		deleted, err := repo.Delete(ctx, list[0].ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, list[0].ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.GetByID(ctx, list[0].ID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
