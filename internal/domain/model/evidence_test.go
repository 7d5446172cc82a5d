package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmEvidenceRequest_Validate(t *testing.T) {
	t.Parallel()

	lat, lon := 40.0, -74.0
	valid := ConfirmEvidenceRequest{
		FileKey:    "jobs/j1/photo.jpg",
		FileName:   "photo.jpg",
		FileSize:   1024,
		MimeType:   "image/jpeg",
		MediaType:  MediaTypePhoto,
		CapturedAt: time.Now(),
		Latitude:   &lat,
		Longitude:  &lon,
	}
	require.NoError(t, valid.Validate(10<<20))

	tests := []struct {
		name   string
		mutate func(*ConfirmEvidenceRequest)
	}{
		{"missing file key", func(r *ConfirmEvidenceRequest) { r.FileKey = "" }},
		{"missing file name", func(r *ConfirmEvidenceRequest) { r.FileName = "" }},
		{"zero size", func(r *ConfirmEvidenceRequest) { r.FileSize = 0 }},
		{"oversized", func(r *ConfirmEvidenceRequest) { r.FileSize = 11 << 20 }},
		{"bad media type", func(r *ConfirmEvidenceRequest) { r.MediaType = "HOLOGRAM" }},
		{"no captured_at", func(r *ConfirmEvidenceRequest) { r.CapturedAt = time.Time{} }},
		{"lat without lon", func(r *ConfirmEvidenceRequest) { r.Longitude = nil }},
		{"lon without lat", func(r *ConfirmEvidenceRequest) { r.Latitude = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := valid
			tt.mutate(&req)
			assert.Error(t, req.Validate(10<<20))
		})
	}
}

func TestConfirmEvidenceRequest_NoCoordinatesIsAllowed(t *testing.T) {
	t.Parallel()

	req := ConfirmEvidenceRequest{
		FileKey:    "jobs/j1/doc.pdf",
		FileName:   "doc.pdf",
		FileSize:   2048,
		MimeType:   "application/pdf",
		MediaType:  MediaTypeDocument,
		CapturedAt: time.Now(),
	}
	assert.NoError(t, req.Validate(10<<20))
}

func TestMediaType_Valid(t *testing.T) {
	t.Parallel()

	for _, m := range []MediaType{MediaTypePhoto, MediaTypeVideo, MediaTypeDocument, MediaTypeFloorPlan, MediaTypeAudio} {
		assert.True(t, m.Valid())
	}
	assert.False(t, MediaType("GIF").Valid())
}
