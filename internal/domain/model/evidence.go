package model

import (
	"encoding/json"
	"errors"
	"time"
)

// MediaType represents the kind of captured evidence artifact.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type MediaType string

const (
	// MediaTypePhoto is a still photograph.
	MediaTypePhoto MediaType = "PHOTO"
	// MediaTypeVideo is a video recording.
	MediaTypeVideo MediaType = "VIDEO"
	// MediaTypeDocument is a scanned or uploaded document.
	MediaTypeDocument MediaType = "DOCUMENT"
	// MediaTypeFloorPlan is a floor plan sketch or scan.
	MediaTypeFloorPlan MediaType = "FLOOR_PLAN"
	// MediaTypeAudio is an audio note.
	MediaTypeAudio MediaType = "AUDIO"
)

// Valid returns true if the MediaType is valid.
func (m MediaType) Valid() bool {
	switch m {
	case MediaTypePhoto, MediaTypeVideo, MediaTypeDocument, MediaTypeFloorPlan, MediaTypeAudio:
		return true
	}
	return false
}

// EvidenceFlags are the derived trust facts for one evidence artifact.
// Suspicious evidence is retained, never rejected; the flags are a review
// signal for admins.
type EvidenceFlags struct {
	TimestampSuspicious       bool    `json:"timestamp_suspicious"`
	LocationSuspicious        bool    `json:"location_suspicious"`
	DistanceFromPropertyMiles float64 `json:"distance_from_property_miles,omitempty"`
}

// Evidence is one captured media artifact tied to a job.
type Evidence struct {
	ID            string          `json:"id"                      db:"id"`
	JobID         string          `json:"job_id"                  db:"job_id"`
	MediaType     MediaType       `json:"media_type"              db:"media_type"`
	Category      string          `json:"category,omitempty"      db:"category"`
	FileKey       string          `json:"file_key"                db:"file_key"`
	FileName      string          `json:"file_name"               db:"file_name"`
	FileSize      int64           `json:"file_size"               db:"file_size"`
	MimeType      string          `json:"mime_type"               db:"mime_type"`
	CapturedAt    time.Time       `json:"captured_at"             db:"captured_at"`
	Latitude      *float64        `json:"latitude,omitempty"      db:"latitude"`
	Longitude     *float64        `json:"longitude,omitempty"     db:"longitude"`
	IntegrityHash string          `json:"integrity_hash"          db:"integrity_hash"`
	Verified      bool            `json:"verified"                db:"verified"`
	Flags         EvidenceFlags   `json:"flags"                   db:"flags"`
	EXIF          json.RawMessage `json:"exif,omitempty"          db:"exif"`
	CreatedAt     time.Time       `json:"created_at"              db:"created_at"`
}

// ConfirmEvidenceRequest records a completed client upload for a job.
// CapturedAt and the coordinates are claimed by the device; the integrity
// validator derives the trust facts from them.
type ConfirmEvidenceRequest struct {
	FileKey    string          `json:"file_key"`
	FileName   string          `json:"file_name"`
	FileSize   int64           `json:"file_size"`
	MimeType   string          `json:"mime_type"`
	MediaType  MediaType       `json:"media_type"`
	Category   string          `json:"category,omitempty"`
	CapturedAt time.Time       `json:"captured_at"`
	Latitude   *float64        `json:"latitude,omitempty"`
	Longitude  *float64        `json:"longitude,omitempty"`
	EXIF       json.RawMessage `json:"exif,omitempty"`
}

// Validate validates the ConfirmEvidenceRequest against the given size cap.
func (r *ConfirmEvidenceRequest) Validate(maxFileSize int64) error {
	if r.FileKey == "" {
		return errors.New("file key is required")
	}
	if r.FileName == "" {
		return errors.New("file name is required")
	}
	if r.FileSize <= 0 {
		return errors.New("file size must be positive")
	}
	if maxFileSize > 0 && r.FileSize > maxFileSize {
		return errors.New("file exceeds the maximum allowed size")
	}
	if !r.MediaType.Valid() {
		return errors.New("invalid media type")
	}
	if r.CapturedAt.IsZero() {
		return errors.New("captured_at is required")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return errors.New("latitude and longitude must be provided together")
	}
	return nil
}

// UploadURLRequest asks for a presigned upload slot for a new evidence file.
type UploadURLRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// UploadSlot is the presigned upload destination handed back to the client.
type UploadSlot struct {
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}
