package ports

import (
	"context"
	"time"
)

// UploadSlot is a presigned upload destination for one object.
type UploadSlot struct {
	UploadURL string
	PublicURL string
	Key       string
	ExpiresAt time.Time
}

// ObjectStorage is the contract for the evidence media store. Implementations
// hand out presigned URLs; the core never streams file bytes itself.
type ObjectStorage interface {
	// GetUploadURL returns a presigned PUT slot for the given object key.
	GetUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (UploadSlot, error)

	// GetDownloadURL returns a presigned GET URL for the given object key.
	GetDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// DeleteFile removes the object. Missing objects are not an error.
	DeleteFile(ctx context.Context, key string) error

	// GetPublicURL returns the unsigned public URL for the given key.
	GetPublicURL(key string) string
}
