package s3storage

// Package s3storage implements the evidence object store over any
// S3-compatible backend (AWS S3, MinIO) using presigned URLs. File bytes
// never pass through this service.

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rowhq/fieldproof/internal/ports"
)

// Config holds the S3 connection settings for the evidence bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicBaseURL overrides the unsigned URL prefix, for CDN-fronted
	// buckets. Defaults to the endpoint-and-bucket form.
	PublicBaseURL string
}

// Storage implements ports.ObjectStorage against an S3-compatible bucket.
type Storage struct {
	client        *minio.Client
	bucket        string
	region        string
	publicBaseURL string
	secure        bool
	endpoint      string
}

var _ ports.ObjectStorage = (*Storage)(nil)

// New creates a presigning storage client from Config.
func New(cfg Config) (*Storage, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3storage: Endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3storage: Bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &Storage{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		secure:        cfg.UseSSL,
		endpoint:      cfg.Endpoint,
	}, nil
}

// EnsureBucket makes sure the evidence bucket exists before serving traffic.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// GetUploadURL returns a presigned PUT slot for the given key.
func (s *Storage) GetUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (ports.UploadSlot, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, expiresIn)
	if err != nil {
		return ports.UploadSlot{}, fmt.Errorf("presign upload for %s: %w", key, err)
	}
	_ = contentType // the PUT signature does not pin content type; recorded at confirm time
	return ports.UploadSlot{
		UploadURL: u.String(),
		PublicURL: s.GetPublicURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}

// GetDownloadURL returns a presigned GET URL for the given key.
func (s *Storage) GetDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiresIn, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign download for %s: %w", key, err)
	}
	return u.String(), nil
}

// DeleteFile removes the object. Removing a missing object is a no-op on
// S3-compatible backends, which matches the port contract.
func (s *Storage) DeleteFile(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// GetPublicURL returns the unsigned URL for the given key.
func (s *Storage) GetPublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}
