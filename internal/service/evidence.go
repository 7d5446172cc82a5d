package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/rowhq/fieldproof/internal/core"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	domainevidence "github.com/rowhq/fieldproof/internal/domain/evidence"
	"github.com/rowhq/fieldproof/internal/domain/model"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/ports"
)

// EvidenceServiceOptions groups dependencies for EvidenceService.
type EvidenceServiceOptions struct {
	Evidence    core.EvidenceRepository   // Required: evidence repository
	Jobs        core.JobRepository        // Required: ownership and status checks
	Properties  core.PropertyRepository   // Required: reference coordinates for the validator
	Storage     ports.ObjectStorage       // Required: presigned upload/download slots
	Validator   *domainevidence.Validator // Required: trust-fact derivation
	MaxFileSize int64                     // Optional: upload size cap, defaults to 10 MiB
	UploadTTL   time.Duration             // Optional: presigned URL lifetime, defaults to 15 minutes
	Logger      *slog.Logger              // Optional: structured logger
	Now         func() time.Time          // Optional: clock override for tests
}

// EvidenceService manages evidence media for in-progress jobs: presigned
// uploads, confirmation with integrity evaluation, listing and pre-submission
// deletion. Suspicious evidence is stored and flagged, never rejected.
type EvidenceService struct {
	evidence    core.EvidenceRepository
	jobs        core.JobRepository
	properties  core.PropertyRepository
	storage     ports.ObjectStorage
	validator   *domainevidence.Validator
	maxFileSize int64
	uploadTTL   time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewEvidenceService constructs a new EvidenceService.
func NewEvidenceService(opts EvidenceServiceOptions) (*EvidenceService, error) {
	if opts.Evidence == nil {
		return nil, errors.New("EvidenceRepository is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Properties == nil {
		return nil, errors.New("PropertyRepository is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("ObjectStorage is required")
	}
	if opts.Validator == nil {
		return nil, errors.New("Validator is required")
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	uploadTTL := opts.UploadTTL
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "evidence_service")
	}

	return &EvidenceService{
		evidence:    opts.Evidence,
		jobs:        opts.Jobs,
		properties:  opts.Properties,
		storage:     opts.Storage,
		validator:   opts.Validator,
		maxFileSize: maxFileSize,
		uploadTTL:   uploadTTL,
		logger:      logger,
		now:         now,
	}, nil
}

// MustNewEvidenceService constructs a new EvidenceService and panics on error.
func MustNewEvidenceService(opts EvidenceServiceOptions) *EvidenceService {
	svc, err := NewEvidenceService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create EvidenceService: %v", err))
	}
	return svc
}

// capturableJob loads the job and checks the caller may attach or remove
// evidence on it: assigned appraiser, job still IN_PROGRESS.
func (s *EvidenceService) capturableJob(ctx context.Context, sess domainauth.Session, jobID string) (*model.Job, error) {
	if err := requireAppraiser(sess); err != nil {
		return nil, err
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsAssignedTo(sess.AppraiserID) {
		return nil, apperrors.Forbidden("Job is not assigned to you.")
	}
	if job.Status != model.JobStatusInProgress {
		return nil, apperrors.InvalidTransition(string(job.Status), string(model.JobStatusInProgress),
			"Evidence can only be changed while the inspection is in progress.")
	}
	return job, nil
}

// RequestUpload hands out a presigned PUT slot for one evidence file. The
// object key is server-generated; clients never choose their own keys.
func (s *EvidenceService) RequestUpload(ctx context.Context, sess domainauth.Session, jobID string, req *model.UploadURLRequest) (*model.UploadSlot, error) {
	if _, err := s.capturableJob(ctx, sess, jobID); err != nil {
		return nil, err
	}
	if req == nil || req.FileName == "" {
		return nil, apperrors.ValidationField("file_name", "A file name is required.")
	}

	key := fmt.Sprintf("jobs/%s/%s%s", jobID, uuid.NewString(), path.Ext(req.FileName))
	slot, err := s.storage.GetUploadURL(ctx, key, req.ContentType, s.uploadTTL)
	if err != nil {
		return nil, apperrors.Gateway("Failed to create upload URL.", err)
	}
	return &model.UploadSlot{
		UploadURL: slot.UploadURL,
		PublicURL: slot.PublicURL,
		Key:       slot.Key,
		ExpiresAt: slot.ExpiresAt,
	}, nil
}

// Confirm records a completed client upload, deriving the trust flags and the
// tamper-evidence hash. Suspicion never rejects the evidence.
func (s *EvidenceService) Confirm(ctx context.Context, sess domainauth.Session, jobID string, req *model.ConfirmEvidenceRequest) (*model.Evidence, error) {
	job, err := s.capturableJob(ctx, sess, jobID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("confirm request is required")
	}
	if err := req.Validate(s.maxFileSize); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var property *model.Property
	property, err = s.properties.GetByID(ctx, job.PropertyID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		property = nil
	}

	eval := s.validator.Evaluate(domainevidence.Input{
		FileKey:    req.FileKey,
		FileSize:   req.FileSize,
		CapturedAt: req.CapturedAt,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		EXIF:       req.EXIF,
	}, job, property, s.now())

	created, err := s.evidence.Create(ctx, &model.Evidence{
		JobID:         jobID,
		MediaType:     req.MediaType,
		Category:      req.Category,
		FileKey:       req.FileKey,
		FileName:      req.FileName,
		FileSize:      req.FileSize,
		MimeType:      req.MimeType,
		CapturedAt:    req.CapturedAt,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IntegrityHash: eval.IntegrityHash,
		Verified:      eval.Verified,
		Flags:         eval.Flags,
		EXIF:          req.EXIF,
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "evidence confirmed",
			"job_id", jobID,
			"evidence_id", created.ID,
			"verified", created.Verified,
		)
		if !created.Verified {
			s.logger.WarnContext(ctx, "evidence flagged",
				"job_id", jobID,
				"evidence_id", created.ID,
				"timestamp_suspicious", created.Flags.TimestampSuspicious,
				"location_suspicious", created.Flags.LocationSuspicious,
			)
		}
	}
	return created, nil
}

// List returns the evidence attached to a job. Admins see every job's
// evidence; appraisers only their own assignments.
func (s *EvidenceService) List(ctx context.Context, sess domainauth.Session, jobID string) ([]*model.Evidence, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !sess.IsAdmin() && !(sess.IsAppraiser() && job.IsAssignedTo(sess.AppraiserID)) {
		return nil, apperrors.Forbidden("You do not have access to this job's evidence.")
	}
	return s.evidence.ListByJob(ctx, jobID)
}

// DownloadURL returns a short-lived presigned GET URL for one evidence file.
func (s *EvidenceService) DownloadURL(ctx context.Context, sess domainauth.Session, evidenceID string) (string, error) {
	ev, err := s.evidence.GetByID(ctx, evidenceID)
	if err != nil {
		return "", err
	}
	job, err := s.jobs.GetByID(ctx, ev.JobID)
	if err != nil {
		return "", err
	}
	if !sess.IsAdmin() && !(sess.IsAppraiser() && job.IsAssignedTo(sess.AppraiserID)) {
		return "", apperrors.Forbidden("You do not have access to this evidence.")
	}

	url, err := s.storage.GetDownloadURL(ctx, ev.FileKey, s.uploadTTL)
	if err != nil {
		return "", apperrors.Gateway("Failed to create download URL.", err)
	}
	return url, nil
}

// Delete removes one evidence item before submission. The database row is the
// source of truth; a failed storage delete is logged and left for cleanup,
// never surfaced to the caller.
func (s *EvidenceService) Delete(ctx context.Context, sess domainauth.Session, jobID, evidenceID string) error {
	if _, err := s.capturableJob(ctx, sess, jobID); err != nil {
		return err
	}

	ev, err := s.evidence.GetByID(ctx, evidenceID)
	if err != nil {
		return err
	}
	if ev.JobID != jobID {
		return apperrors.NotFound("Evidence not found on this job.")
	}

	deleted, err := s.evidence.Delete(ctx, evidenceID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFound("Evidence not found.")
	}

	if err := s.storage.DeleteFile(ctx, ev.FileKey); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "orphaned evidence object",
			"evidence_id", evidenceID,
			"file_key", ev.FileKey,
			"error", err,
		)
	}
	return nil
}
