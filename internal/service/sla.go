package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rowhq/fieldproof/internal/core"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/sla"
)

// slaStatsCacheKey is where one rendered Stats payload lives in the cache.
const slaStatsCacheKey = "fieldproof:sla:stats"

// SLAServiceOptions groups dependencies for SLAService.
type SLAServiceOptions struct {
	Jobs     core.JobRepository   // Required: active and overdue job queries
	Cache    core.CacheRepository // Optional: short-lived stats cache
	CacheTTL time.Duration        // Optional: stats cache lifetime, defaults to 30s
	Logger   *slog.Logger         // Optional: structured logger
	Now      func() time.Time     // Optional: clock override for tests
}

// SLAService serves the breach dashboard read model. Stats are computed from
// the live job table and cached briefly; the cache is an optimization, its
// failure never blocks the read.
type SLAService struct {
	jobs     core.JobRepository
	cache    core.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSLAService constructs a new SLAService.
func NewSLAService(opts SLAServiceOptions) (*SLAService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sla_service")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &SLAService{
		jobs:     opts.Jobs,
		cache:    opts.Cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      now,
	}, nil
}

// MustNewSLAService constructs a new SLAService and panics on error.
func MustNewSLAService(opts SLAServiceOptions) *SLAService {
	svc, err := NewSLAService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create SLAService: %v", err))
	}
	return svc
}

// Stats returns the current SLA dashboard: active job count, breached jobs
// with hours overdue, and the breach rate. Admin only.
func (s *SLAService) Stats(ctx context.Context, sess domainauth.Session) (*sla.Stats, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	if cached := s.cachedStats(ctx); cached != nil {
		return cached, nil
	}

	now := s.now()
	active, err := s.jobs.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	overdue, err := s.jobs.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	stats := &sla.Stats{
		ActiveJobs:   active,
		BreachedJobs: len(overdue),
		Breaches:     make([]sla.Breach, 0, len(overdue)),
		GeneratedAt:  now,
	}
	if active > 0 {
		stats.BreachRate = math.Round(float64(len(overdue))/float64(active)*1000) / 1000
	}
	for _, job := range overdue {
		stats.Breaches = append(stats.Breaches, sla.Breach{
			JobID:        job.ID,
			Status:       job.Status,
			AppraiserID:  job.AssignedAppraiserID,
			SLADueAt:     *job.SLADueAt,
			HoursOverdue: sla.HoursOverdue(*job.SLADueAt, now),
		})
	}

	s.storeStats(ctx, stats)
	return stats, nil
}

func (s *SLAService) cachedStats(ctx context.Context) *sla.Stats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, slaStatsCacheKey)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "sla stats cache read failed", "error", err)
		}
		return nil
	}
	if raw == nil {
		return nil
	}
	var stats sla.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "sla stats cache entry corrupt", "error", err)
		}
		return nil
	}
	return &stats
}

func (s *SLAService) storeStats(ctx context.Context, stats *sla.Stats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, slaStatsCacheKey, raw, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "sla stats cache write failed", "error", err)
	}
}
