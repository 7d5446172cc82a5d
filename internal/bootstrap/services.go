package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rowhq/fieldproof/config"
	"github.com/rowhq/fieldproof/internal/data"
	domainevidence "github.com/rowhq/fieldproof/internal/domain/evidence"
	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/domain/sla"
	"github.com/rowhq/fieldproof/internal/ports"
	"github.com/rowhq/fieldproof/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs     *service.JobService
	Evidence *service.EvidenceService
	Payouts  *service.PayoutService
	SLA      *service.SLAService
	Auth     *service.AuthService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Storage     ports.ObjectStorage
	Gateway     ports.TransferGateway
	Notifier    ports.AppraiserNotifier
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Jobs       *data.JobRepo
	Evidence   *data.EvidenceRepo
	Payouts    *data.PayoutRepo
	Appraisers *data.AppraiserRepo
	Properties *data.PropertyRepo
	Cache      *data.RedisCacheRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, logger *slog.Logger) *serviceRepositories {
	repoCfg := data.RepoConfig{Logger: logger}
	repos := &serviceRepositories{
		Jobs:       data.NewJobRepo(db, repoCfg),
		Evidence:   data.NewEvidenceRepo(db, repoCfg),
		Payouts:    data.NewPayoutRepo(db, repoCfg),
		Appraisers: data.NewAppraiserRepo(db),
		Properties: data.NewPropertyRepo(db),
	}
	if redisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

func newSLAPolicy(cfg config.SLAConfig) *sla.Policy {
	return sla.NewPolicy(map[model.JobType]time.Duration{
		model.JobTypeOnsitePhotos:       cfg.OnsitePhotosWindow,
		model.JobTypeCertifiedAppraisal: cfg.CertifiedAppraisalWindow,
	}, cfg.FallbackWindow)
}

// NewServices wires business services from repositories and adapters.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
		appCfg.Sanitize()
	}

	repos := buildRepositories(deps.DB, deps.RedisClient, logger)
	policy := newSLAPolicy(appCfg.SLA)

	jobSvc, err := service.NewJobService(service.JobServiceOptions{
		Jobs:              repos.Jobs,
		Appraisers:        repos.Appraisers,
		Properties:        repos.Properties,
		Payments:          repos.Payouts,
		SLAPolicy:         policy,
		MinEvidence:       appCfg.Evidence.MinEvidence,
		Notifier:          deps.Notifier,
		NotifyRadiusMiles: appCfg.Notify.RadiusMiles,
		Logger:            logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	hints, err := domainevidence.NewHintExtractor(domainevidence.HintExpressions{
		Latitude:   appCfg.Evidence.ExifLatitudeExpr,
		Longitude:  appCfg.Evidence.ExifLongitudeExpr,
		CapturedAt: appCfg.Evidence.ExifCapturedAtExpr,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build exif hint extractor: %w", err)
	}

	evidenceSvc, err := service.NewEvidenceService(service.EvidenceServiceOptions{
		Evidence:    repos.Evidence,
		Jobs:        repos.Jobs,
		Properties:  repos.Properties,
		Storage:     deps.Storage,
		Validator:   domainevidence.NewValidator(domainevidence.Options{Hints: hints}),
		MaxFileSize: appCfg.Evidence.MaxFileSize,
		UploadTTL:   appCfg.Evidence.UploadTTL,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	payoutSvc, err := service.NewPayoutService(service.PayoutServiceOptions{
		Payments:       repos.Payouts,
		Appraisers:     repos.Appraisers,
		Gateway:        deps.Gateway,
		GatewayTimeout: appCfg.Payout.GatewayTimeout,
		StaleAfter:     appCfg.Payout.StaleAfter,
		Logger:         logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	slaOpts := service.SLAServiceOptions{
		Jobs:     repos.Jobs,
		CacheTTL: appCfg.SLA.StatsCacheTTL,
		Logger:   logger,
	}
	if repos.Cache != nil {
		slaOpts.Cache = repos.Cache
	}
	slaSvc, err := service.NewSLAService(slaOpts)
	if err != nil {
		return ServiceContainer{}, err
	}

	authSvc := BuildAuthService(AuthConfig{
		Auth:        appCfg.Auth,
		RedisClient: deps.RedisClient,
		Appraisers:  repos.Appraisers,
		Logger:      logger,
	})
	if authSvc == nil {
		return ServiceContainer{}, errors.New("auth is not configured: set OAUTH_DISCOVERY_URL or AUTH_MODE=mock")
	}

	return ServiceContainer{
		Jobs:     jobSvc,
		Evidence: evidenceSvc,
		Payouts:  payoutSvc,
		SLA:      slaSvc,
		Auth:     authSvc,
	}, nil
}
