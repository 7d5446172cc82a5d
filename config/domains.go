package config

import (
	"time"
)

// SLAConfig maps job types to their completion windows. Windows come from
// configuration, never hardcoded arithmetic in the domain.
type SLAConfig struct {
	// OnsitePhotosWindow is the completion window for photo-only visits.
	OnsitePhotosWindow time.Duration `env:"SLA_ONSITE_PHOTOS_WINDOW" envDefault:"72h"`

	// CertifiedAppraisalWindow is the completion window for certified appraisals.
	CertifiedAppraisalWindow time.Duration `env:"SLA_CERTIFIED_APPRAISAL_WINDOW" envDefault:"120h"`

	// FallbackWindow applies to job types missing from the table.
	FallbackWindow time.Duration `env:"SLA_FALLBACK_WINDOW" envDefault:"120h"`

	// StatsCacheTTL bounds how stale the cached SLA dashboard read may be.
	StatsCacheTTL time.Duration `env:"SLA_STATS_CACHE_TTL" envDefault:"30s"`
}

// Sanitize applies guardrails to SLA configuration values.
func (s *SLAConfig) Sanitize() {
	if s.OnsitePhotosWindow <= 0 {
		s.OnsitePhotosWindow = 72 * time.Hour
	}
	if s.CertifiedAppraisalWindow <= 0 {
		s.CertifiedAppraisalWindow = 120 * time.Hour
	}
	if s.FallbackWindow <= 0 {
		s.FallbackWindow = 120 * time.Hour
	}
	if s.StatsCacheTTL <= 0 {
		s.StatsCacheTTL = 30 * time.Second
	}
}

// PayoutConfig contains payout reconciliation configuration.
type PayoutConfig struct {
	// StripeAPIKey authenticates against the transfer provider. The default
	// only suits a local stripe-mock; production must override it.
	StripeAPIKey string `env:"STRIPE_API_KEY" envDefault:"sk_test_fieldproof"`

	// StripeBaseURL overrides the provider endpoint, for test doubles.
	StripeBaseURL string `env:"STRIPE_BASE_URL"`

	// Currency is the three-letter currency code for transfers.
	Currency string `env:"PAYOUT_CURRENCY" envDefault:"usd"`

	// GatewayTimeout bounds one transfer call.
	GatewayTimeout time.Duration `env:"PAYOUT_GATEWAY_TIMEOUT" envDefault:"30s"`

	// StaleAfter is how long a payout may sit PROCESSING before the sweeper
	// fails it.
	StaleAfter time.Duration `env:"PAYOUT_STALE_AFTER" envDefault:"1h"`

	// SweepInterval opts in to an in-process ticker failing stuck PROCESSING
	// payouts. Off by default: sweeping is normally triggered externally via
	// the admin payouts-sweep command on a cron.
	SweepInterval time.Duration `env:"PAYOUT_SWEEP_INTERVAL" envDefault:"0"`
}

// Sanitize applies guardrails to payout configuration values.
func (p *PayoutConfig) Sanitize() {
	if p.GatewayTimeout < time.Second {
		p.GatewayTimeout = time.Second
	}
	if p.StaleAfter < time.Minute {
		p.StaleAfter = time.Minute
	}
}

// EvidenceConfig contains evidence capture configuration.
type EvidenceConfig struct {
	// MinEvidence is the number of evidence rows required before submission.
	MinEvidence int `env:"EVIDENCE_MIN_COUNT" envDefault:"5"`

	// MaxFileSize is the largest accepted evidence object, in bytes.
	MaxFileSize int64 `env:"EVIDENCE_MAX_FILE_SIZE" envDefault:"10485760"`

	// UploadTTL bounds how long a presigned upload slot stays valid.
	UploadTTL time.Duration `env:"EVIDENCE_UPLOAD_TTL" envDefault:"15m"`

	// ExifLatitudeExpr, ExifLongitudeExpr and ExifCapturedAtExpr are JMESPath
	// expressions pulling cross-check hints out of the client EXIF blob.
	// Empty disables the corresponding check.
	ExifLatitudeExpr   string `env:"EVIDENCE_EXIF_LAT_EXPR" envDefault:"gps.lat"`
	ExifLongitudeExpr  string `env:"EVIDENCE_EXIF_LON_EXPR" envDefault:"gps.lon"`
	ExifCapturedAtExpr string `env:"EVIDENCE_EXIF_CAPTURED_AT_EXPR" envDefault:"exif.DateTimeOriginal"`
}

// Sanitize applies guardrails to evidence configuration values.
func (e *EvidenceConfig) Sanitize() {
	if e.MinEvidence < 1 {
		e.MinEvidence = 1
	}
	if e.MaxFileSize < 1 {
		e.MaxFileSize = 10 << 20
	}
	if e.UploadTTL < time.Minute {
		e.UploadTTL = time.Minute
	}
}

// StorageConfig contains S3-compatible object storage configuration for
// evidence media.
type StorageConfig struct {
	Endpoint  string `env:"ENDPOINT"   envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"fieldproof"`
	SecretKey string `env:"SECRET_KEY" envDefault:"fieldproof"`
	Bucket    string `env:"BUCKET"     envDefault:"fieldproof-evidence"`
	Region    string `env:"REGION"     envDefault:"us-east-1"`
	UseSSL    bool   `env:"USE_SSL"    envDefault:"false"`

	// PublicBaseURL overrides unsigned URLs, for CDN-fronted buckets.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:""`
}

// NotifyConfig contains appraiser notification configuration.
type NotifyConfig struct {
	// WebhookURL is the notification service endpoint. Empty disables
	// dispatch announcements.
	WebhookURL string `env:"WEBHOOK_URL" envDefault:""`

	// AuthToken is the bearer token for the notification service.
	AuthToken string `env:"AUTH_TOKEN" envDefault:""`

	// RadiusMiles is how far from the property to announce new jobs.
	RadiusMiles float64 `env:"RADIUS_MILES" envDefault:"50"`
}

// Sanitize applies guardrails to notification configuration values.
func (n *NotifyConfig) Sanitize() {
	if n.RadiusMiles <= 0 {
		n.RadiusMiles = 50
	}
}
