package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rowhq/fieldproof/config"
	"github.com/rowhq/fieldproof/internal/adapters/s3storage"
	"github.com/rowhq/fieldproof/internal/adapters/stripeconnect"
	"github.com/rowhq/fieldproof/internal/adapters/webhooknotify"
	"github.com/rowhq/fieldproof/internal/ports"
)

// BuildStorage creates the evidence object store and ensures the bucket
// exists.
func BuildStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*s3storage.Storage, error) {
	store, err := s3storage.New(s3storage.Config{
		Endpoint:      cfg.Endpoint,
		AccessKey:     cfg.AccessKey,
		SecretKey:     cfg.SecretKey,
		Bucket:        cfg.Bucket,
		Region:        cfg.Region,
		UseSSL:        cfg.UseSSL,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage: %w", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure evidence bucket: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "object storage ready", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	}

	return store, nil
}

// BuildTransferGateway creates the payout transfer gateway.
//
//nolint:ireturn // gateway selection is a config concern
func BuildTransferGateway(cfg config.PayoutConfig) (ports.TransferGateway, error) {
	gw, err := stripeconnect.NewGateway(stripeconnect.Config{
		APIKey:   cfg.StripeAPIKey,
		BaseURL:  cfg.StripeBaseURL,
		Currency: cfg.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("create payout gateway: %w", err)
	}
	return gw, nil
}

// BuildNotifier creates the appraiser dispatch notifier. Returns nil when no
// webhook is configured; dispatch then proceeds without announcements.
//
//nolint:ireturn // notifier selection is a config concern
func BuildNotifier(cfg config.NotifyConfig, logger *slog.Logger) ports.AppraiserNotifier {
	if cfg.WebhookURL == "" {
		return nil
	}

	n, err := webhooknotify.NewNotifier(webhooknotify.Config{
		URL:       cfg.WebhookURL,
		AuthToken: cfg.AuthToken,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create dispatch notifier, announcements disabled", "error", err)
		}
		return nil
	}
	return n
}
