package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rowhq/fieldproof/config"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/service"
)

// shutdownWaitTimeout is the maximum time to wait for background work to stop.
const shutdownWaitTimeout = 15 * time.Second

// RunConfig contains dependencies for the application run loop.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunWithShutdown starts the HTTP server and the stale-payout sweeper, then
// blocks until a shutdown signal arrives.
func RunWithShutdown(cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})

	sweeperDone := startPayoutSweeper(ctx, cfg.Services.Payouts, cfg.Config.Payout.SweepInterval, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.Info("shutting down")
	cancel()

	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: context.Background(),
		Server:  server,
		Logger:  logger,
	}); err != nil {
		return err
	}

	if sweeperDone != nil {
		select {
		case <-sweeperDone:
		case <-time.After(shutdownWaitTimeout):
			logger.Warn("timeout waiting for payout sweeper to stop")
		}
	}

	return nil
}

// startPayoutSweeper periodically fails payouts stuck in PROCESSING so they
// become retryable. Runs with an internal admin identity.
func startPayoutSweeper(
	ctx context.Context,
	payouts *service.PayoutService,
	interval time.Duration,
	logger *slog.Logger,
) <-chan struct{} {
	if payouts == nil || interval <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sess := domainauth.Session{ID: "payout-sweeper", Role: domainauth.RoleAdmin}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				swept, err := payouts.SweepStale(ctx, sess)
				if err != nil {
					logger.ErrorContext(ctx, "stale payout sweep failed", "error", err)
					continue
				}
				if swept > 0 {
					logger.InfoContext(ctx, "stale payouts swept", "count", swept)
				}
			}
		}
	}()

	logger.Info("payout sweeper started", "interval", interval)
	return done
}
