package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowhq/fieldproof/internal/data"
	"github.com/rowhq/fieldproof/internal/service"
)

func TestStartPayoutSweeper_OptIn(t *testing.T) {
	svc, err := service.NewPayoutService(service.PayoutServiceOptions{
		Payments:   data.NewPayoutRepo(nil, data.RepoConfig{}),
		Appraisers: data.NewAppraiserRepo(nil),
		Gateway:    stubGateway{},
	})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Periodic sweeping is externally triggered unless an interval opts in.
	assert.Nil(t, startPayoutSweeper(context.Background(), svc, 0, logger))
	assert.Nil(t, startPayoutSweeper(context.Background(), svc, -time.Minute, logger))
	assert.Nil(t, startPayoutSweeper(context.Background(), nil, time.Minute, logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := startPayoutSweeper(ctx, svc, time.Hour, logger)
	require.NotNil(t, done)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
