package ports

import (
	"context"

	"github.com/rowhq/fieldproof/internal/domain/model"
)

// AppraiserNotifier announces newly dispatched jobs to the external
// notification service. Dispatch treats it as fire-and-forget: failures are
// logged, never fatal.
type AppraiserNotifier interface {
	// NotifyNewJob announces the job to appraisers within radiusMiles and
	// returns how many were notified.
	NotifyNewJob(ctx context.Context, job *model.Job, radiusMiles float64) (int, error)
}
