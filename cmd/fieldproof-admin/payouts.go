package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rowhq/fieldproof/internal/bootstrap"
	"github.com/rowhq/fieldproof/internal/data"
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/service"
)

const payoutCommandTimeout = 2 * time.Minute

// adminSession is the internal identity used for operator-invoked commands.
func adminSession() domainauth.Session {
	return domainauth.Session{ID: "fieldproof-admin", Role: domainauth.RoleAdmin}
}

type payoutsProcessOptions struct {
	AppraiserIDs []string
	Yes          bool
}

type payoutsRetryOptions struct {
	PaymentID string
}

func buildPayoutService(cmdCtx *commandContext, db *sql.DB) (*service.PayoutService, error) {
	gateway, err := bootstrap.BuildTransferGateway(cmdCtx.Config.Payout)
	if err != nil {
		return nil, err
	}

	repoCfg := data.RepoConfig{Logger: cmdCtx.Logger}
	return service.NewPayoutService(service.PayoutServiceOptions{
		Payments:       data.NewPayoutRepo(db, repoCfg),
		Appraisers:     data.NewAppraiserRepo(db),
		Gateway:        gateway,
		GatewayTimeout: cmdCtx.Config.Payout.GatewayTimeout,
		StaleAfter:     cmdCtx.Config.Payout.StaleAfter,
		Logger:         cmdCtx.Logger,
	})
}

func runPayoutsProcess(cmdCtx *commandContext, args []string) error {
	opts, err := parsePayoutsProcessFlags(args)
	if err != nil {
		return err
	}

	if !opts.Yes {
		if confirmErr := confirmAction("run a payout reconciliation pass (moves real money)"); confirmErr != nil {
			return confirmErr
		}
	}

	return withDatabase(cmdCtx, payoutCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		svc, buildErr := buildPayoutService(cmdCtx, db)
		if buildErr != nil {
			return buildErr
		}

		result, processErr := svc.Process(ctx, adminSession(), &model.ProcessPayoutsRequest{
			AppraiserIDs: opts.AppraiserIDs,
		})
		if processErr != nil {
			return fmt.Errorf("process payouts: %w", processErr)
		}

		return printBatchResult(result)
	})
}

func runPayoutsRetry(cmdCtx *commandContext, args []string) error {
	opts, err := parsePayoutsRetryFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, payoutCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		svc, buildErr := buildPayoutService(cmdCtx, db)
		if buildErr != nil {
			return buildErr
		}

		payment, retryErr := svc.Retry(ctx, adminSession(), opts.PaymentID)
		if retryErr != nil {
			return fmt.Errorf("retry payout: %w", retryErr)
		}

		return writef(os.Stdout, "Payout %s reset to %s\n", payment.ID, payment.Status)
	})
}

func runPayoutsPending(cmdCtx *commandContext, _ []string) error {
	return withDatabase(cmdCtx, payoutCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		svc, buildErr := buildPayoutService(cmdCtx, db)
		if buildErr != nil {
			return buildErr
		}

		pending, listErr := svc.ListPending(ctx, adminSession())
		if listErr != nil {
			return fmt.Errorf("list pending payouts: %w", listErr)
		}

		if len(pending) == 0 {
			return writeln(os.Stdout, "No pending payouts")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if err := writeln(w, "Payment ID\tAppraiser\tJob\tAmount (cents)"); err != nil {
			return fmt.Errorf("write pending header: %w", err)
		}
		for _, p := range pending {
			jobID := ""
			if p.RelatedJobID != nil {
				jobID = *p.RelatedJobID
			}
			if err := writef(w, "%s\t%s\t%s\t%d\n", p.ID, p.AppraiserID, jobID, p.AmountCents); err != nil {
				return fmt.Errorf("write pending row: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush pending table: %w", err)
		}
		return writef(os.Stdout, "\nTotal pending: %d\n", len(pending))
	})
}

func runPayoutsSweep(cmdCtx *commandContext, _ []string) error {
	return withDatabase(cmdCtx, payoutCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		svc, buildErr := buildPayoutService(cmdCtx, db)
		if buildErr != nil {
			return buildErr
		}

		swept, sweepErr := svc.SweepStale(ctx, adminSession())
		if sweepErr != nil {
			return fmt.Errorf("sweep stale payouts: %w", sweepErr)
		}

		return writef(os.Stdout, "Swept %d stale payouts\n", swept)
	})
}

func printBatchResult(result *model.PayoutBatchResult) error {
	if result == nil {
		return writeln(os.Stdout, "No payouts to process")
	}

	if err := writef(os.Stdout, "\nPayout Batch %s\n", result.BatchID); err != nil {
		return fmt.Errorf("print batch header: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(w, "Appraiser\tPayments\tAmount (cents)\tStatus\tDetail"); err != nil {
		return fmt.Errorf("print batch table header: %w", err)
	}
	for _, a := range result.Appraisers {
		status := "ok"
		detail := a.TransferID
		if !a.OK {
			status = "failed"
			detail = a.Error
		}
		if err := writef(w, "%s\t%d\t%d\t%s\t%s\n",
			a.AppraiserID, len(a.PaymentIDs), a.AmountCents, status, detail); err != nil {
			return fmt.Errorf("print batch row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush batch table: %w", err)
	}

	return writef(os.Stdout, "\nSettled %d payments (%d cents); failed %d payments (%d cents)\n",
		result.ProcessedCount, result.ProcessedAmountCents,
		result.FailedCount, result.FailedAmountCents)
}

func parsePayoutsProcessFlags(args []string) (payoutsProcessOptions, error) {
	fs := flag.NewFlagSet("payouts-process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts payoutsProcessOptions
	var appraisers string
	fs.StringVar(&appraisers, "appraisers", "", "Comma-separated appraiser IDs to narrow the pass (default: all)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return payoutsProcessOptions{}, err
	}

	for _, id := range strings.Split(appraisers, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			opts.AppraiserIDs = append(opts.AppraiserIDs, trimmed)
		}
	}

	return opts, nil
}

func parsePayoutsRetryFlags(args []string) (payoutsRetryOptions, error) {
	fs := flag.NewFlagSet("payouts-retry", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts payoutsRetryOptions
	fs.StringVar(&opts.PaymentID, "payment-id", "", "Payment ID to retry (required)")

	if err := fs.Parse(args); err != nil {
		return payoutsRetryOptions{}, err
	}

	opts.PaymentID = strings.TrimSpace(opts.PaymentID)
	if opts.PaymentID == "" {
		return payoutsRetryOptions{}, errors.New("--payment-id is required")
	}

	return opts, nil
}
