package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rowhq/fieldproof/internal/data"
	"github.com/rowhq/fieldproof/internal/service"
)

type slaReportOptions struct {
	RawJSON bool
}

func runSLAReport(cmdCtx *commandContext, args []string) error {
	opts, err := parseSLAReportFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, time.Minute, func(ctx context.Context, db *sql.DB) error {
		svc, buildErr := service.NewSLAService(service.SLAServiceOptions{
			Jobs:   data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}),
			Logger: cmdCtx.Logger,
		})
		if buildErr != nil {
			return buildErr
		}

		stats, statsErr := svc.Stats(ctx, adminSession())
		if statsErr != nil {
			return fmt.Errorf("compute sla stats: %w", statsErr)
		}

		if opts.RawJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		if err := writef(os.Stdout, "\nSLA Report (%s)\n", stats.GeneratedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("print report header: %w", err)
		}
		if err := writef(os.Stdout, "Active jobs:   %d\n", stats.ActiveJobs); err != nil {
			return fmt.Errorf("print active jobs: %w", err)
		}
		if err := writef(os.Stdout, "Breached jobs: %d\n", stats.BreachedJobs); err != nil {
			return fmt.Errorf("print breached jobs: %w", err)
		}
		if err := writef(os.Stdout, "Breach rate:   %.1f%%\n", stats.BreachRate*100); err != nil {
			return fmt.Errorf("print breach rate: %w", err)
		}

		if len(stats.Breaches) == 0 {
			return writeln(os.Stdout, "\nNo jobs past their SLA due date.")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if err := writeln(w, "\nJob ID\tStatus\tAppraiser\tDue\tHours Overdue"); err != nil {
			return fmt.Errorf("print breach header: %w", err)
		}
		for _, b := range stats.Breaches {
			appraiser := "(unassigned)"
			if b.AppraiserID != nil {
				appraiser = *b.AppraiserID
			}
			if err := writef(w, "%s\t%s\t%s\t%s\t%.1f\n",
				b.JobID, b.Status, appraiser,
				b.SLADueAt.Format(time.RFC3339), b.HoursOverdue); err != nil {
				return fmt.Errorf("print breach row: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush breach table: %w", err)
		}
		return nil
	})
}

func parseSLAReportFlags(args []string) (slaReportOptions, error) {
	fs := flag.NewFlagSet("sla-report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts slaReportOptions
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the report as JSON")

	if err := fs.Parse(args); err != nil {
		return slaReportOptions{}, err
	}

	return opts, nil
}
