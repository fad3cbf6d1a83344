package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
)

func runJobCommand() *cobra.Command {
	var (
		job    string
		date   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "run-job",
		Short: "Run one notification job immediately",
		Long:  "Runs host_reminder, secretary_status, announcement or rating_request as of --date (default today). Intended for external schedulers.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobType, err := models.ParseJobType(job)
			if err != nil {
				return err
			}
			return runJob(cmd.Context(), jobType, date, dryRun)
		},
	}
	cmd.Flags().StringVar(&job, "job", "", "job to run")
	cmd.Flags().StringVar(&date, "date", "", "evaluate as of this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan deliveries without sending or logging them")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func runJob(ctx context.Context, job models.JobType, rawDate string, dryRun bool) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	app, err := newApplication(cfg, logr)
	if err != nil {
		return err
	}
	defer app.close()

	today := app.calendar.DateOf(time.Now())
	if rawDate != "" {
		if today, err = app.calendar.ParseDate(rawDate); err != nil {
			return err
		}
	}

	result, err := app.notifications.Run(ctx, job, today, service.RunOptions{DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("%s: %w", job, err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
