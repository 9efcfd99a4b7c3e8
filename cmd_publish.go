package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskrank/pkg/config"
	"github.com/harrisonrobin/taskrank/pkg/google"
	"github.com/harrisonrobin/taskrank/pkg/ledger"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

var publishOpts struct {
	sourceFlags
	scoreFlags
	calendar string
	limit    int
	schedule string
}

var publishCmd = &cobra.Command{
	Use:   "publish [file | filter... | org files...]",
	Short: "Publish the top-ranked tasks to Google Calendar",
	Long: `Rank tasks like "rank" does and keep the top N on a Google Calendar as
all-day events on their due dates. Events of tasks that dropped out of the
top N are deleted. Run "taskrank auth" once first.

With --schedule the command keeps running and republishes on a cron
schedule such as "@every 1h" or "0 7 * * 1-5".`,
	RunE: runPublish,
}

func init() {
	publishOpts.sourceFlags.register(publishCmd)
	publishOpts.scoreFlags.register(publishCmd)
	publishCmd.Flags().StringVar(&publishOpts.calendar, "calendar", "", "calendar name (default from config)")
	publishCmd.Flags().IntVar(&publishOpts.limit, "limit", 0, "number of tasks to publish (default from config)")
	publishCmd.Flags().StringVar(&publishOpts.schedule, "schedule", "", "republish on this cron schedule until interrupted")
}

func runPublish(cmd *cobra.Command, args []string) error {
	if _, err := publishLimit(cfg, publishOpts.limit); err != nil {
		return err
	}
	if publishOpts.schedule == "" {
		return publishOnce(cmd.Context(), cmd, args)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runScheduled(ctx, publishOpts.schedule, func(ctx context.Context) error {
		return publishOnce(ctx, cmd, args)
	})
}

func publishOnce(ctx context.Context, cmd *cobra.Command, args []string) error {
	limit, err := publishLimit(cfg, publishOpts.limit)
	if err != nil {
		return err
	}
	opts, err := publishOpts.scoreFlags.options(cfg, time.Now())
	if err != nil {
		return err
	}
	raw, err := publishOpts.sourceFlags.load(ctx, args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	res, err := scoring.Score(raw, opts)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Warn(w)
	}

	calendarName := cfg.Calendar
	if publishOpts.calendar != "" {
		calendarName = publishOpts.calendar
	}

	l, err := ledger.Open()
	if err != nil {
		return fmt.Errorf("failed to open publish ledger: %w", err)
	}
	client, err := google.NewClient(ctx, calendarName, l)
	if err != nil {
		return fmt.Errorf("error creating Google Calendar client: %w", err)
	}

	pub := &google.Publisher{Client: client, Ledger: l, Limit: limit, Log: log}
	report, err := pub.Publish(ctx, res.Tasks)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d created, %d updated, %d unchanged, %d removed\n",
		calendarName, report.Created, report.Updated, report.Unchanged, report.Removed)
	return err
}

// publishLimit picks the --limit flag when set, else the configured limit.
func publishLimit(c *config.Config, flag int) (int, error) {
	if flag > 0 {
		return flag, nil
	}
	if c.Publish.Limit <= 0 {
		return 0, fmt.Errorf("invalid publish.limit %d, must be at least 1", c.Publish.Limit)
	}
	return c.Publish.Limit, nil
}
