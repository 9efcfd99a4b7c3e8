package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// runScheduled runs job on the cron schedule expr until ctx is done. Runs
// never overlap; a run that is still going when the next one is due is
// skipped. Job errors are logged and do not stop the schedule.
func runScheduled(ctx context.Context, expr string, job func(context.Context) error) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(expr, func() {
		if err := job(ctx); err != nil {
			log.Error("scheduled run failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	log.Info("scheduled", "schedule", expr)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
