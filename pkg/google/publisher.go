package google

import (
	"context"
	"errors"
	"fmt"

	charmlog "github.com/charmbracelet/log"

	"github.com/harrisonrobin/taskrank/pkg/ledger"
	"github.com/harrisonrobin/taskrank/pkg/logger"
	"github.com/harrisonrobin/taskrank/pkg/model"
)

// ErrInvalidLimit is returned by Publish when Limit is not positive. Such a
// run would treat every published event as stale.
var ErrInvalidLimit = errors.New("publish limit must be positive")

// Report counts what one publish run did.
type Report struct {
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Failed    []string
}

// Publisher keeps the calendar showing the current top suggestions.
type Publisher struct {
	Client *CalendarClient
	Ledger *ledger.Ledger
	// Limit is how many of the ranked tasks are published.
	Limit int
	Log   *charmlog.Logger
}

// Publish syncs the first Limit tasks of ranked (already sorted by score),
// deletes the events of previously published tasks that dropped out and
// saves the ledger. Per-task failures are collected and returned joined.
func (p *Publisher) Publish(ctx context.Context, ranked []model.Task) (Report, error) {
	if p.Limit <= 0 {
		return Report{}, fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	log := p.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}

	top := ranked
	if p.Limit < len(top) {
		top = top[:p.Limit]
	}

	var report Report
	var errs []error
	keep := make(map[string]bool, len(top))
	for _, task := range top {
		keep[task.ID] = true
		event, action, err := p.Client.SyncEvent(ctx, task)
		if err != nil {
			log.Error("failed to sync task", "task", task.ID, "err", err)
			report.Failed = append(report.Failed, task.ID)
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		log.Debug("synced task", "task", task.ID, "event", event.Id, "action", action)
		switch action {
		case Created:
			report.Created++
		case Updated:
			report.Updated++
		default:
			report.Unchanged++
		}
	}

	for _, entry := range p.Ledger.Stale(keep) {
		if err := p.Client.DeleteEvent(ctx, entry.GCalID); err != nil {
			log.Error("failed to remove event", "task", entry.TaskID, "event", entry.GCalID, "err", err)
			errs = append(errs, fmt.Errorf("removing %s: %w", entry.TaskID, err))
			continue
		}
		p.Ledger.Remove(entry.TaskID)
		report.Removed++
	}

	if err := p.Ledger.Save(); err != nil {
		errs = append(errs, fmt.Errorf("saving ledger: %w", err))
	}
	log.Info("published suggestions",
		"created", report.Created, "updated", report.Updated,
		"unchanged", report.Unchanged, "removed", report.Removed, "failed", len(report.Failed))
	return report, errors.Join(errs...)
}
