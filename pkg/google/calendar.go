package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/harrisonrobin/taskrank/pkg/ledger"
	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/util"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

type SyncAction string

const (
	Created   SyncAction = "created"
	Updated   SyncAction = "updated"
	Unchanged SyncAction = "unchanged"
)

const (
	defaultRetryBase = 200 * time.Millisecond
	maxRetries       = 3
)

// CalendarClient is a Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	ledger     *ledger.Ledger
	// RetryBase is the first backoff delay for rate-limited or failed calls.
	RetryBase time.Duration
}

// NewCalendarClient creates a new Google Calendar client. l may be nil, in
// which case events are only found by their extended property.
func NewCalendarClient(srv *calendar.Service, calendarID string, l *ledger.Ledger) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, ledger: l, RetryBase: defaultRetryBase}
}

// transient reports whether a Calendar API error is worth retrying.
func transient(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
}

// withRetry runs call with exponential backoff on transient errors.
func withRetry[T any](ctx context.Context, c *CalendarClient, call func(context.Context) (T, error)) (T, error) {
	var out T
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := call(ctx)
		if err != nil {
			if transient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// SyncEvent creates the event for a scored task or patches the existing one.
func (c *CalendarClient) SyncEvent(ctx context.Context, task model.Task) (*calendar.Event, SyncAction, error) {
	event, err := util.ConvertTaskToCalendarEvent(task)
	if err != nil {
		return nil, "", err
	}

	var existingEvent *calendar.Event
	if c.ledger != nil {
		if entry, ok := c.ledger.Get(task.ID); ok && entry.GCalID != "" {
			existingEvent, err = withRetry(ctx, c, func(ctx context.Context) (*calendar.Event, error) {
				return c.srv.Events.Get(c.calendarID, entry.GCalID).Context(ctx).Do()
			})
			if err != nil || existingEvent.Status == "cancelled" {
				existingEvent = nil
			}
		}
	}

	if existingEvent == nil {
		existingEvent, err = c.GetEventByTaskID(ctx, task.ID)
		if err != nil {
			return nil, "", fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existingEvent == nil {
		created, err := withRetry(ctx, c, func(ctx context.Context) (*calendar.Event, error) {
			return c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
		})
		if err != nil {
			return nil, "", err
		}
		c.record(task, created.Id)
		return created, Created, nil
	}

	patch := util.EventNeedsUpdate(existingEvent, event)
	if patch == nil {
		c.record(task, existingEvent.Id)
		return existingEvent, Unchanged, nil
	}
	updated, err := c.PatchEvent(ctx, existingEvent.Id, patch)
	if err != nil {
		return nil, "", err
	}
	c.record(task, updated.Id)
	return updated, Updated, nil
}

func (c *CalendarClient) record(task model.Task, eventID string) {
	if c.ledger == nil {
		return
	}
	c.ledger.Set(ledger.Entry{
		TaskID:   task.ID,
		GCalID:   eventID,
		Title:    task.Title,
		Score:    task.Score,
		Priority: task.Priority,
	})
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return withRetry(ctx, c, func(ctx context.Context) (*calendar.Event, error) {
		return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
	})
}

// DeleteEvent deletes an event. An event that is already gone is not an error.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	_, err := withRetry(ctx, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	})
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return nil
	}
	return err
}

// GetEventByTaskID searches for an event carrying taskID in its private
// extended properties.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := withRetry(ctx, c, func(ctx context.Context) (*calendar.Events, error) {
		return c.srv.Events.List(c.calendarID).
			PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.TaskIDProperty, taskID)).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}
