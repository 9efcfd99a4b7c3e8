package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/taskrank/pkg/ledger"
	"github.com/harrisonrobin/taskrank/pkg/logger"
	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/util"
)

// fakeCalendar implements the slice of the Calendar API the client uses.
type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string]*calendar.Event
	nextID  int
	inserts int
	patches int
	deletes int
	// unavailable makes the next n requests fail with 503.
	unavailable int
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]*calendar.Event)}
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unavailable > 0 {
		f.unavailable--
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"Backend Error"}}`))
		return
	}

	if strings.HasSuffix(r.URL.Path, "/users/me/calendarList") {
		writeJSON(w, &calendar.CalendarList{Items: []*calendar.CalendarListEntry{
			{Id: "personal", Summary: "Personal"},
			{Id: "tasks-cal", Summary: "Tasks"},
		}})
		return
	}

	i := strings.Index(r.URL.Path, "calendars/")
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(r.URL.Path[i:], "/")
	// calendars/{cal}/events[/{id}]
	if len(parts) < 3 || parts[2] != "events" {
		http.NotFound(w, r)
		return
	}
	eventID := ""
	if len(parts) > 3 {
		eventID = parts[3]
	}

	switch {
	case r.Method == http.MethodGet && eventID == "":
		var items []*calendar.Event
		if prop := r.URL.Query().Get("privateExtendedProperty"); prop != "" {
			key, value, _ := strings.Cut(prop, "=")
			for _, ev := range f.events {
				if ev.ExtendedProperties != nil && ev.ExtendedProperties.Private[key] == value {
					items = append(items, ev)
				}
			}
		}
		writeJSON(w, &calendar.Events{Items: items})
	case r.Method == http.MethodGet:
		ev, ok := f.events[eventID]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, ev)
	case r.Method == http.MethodPost:
		var ev calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nextID++
		ev.Id = fmt.Sprintf("ev-%d", f.nextID)
		f.events[ev.Id] = &ev
		f.inserts++
		writeJSON(w, &ev)
	case r.Method == http.MethodPatch:
		ev, ok := f.events[eventID]
		if !ok {
			notFound(w)
			return
		}
		var patch calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if patch.Summary != "" {
			ev.Summary = patch.Summary
		}
		if patch.Description != "" {
			ev.Description = patch.Description
		}
		if patch.ColorId != "" {
			ev.ColorId = patch.ColorId
		}
		if patch.Start != nil {
			ev.Start = patch.Start
		}
		if patch.End != nil {
			ev.End = patch.End
		}
		f.patches++
		writeJSON(w, ev)
	case r.Method == http.MethodDelete:
		if _, ok := f.events[eventID]; !ok {
			notFound(w)
			return
		}
		delete(f.events, eventID)
		f.deletes++
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
}

func newService(t *testing.T, fake *fakeCalendar) *calendar.Service {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	srv, err := calendar.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/calendar/v3/"),
		option.WithHTTPClient(ts.Client()),
	)
	require.NoError(t, err)
	return srv
}

func task(id string, score float64, due string) model.Task {
	d, _ := model.ParseDate(due)
	return model.Task{
		ID:             id,
		Title:          "Task " + id,
		DueDate:        d,
		EstimatedHours: 1,
		Importance:     5,
		Confidence:     1,
		Score:          score,
		Priority:       model.PriorityMedium,
		Explanation:    "Priority driven by: due this week",
	}
}

type harness struct {
	fake   *fakeCalendar
	ledger *ledger.Ledger
	pub    *Publisher
}

func newHarness(t *testing.T, limit int) harness {
	t.Helper()
	fake := newFakeCalendar()
	l, err := ledger.OpenPath(filepath.Join(t.TempDir(), "published.json"))
	require.NoError(t, err)
	client := NewCalendarClient(newService(t, fake), "tasks-cal", l)
	client.RetryBase = time.Millisecond
	return harness{
		fake:   fake,
		ledger: l,
		pub:    &Publisher{Client: client, Ledger: l, Limit: limit, Log: logger.Discard()},
	}
}

func TestPublish_CreatesTopN(t *testing.T) {
	h := newHarness(t, 2)
	ranked := []model.Task{task("a", 80, "2025-11-21"), task("b", 60, "2025-11-25"), task("c", 40, "2025-12-01")}

	report, err := h.pub.Publish(context.Background(), ranked)
	require.NoError(t, err)

	assert.Equal(t, Report{Created: 2}, report)
	assert.Equal(t, 2, h.fake.inserts)
	assert.Equal(t, 2, h.ledger.Len())

	entry, ok := h.ledger.Get("a")
	require.True(t, ok)
	ev := h.fake.events[entry.GCalID]
	require.NotNil(t, ev)
	assert.Equal(t, "[Medium] Task a (80.0)", ev.Summary)
	assert.Equal(t, "2025-11-21", ev.Start.Date)
	assert.Equal(t, "a", ev.ExtendedProperties.Private[util.TaskIDProperty])

	reloaded, err := ledger.OpenPath(h.ledger.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
}

func TestPublish_UnchangedAndUpdated(t *testing.T) {
	h := newHarness(t, 2)
	ranked := []model.Task{task("a", 80, "2025-11-21"), task("b", 60, "2025-11-25")}
	ctx := context.Background()

	_, err := h.pub.Publish(ctx, ranked)
	require.NoError(t, err)

	report, err := h.pub.Publish(ctx, ranked)
	require.NoError(t, err)
	assert.Equal(t, Report{Unchanged: 2}, report)
	assert.Equal(t, 0, h.fake.patches)

	ranked[0].Score = 91
	ranked[0].Priority = model.PriorityHigh
	report, err = h.pub.Publish(ctx, ranked)
	require.NoError(t, err)
	assert.Equal(t, Report{Updated: 1, Unchanged: 1}, report)
	assert.Equal(t, 1, h.fake.patches)

	entry, _ := h.ledger.Get("a")
	assert.Equal(t, "11", h.fake.events[entry.GCalID].ColorId)
	assert.Equal(t, 91.0, entry.Score)
}

func TestPublish_RemovesDroppedTasks(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	_, err := h.pub.Publish(ctx, []model.Task{task("a", 80, "2025-11-21"), task("b", 60, "2025-11-25")})
	require.NoError(t, err)
	dropped, _ := h.ledger.Get("b")

	report, err := h.pub.Publish(ctx, []model.Task{task("a", 80, "2025-11-21"), task("c", 70, "2025-11-22"), task("b", 60, "2025-11-25")})
	require.NoError(t, err)

	assert.Equal(t, Report{Created: 1, Unchanged: 1, Removed: 1}, report)
	assert.NotContains(t, h.fake.events, dropped.GCalID)
	_, ok := h.ledger.Get("b")
	assert.False(t, ok)
}

func TestPublish_RejectsNonPositiveLimit(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	_, err := h.pub.Publish(ctx, []model.Task{task("a", 80, "2025-11-21")})
	require.NoError(t, err)

	for _, limit := range []int{0, -1} {
		h.pub.Limit = limit
		report, err := h.pub.Publish(ctx, []model.Task{task("a", 80, "2025-11-21")})
		require.ErrorIs(t, err, ErrInvalidLimit)
		assert.Equal(t, Report{}, report)
	}

	assert.Equal(t, 0, h.fake.deletes)
	assert.Len(t, h.fake.events, 1)
	_, ok := h.ledger.Get("a")
	assert.True(t, ok)
}

func TestPublish_ExternallyDeletedEventIsForgotten(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	_, err := h.pub.Publish(ctx, []model.Task{task("a", 80, "2025-11-21")})
	require.NoError(t, err)
	entry, _ := h.ledger.Get("a")
	delete(h.fake.events, entry.GCalID)

	report, err := h.pub.Publish(ctx, []model.Task{task("z", 90, "2025-11-21")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 1, h.ledger.Len())
}

func TestSyncEvent_FindsEventWithoutLedger(t *testing.T) {
	fake := newFakeCalendar()
	srv := newService(t, fake)
	ctx := context.Background()

	first := NewCalendarClient(srv, "tasks-cal", nil)
	_, action, err := first.SyncEvent(ctx, task("a", 80, "2025-11-21"))
	require.NoError(t, err)
	assert.Equal(t, Created, action)

	l, err := ledger.OpenPath(filepath.Join(t.TempDir(), "published.json"))
	require.NoError(t, err)
	second := NewCalendarClient(srv, "tasks-cal", l)
	ev, action, err := second.SyncEvent(ctx, task("a", 80, "2025-11-21"))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, action)
	assert.Equal(t, 1, fake.inserts)

	entry, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, ev.Id, entry.GCalID)
}

func TestSyncEvent_RequiresDueDate(t *testing.T) {
	client := NewCalendarClient(newService(t, newFakeCalendar()), "tasks-cal", nil)
	_, _, err := client.SyncEvent(context.Background(), model.Task{ID: "x"})
	assert.Error(t, err)
}

func TestDeleteEvent_MissingIsNotAnError(t *testing.T) {
	client := NewCalendarClient(newService(t, newFakeCalendar()), "tasks-cal", nil)
	assert.NoError(t, client.DeleteEvent(context.Background(), "nope"))
}

func TestFindCalendar(t *testing.T) {
	srv := newService(t, newFakeCalendar())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := FindCalendar(ctx, srv, "Tasks")
	require.NoError(t, err)
	assert.Equal(t, "tasks-cal", id)

	_, err = FindCalendar(ctx, srv, "Missing")
	assert.ErrorContains(t, err, "calendar 'Missing' not found")
}

func TestSyncEvent_RetriesTransientErrors(t *testing.T) {
	fake := newFakeCalendar()
	client := NewCalendarClient(newService(t, fake), "tasks-cal", nil)
	client.RetryBase = time.Millisecond
	fake.unavailable = 2

	_, action, err := client.SyncEvent(context.Background(), task("a", 80, "2025-11-21"))
	require.NoError(t, err)
	assert.Equal(t, Created, action)
	assert.Equal(t, 1, fake.inserts)
}

func TestSyncEvent_GivesUpAfterRetries(t *testing.T) {
	fake := newFakeCalendar()
	client := NewCalendarClient(newService(t, fake), "tasks-cal", nil)
	client.RetryBase = time.Millisecond
	fake.unavailable = 100

	_, _, err := client.SyncEvent(context.Background(), task("a", 80, "2025-11-21"))
	require.Error(t, err)
	assert.True(t, transient(errors.Unwrap(err)) || transient(err))
	assert.Equal(t, 0, fake.inserts)
}
