package taskwarrior

import (
	"testing"
	"time"

	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

// setLocal swaps the local time zone for the duration of the test.
func setLocal(t *testing.T, loc *time.Location) {
	t.Helper()
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

func TestToRaw(t *testing.T) {
	setLocal(t, time.UTC)
	task := Task{
		UUID:        "u1",
		Description: "Write report",
		Status:      PENDING,
		Due:         &CustomTime{Time: time.Date(2025, 11, 30, 17, 0, 0, 0, time.UTC)},
		Priority:    "M",
		Depends:     Depends{"u0"},
		Est:         "PT1H30M",
	}

	raw := ToRaw(task)

	if raw["id"] != "u1" || raw["title"] != "Write report" {
		t.Errorf("Expected id and title to be copied, got %v", raw)
	}
	if raw["due_date"] != "2025-11-30T17:00:00Z" {
		t.Errorf("Expected RFC3339 due date, got %v", raw["due_date"])
	}
	if raw["estimated_hours"] != 1.5 {
		t.Errorf("Expected 1.5 hours, got %v", raw["estimated_hours"])
	}
	if raw["importance"] != 6.0 {
		t.Errorf("Expected importance 6, got %v", raw["importance"])
	}
	deps, ok := raw["dependencies"].([]string)
	if !ok || len(deps) != 1 || deps[0] != "u0" {
		t.Errorf("Expected dependencies [u0], got %v", raw["dependencies"])
	}
}

func TestToRaw_DueDateInLocalZone(t *testing.T) {
	setLocal(t, time.FixedZone("CEST", 2*60*60))

	// due:2026-10-20 entered in Berlin is exported as the UTC instant.
	var due CustomTime
	if err := due.UnmarshalJSON([]byte(`"20261019T220000Z"`)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	raw := ToRaw(Task{UUID: "u3", Description: "Berlin", Status: PENDING, Due: &due})

	if raw["due_date"] != "2026-10-20T00:00:00+02:00" {
		t.Errorf("Expected local due date, got %v", raw["due_date"])
	}

	ref, _ := model.ParseDate("2026-10-17")
	task, _, err := scoring.Normalize(raw, 0, ref)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := task.DueDate.String(); got != "2026-10-20" {
		t.Errorf("Expected due date 2026-10-20, got %s", got)
	}
	if task.PastDue {
		t.Errorf("Expected task not to be past due")
	}
}

func TestToRaw_LeavesUnknownFieldsOut(t *testing.T) {
	raw := ToRaw(Task{UUID: "u2", Description: "Bare", Status: PENDING, Est: "bogus"})

	for _, key := range []string{"due_date", "estimated_hours", "importance", "dependencies"} {
		if _, ok := raw[key]; ok {
			t.Errorf("Expected %s to be absent, got %v", key, raw[key])
		}
	}
}

func TestRawTasks_SkipsClosed(t *testing.T) {
	tasks := []Task{
		{UUID: "a", Status: PENDING},
		{UUID: "b", Status: COMPLETED},
		{UUID: "c", Status: WAITING},
		{UUID: "d", Status: DELETED},
	}

	raw := RawTasks(tasks)
	if len(raw) != 2 {
		t.Fatalf("Expected 2 open tasks, got %d", len(raw))
	}
	if raw[0]["id"] != "a" || raw[1]["id"] != "c" {
		t.Errorf("Expected a and c, got %v and %v", raw[0]["id"], raw[1]["id"])
	}
}
