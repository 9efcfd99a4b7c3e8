package util

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/taskrank/pkg/model"
	"google.golang.org/api/calendar/v3"
)

func scoredTask() model.Task {
	return model.Task{
		ID:                 "12345678-1234-1234-1234-123456789012",
		Title:              "Test Task",
		DueDate:            model.NewDate(time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)),
		PastDue:            true,
		EstimatedHours:     2,
		Importance:         8,
		Dependencies:       []string{"abc"},
		Confidence:         0.75,
		Incomplete:         true,
		ValidationWarnings: []string{"Task 'Test Task': Missing importance. Using default 5."},
		Score:              78.456,
		Priority:           model.PriorityHigh,
		Explanation:        "OVERDUE task: high importance",
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":         0,
		"PT1H":     time.Hour,
		"PT30M":    30 * time.Minute,
		"PT1H30M":  90 * time.Minute,
		"PT2H0M5S": 2*time.Hour + 5*time.Second,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil {
			t.Errorf("ParseDuration(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDuration(%q): expected %s, got %s", in, want, got)
		}
	}

	for _, bad := range []string{"1H", "P1D", "PT", "PTxyz"} {
		if _, err := ParseDuration(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestConvertTaskToCalendarEvent(t *testing.T) {
	task := scoredTask()

	event, err := ConvertTaskToCalendarEvent(task)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}

	if event.ExtendedProperties == nil || event.ExtendedProperties.Private == nil {
		t.Fatal("ExtendedProperties or Private map is nil")
	}
	if val, ok := event.ExtendedProperties.Private[TaskIDProperty]; !ok || val != task.ID {
		t.Errorf("Expected %s %s, got %v", TaskIDProperty, task.ID, val)
	}

	if event.Summary != "! [High] Test Task (78.5)" {
		t.Errorf("Expected overdue summary, got: %s", event.Summary)
	}
	if event.ColorId != "11" {
		t.Errorf("Expected color 11, got %s", event.ColorId)
	}
	if event.Start.Date != "2023-01-01" || event.End.Date != "2023-01-02" {
		t.Errorf("Expected all-day event on 2023-01-01, got %s..%s", event.Start.Date, event.End.Date)
	}

	for _, want := range []string{"OVERDUE task: high importance", "Score: 78.46 (High)", "Confidence: 0.75", "Depends on: abc", "Missing importance", "Task ID: " + task.ID} {
		if !strings.Contains(event.Description, want) {
			t.Errorf("Expected description to contain %q, got: %s", want, event.Description)
		}
	}
}

func TestConvertTaskToCalendarEvent_NoDueDate(t *testing.T) {
	if _, err := ConvertTaskToCalendarEvent(model.Task{ID: "x"}); err == nil {
		t.Error("Expected error for task without a due date")
	}
}

func TestEventSummary(t *testing.T) {
	task := scoredTask()
	task.PastDue = false
	task.Priority = model.PriorityLow
	task.Score = 12
	if got := EventSummary(task); got != "[Low] Test Task (12.0)" {
		t.Errorf("Expected plain summary, got %s", got)
	}
}

func TestColorForPriority(t *testing.T) {
	if ColorForPriority(model.PriorityHigh) != "11" || ColorForPriority(model.PriorityMedium) != "5" || ColorForPriority(model.PriorityLow) != "2" {
		t.Error("Unexpected priority colors")
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	target, err := ConvertTaskToCalendarEvent(scoredTask())
	if err != nil {
		t.Fatal(err)
	}

	same := *target
	if patch := EventNeedsUpdate(&same, target); patch != nil {
		t.Errorf("Expected no patch for identical events, got %+v", patch)
	}

	timed := *target
	timed.Start = &calendar.EventDateTime{DateTime: "2023-01-01T09:00:00Z"}
	timed.End = &calendar.EventDateTime{DateTime: "2023-01-02T09:00:00Z"}
	if patch := EventNeedsUpdate(&timed, target); patch != nil {
		t.Errorf("Expected timed event on same dates to match, got %+v", patch)
	}

	moved := *target
	moved.Summary = "old"
	moved.Start = &calendar.EventDateTime{Date: "2022-12-31"}
	patch := EventNeedsUpdate(&moved, target)
	if patch == nil {
		t.Fatal("Expected a patch")
	}
	if patch.Summary != target.Summary {
		t.Errorf("Expected summary %s, got %s", target.Summary, patch.Summary)
	}
	if patch.Start == nil || patch.Start.Date != "2023-01-01" {
		t.Errorf("Expected start date to be patched, got %+v", patch.Start)
	}
	if patch.Description != "" || patch.ColorId != "" {
		t.Errorf("Expected only changed fields in patch, got %+v", patch)
	}
}
