package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskrank/pkg/model"
	"google.golang.org/api/calendar/v3"
)

// TaskIDProperty is the private extended property that ties an event to a task.
const TaskIDProperty = "taskrank_id"

var durationPart = regexp.MustCompile(`(\d+)([HMS])`)

// ParseDuration parses ISO 8601 duration format (PT1H30M) from Taskwarrior JSON export
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}

	// Remove 'P' prefix and check for 'T' (time component)
	s = s[1:]
	if len(s) == 0 || s[0] != 'T' {
		return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): P%s", s)
	}
	s = s[1:]

	var total time.Duration
	for _, match := range durationPart.FindAllStringSubmatch(s, -1) {
		value, _ := strconv.Atoi(match[1])
		switch match[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: PT%s", s)
	}

	return total, nil
}

// ColorForPriority maps a priority to a Google Calendar color id
// (11 tomato, 5 banana, 2 sage).
func ColorForPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "11"
	case model.PriorityMedium:
		return "5"
	default:
		return "2"
	}
}

// EventSummary is the title a scored task gets on the calendar.
func EventSummary(task model.Task) string {
	summary := fmt.Sprintf("[%s] %s (%.1f)", task.Priority, task.Title, task.Score)
	if task.PastDue {
		summary = "! " + summary
	}
	return summary
}

// EventNeedsUpdate returns a patch event if the fields shared between the
// existing calendar event and the target (newly converted) event differ.
func EventNeedsUpdate(existingEvent *calendar.Event, targetEvent *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existingEvent.Summary != targetEvent.Summary {
		patch.Summary = targetEvent.Summary
		needsUpdate = true
	}

	if existingEvent.Description != targetEvent.Description {
		patch.Description = targetEvent.Description
		needsUpdate = true
	}

	if existingEvent.ColorId != targetEvent.ColorId {
		patch.ColorId = targetEvent.ColorId
		needsUpdate = true
	}

	if eventDate(existingEvent.Start) != eventDate(targetEvent.Start) || eventDate(existingEvent.End) != eventDate(targetEvent.End) {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

// eventDate returns the calendar date of an all-day or timed boundary.
func eventDate(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.Date != "" {
		return dt.Date
	}
	if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
		return t.Format("2006-01-02")
	}
	return dt.DateTime
}

// ConvertTaskToCalendarEvent turns a scored task into an all-day event on
// its due date.
func ConvertTaskToCalendarEvent(task model.Task) (*calendar.Event, error) {
	if task.DueDate.IsZero() {
		return nil, fmt.Errorf("task %s has no due date", task.ID)
	}

	var desc strings.Builder
	if task.Explanation != "" {
		desc.WriteString(task.Explanation)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Score: %.2f (%s)\n", task.Score, task.Priority)
	fmt.Fprintf(&desc, "Confidence: %.2f\n", task.Confidence)
	fmt.Fprintf(&desc, "Estimate: %gh, importance %g/10\n", task.EstimatedHours, task.Importance)
	if len(task.Dependencies) > 0 {
		fmt.Fprintf(&desc, "Depends on: %s\n", strings.Join(task.Dependencies, ", "))
	}
	if task.DependencyIssue {
		desc.WriteString("• part of a dependency cycle\n")
	}
	if len(task.ValidationWarnings) > 0 {
		desc.WriteString("\nWarnings:\n")
		for _, w := range task.ValidationWarnings {
			fmt.Fprintf(&desc, "‣ %s\n", w)
		}
	}
	fmt.Fprintf(&desc, "\nTask ID: %s\n", task.ID)

	return &calendar.Event{
		Summary:     EventSummary(task),
		ColorId:     ColorForPriority(task.Priority),
		Description: desc.String(),
		Start: &calendar.EventDateTime{
			Date: task.DueDate.String(),
		},
		End: &calendar.EventDateTime{
			Date: task.DueDate.AddDate(0, 0, 1).Format("2006-01-02"),
		},
		Transparency: "transparent",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: task.ID,
			},
		},
	}, nil
}
