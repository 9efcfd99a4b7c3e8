package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskrank/pkg/model"
)

const (
	defaultEstimatedHours = 1
	defaultImportance     = 5
	// Confidence lost per missing soft field.
	confidenceStep = 0.25
)

// ErrCoercion is returned when a supplied field value cannot be converted to
// the type scoring needs.
var ErrCoercion = errors.New("value cannot be coerced")

// Accepted due date layouts, tried in order after a trailing Z has been
// rewritten to +00:00.
var dueDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04",
}

// Normalize turns one raw record into a Task, substituting defaults for
// missing or malformed fields. Every repair is reported as a warning, both in
// the returned slice and on the task itself. The only error is a supplied
// value that cannot be converted to a number.
func Normalize(raw model.RawTask, index int, ref model.Date) (model.Task, []string, error) {
	var warnings []string
	task := model.Task{
		ID:    fmt.Sprintf("task_%d", index),
		Title: fmt.Sprintf("Untitled Task %d", index),
	}
	if v, ok := raw.Lookup("id"); ok && v != nil {
		task.ID = fmt.Sprint(v)
	}
	if v, ok := raw.Lookup("title"); ok && v != nil {
		task.Title = fmt.Sprint(v)
	}

	warn := func(format string, args ...any) {
		msg := fmt.Sprintf("Task '%s': ", task.Title) + fmt.Sprintf(format, args...)
		warnings = append(warnings, msg)
		task.Incomplete = true
	}

	// Due date
	if due, ok := parseDueDate(raw["due_date"]); ok {
		task.DueDate = due
		task.PastDue = due.Before(ref)
	} else {
		warn("Invalid or missing due date.")
		task.DueDate = ref
	}

	// Soft fields
	missing := 0
	if raw.Missing("estimated_hours") {
		missing++
		task.EstimatedHours = defaultEstimatedHours
		warn("Missing estimated_hours. Using default %d.", defaultEstimatedHours)
	} else {
		hours, err := toFloat(raw["estimated_hours"])
		if err != nil {
			return model.Task{}, nil, fmt.Errorf("task %d estimated_hours: %w", index, err)
		}
		task.EstimatedHours = hours
	}
	if raw.Missing("importance") {
		missing++
		task.Importance = defaultImportance
		warn("Missing importance. Using default %d.", defaultImportance)
	} else {
		importance, err := toFloat(raw["importance"])
		if err != nil {
			return model.Task{}, nil, fmt.Errorf("task %d importance: %w", index, err)
		}
		task.Importance = importance
	}

	// Dependencies
	task.Dependencies = []string{}
	if v, ok := raw.Lookup("dependencies"); ok {
		deps, isList := toIDList(v)
		if isList {
			task.Dependencies = deps
		} else {
			warn("Invalid dependencies format. Using empty list.")
		}
	}

	task.Confidence = round(math.Max(0, 1.0-confidenceStep*float64(missing)), 2)
	task.ValidationWarnings = append([]string{}, warnings...)
	return task, warnings, nil
}

func parseDueDate(v any) (model.Date, bool) {
	s, ok := v.(string)
	if !ok {
		return model.Date{}, false
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), "Z", "+00:00")
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.NewDate(t), true
		}
	}
	return model.Date{}, false
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrCoercion, x.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrCoercion, x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrCoercion, v)
}

// toIDList converts any slice into a list of string ids. The second result is
// false when v is not a slice.
func toIDList(v any) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	ids := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ids = append(ids, fmt.Sprint(rv.Index(i).Interface()))
	}
	return ids, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
