package taskwarrior

import (
	"time"

	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/util"
)

var priorityImportance = map[string]float64{
	"H": 9,
	"M": 6,
	"L": 3,
}

// Rankable reports whether the task is still open.
func (t Task) Rankable() bool {
	return t.Status == PENDING || t.Status == WAITING
}

// ToRaw maps a Taskwarrior task onto the scoring input. Fields Taskwarrior
// does not carry are left out so the scorer applies its defaults.
func ToRaw(t Task) model.RawTask {
	raw := model.RawTask{
		"id":    t.UUID,
		"title": t.Description,
	}
	// Export times are UTC; a date-only due is local midnight, so the
	// calendar day is taken in the local zone.
	if t.Due != nil && !t.Due.IsZero() {
		raw["due_date"] = t.Due.Time.Local().Format(time.RFC3339)
	}
	if est, err := util.ParseDuration(t.Est); err == nil && est > 0 {
		raw["estimated_hours"] = est.Hours()
	}
	if imp, ok := priorityImportance[t.Priority]; ok {
		raw["importance"] = imp
	}
	if len(t.Depends) > 0 {
		raw["dependencies"] = []string(t.Depends)
	}
	return raw
}

// RawTasks converts the open tasks in tasks.
func RawTasks(tasks []Task) []model.RawTask {
	raw := make([]model.RawTask, 0, len(tasks))
	for _, t := range tasks {
		if t.Rankable() {
			raw = append(raw, ToRaw(t))
		}
	}
	return raw
}
