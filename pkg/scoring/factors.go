package scoring

import (
	"fmt"
	"math"

	"github.com/harrisonrobin/taskrank/pkg/model"
)

const (
	// Urgency of a task overdue for a long time decays toward this floor.
	overdueFloor = 0.20
	// Days for the overdue bonus above the floor to shrink by a factor of e.
	overdueDecayDays = 14.0
	// Tasks estimated at this many hours or more get no effort credit.
	maxEffortHours = 40.0
	// Blocking this many tasks earns the full dependency score.
	maxBlocking = 5.0
)

// FactorScore is one factor's normalized value in [0,1] together with the
// weight it was scored under and a short human-readable label. An empty label
// means the factor has nothing worth mentioning.
type FactorScore struct {
	Factor Factor  `json:"factor"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
	Label  string  `json:"label,omitempty"`
}

// Contribution is the weighted share of this factor in the total, on a 0-1
// scale.
func (f FactorScore) Contribution() float64 {
	return f.Weight * f.Value
}

// Breakdown holds the four factor scores of a task and its total score.
type Breakdown struct {
	Urgency    FactorScore `json:"urgency"`
	Importance FactorScore `json:"importance"`
	Effort     FactorScore `json:"effort"`
	Dependency FactorScore `json:"dependency"`
	Total      float64     `json:"total"`
}

// Factors returns the factor scores in scoring order.
func (b Breakdown) Factors() []FactorScore {
	return []FactorScore{b.Urgency, b.Importance, b.Effort, b.Dependency}
}

// ScoreTask computes the factor scores of task and its weighted total on a
// 0-100 scale, rounded to two decimals.
func ScoreTask(task model.Task, ref model.Date, blocking int, w Weights) Breakdown {
	b := Breakdown{
		Urgency:    urgencyScore(task, ref),
		Importance: importanceScore(task.Importance),
		Effort:     effortScore(task.EstimatedHours),
		Dependency: dependencyScore(blocking),
	}
	b.Urgency.Weight = w.Urgency
	b.Importance.Weight = w.Importance
	b.Effort.Weight = w.Effort
	b.Dependency.Weight = w.Dependency

	var total float64
	for _, f := range b.Factors() {
		total += f.Contribution()
	}
	b.Total = round(total*100, 2)
	return b
}

func urgencyScore(task model.Task, ref model.Date) FactorScore {
	s := FactorScore{Factor: FactorUrgency}
	if task.PastDue {
		overdue := task.DueDate.DaysUntil(ref)
		v := overdueFloor + (1-overdueFloor)*math.Exp(-float64(overdue)/overdueDecayDays)
		s.Value = round(math.Min(1, math.Max(0, v)), 4)
		s.Label = fmt.Sprintf("overdue by %dd", overdue)
		return s
	}

	days := ref.DaysUntil(task.DueDate)
	switch {
	case days <= 0:
		s.Value, s.Label = 0.98, "due today"
	case days <= 1:
		s.Value, s.Label = 0.95, "due tomorrow"
	case days <= 3:
		s.Value, s.Label = 0.85, "due very soon"
	case days <= 7:
		s.Value, s.Label = 0.70, "due this week"
	case days <= 14:
		s.Value, s.Label = 0.50, "due in 2 weeks"
	case days <= 30:
		s.Value, s.Label = 0.30, "due this month"
	default:
		s.Value = math.Max(0.05, 1/(1+math.Log(float64(days)/7)))
		s.Label = "due later"
	}
	return s
}

func importanceScore(importance float64) FactorScore {
	s := FactorScore{Factor: FactorImportance, Value: importance / 10}
	switch {
	case importance >= 9:
		s.Label = "critical importance"
	case importance >= 7:
		s.Label = "high importance"
	case importance >= 5:
		s.Label = "moderate importance"
	default:
		s.Label = "lower importance"
	}
	return s
}

func effortScore(hours float64) FactorScore {
	s := FactorScore{Factor: FactorEffort, Value: 1 - math.Min(hours/maxEffortHours, 1)}
	switch {
	case hours <= 1:
		s.Label = "quick win"
	case hours <= 3:
		s.Label = "short task"
	case hours <= 8:
		s.Label = "moderate effort"
	case hours <= 16:
		s.Label = "substantial effort"
	default:
		s.Label = "large project"
	}
	return s
}

func dependencyScore(blocking int) FactorScore {
	s := FactorScore{Factor: FactorDependency, Value: math.Min(float64(blocking)/maxBlocking, 1)}
	switch {
	case blocking == 1:
		s.Label = "blocks 1 task"
	case blocking > 1:
		s.Label = fmt.Sprintf("blocks %d tasks", blocking)
	}
	return s
}

// PriorityFor maps a 0-100 score to its priority label.
func PriorityFor(score float64) model.Priority {
	switch {
	case score >= 75:
		return model.PriorityHigh
	case score >= 50:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
