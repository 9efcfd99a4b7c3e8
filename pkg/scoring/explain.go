package scoring

import (
	"sort"
	"strings"

	"github.com/harrisonrobin/taskrank/pkg/model"
)

const defaultsNote = " (NOTE: used default values where fields were missing)"

// Explainer turns a task's factor breakdown into a human-readable sentence.
// It never influences the score.
type Explainer interface {
	Explain(task model.Task, b Breakdown) string
}

// ContributionExplainer names the factors that contributed most to a score.
type ContributionExplainer struct {
	// Factors contributing this much or less are not mentioned.
	Threshold float64
	// Only the top MaxFactors contributions are considered.
	MaxFactors int
}

// DefaultExplainer mentions up to three factors contributing more than 0.05.
func DefaultExplainer() ContributionExplainer {
	return ContributionExplainer{Threshold: 0.05, MaxFactors: 3}
}

func (e ContributionExplainer) Explain(task model.Task, b Breakdown) string {
	factors := b.Factors()
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Contribution() > factors[j].Contribution()
	})
	if e.MaxFactors >= 0 && len(factors) > e.MaxFactors {
		factors = factors[:e.MaxFactors]
	}

	var parts []string
	for _, f := range factors {
		if f.Label != "" && f.Contribution() > e.Threshold {
			parts = append(parts, f.Label)
		}
	}

	var explanation string
	switch {
	case task.PastDue:
		explanation = "OVERDUE task: " + strings.Join(parts, ", ")
	case len(parts) > 0:
		explanation = "Priority driven by: " + strings.Join(parts, ", ")
	default:
		explanation = "Standard priority task"
	}
	if task.Incomplete {
		explanation += defaultsNote
	}
	return explanation
}
