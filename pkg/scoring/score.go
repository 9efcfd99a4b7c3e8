// Package scoring ranks a batch of tasks by a weighted mix of deadline
// urgency, importance, effort and how many other tasks each one blocks.
//
// Scoring is a pure function of the batch, the options and the reference
// date: nothing is cached or shared between calls, so Score may be called
// concurrently on independent batches.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harrisonrobin/taskrank/pkg/model"
)

// ErrNoReference is returned when Options.Reference is not set.
var ErrNoReference = errors.New("reference date is required")

// Options configures one scoring run.
type Options struct {
	Strategy Strategy
	// Overrides replace individual strategy weights before renormalization.
	Overrides map[string]float64
	// Reference is the date considered "today".
	Reference model.Date
	CycleMode CycleMode
	// WarnDangling adds a warning for each dependency id missing from the batch.
	WarnDangling bool
	// Explainer defaults to DefaultExplainer.
	Explainer Explainer
}

// Result is a scored batch ordered by descending score.
type Result struct {
	Tasks    []model.Task `json:"tasks"`
	Warnings []string     `json:"warnings"`
	// Cycles lists the ids implicated in dependency cycles.
	Cycles  []string `json:"-"`
	Weights Weights  `json:"-"`
}

// Top returns at most the first n tasks.
func (r *Result) Top(n int) []model.Task {
	if n < 0 || n >= len(r.Tasks) {
		return r.Tasks
	}
	return r.Tasks[:n]
}

// Score normalizes raw, flags dependency cycles, scores every task and sorts
// the batch by score. Data-quality problems become warnings; an error is
// returned only when a supplied value cannot be used at all.
func Score(raw []model.RawTask, opts Options) (*Result, error) {
	if opts.Reference.IsZero() {
		return nil, ErrNoReference
	}
	ref := opts.Reference
	explainer := opts.Explainer
	if explainer == nil {
		explainer = DefaultExplainer()
	}

	res := &Result{Tasks: make([]model.Task, 0, len(raw)), Warnings: []string{}}
	for i, r := range raw {
		task, warnings, err := Normalize(r, i, ref)
		if err != nil {
			return nil, fmt.Errorf("normalizing tasks: %w", err)
		}
		res.Warnings = append(res.Warnings, warnings...)
		res.Tasks = append(res.Tasks, task)
	}
	if len(res.Tasks) == 0 {
		return res, nil
	}

	res.Cycles = DetectCycles(res.Tasks, opts.CycleMode)
	if len(res.Cycles) > 0 {
		res.Warnings = append(res.Warnings,
			"Circular dependencies detected involving tasks: "+strings.Join(res.Cycles, ", "))
		inCycle := make(map[string]bool, len(res.Cycles))
		for _, id := range res.Cycles {
			inCycle[id] = true
		}
		for i := range res.Tasks {
			if inCycle[res.Tasks[i].ID] {
				res.Tasks[i].DependencyIssue = true
			}
		}
	}

	if opts.WarnDangling {
		dangling := DanglingDependencies(res.Tasks)
		for i := range res.Tasks {
			for _, dep := range dangling[i] {
				msg := fmt.Sprintf("Task '%s': Unknown dependency '%s' ignored.", res.Tasks[i].Title, dep)
				res.Warnings = append(res.Warnings, msg)
				res.Tasks[i].ValidationWarnings = append(res.Tasks[i].ValidationWarnings, msg)
			}
		}
	}

	blocking := BlockingCounts(res.Tasks)
	res.Weights = ResolveWeights(opts.Strategy, opts.Overrides)

	for i := range res.Tasks {
		t := &res.Tasks[i]
		b := ScoreTask(*t, ref, blocking[t.ID], res.Weights)
		t.Score = b.Total
		t.Priority = PriorityFor(b.Total)
		t.Explanation = explainer.Explain(*t, b)
	}

	sort.SliceStable(res.Tasks, func(i, j int) bool {
		return res.Tasks[i].Score > res.Tasks[j].Score
	})
	return res, nil
}
