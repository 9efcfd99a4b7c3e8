package scoring

import "github.com/harrisonrobin/taskrank/pkg/model"

// BlockingCounts returns, for every task id in the batch, how many dependency
// references point at it. References to ids outside the batch are ignored.
func BlockingCounts(tasks []model.Task) map[string]int {
	counts := make(map[string]int, len(tasks))
	for _, t := range tasks {
		counts[t.ID] = 0
	}
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := counts[dep]; ok {
				counts[dep]++
			}
		}
	}
	return counts
}
