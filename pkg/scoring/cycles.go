package scoring

import (
	"fmt"
	"sort"

	"github.com/harrisonrobin/taskrank/pkg/model"
)

// CycleMode selects how dependency cycles are detected.
type CycleMode string

const (
	// CycleModeSCC reports every task that belongs to a strongly connected
	// component of more than one task, or that depends on itself.
	CycleModeSCC CycleMode = "scc"
	// CycleModePath flags every task on the DFS path whenever a back edge is
	// found. It matches the historical behavior and can both over-report
	// (ancestors leading into a cycle) and under-report (members of
	// overlapping cycles reached through visited nodes).
	CycleModePath CycleMode = "path"
)

// ParseCycleMode validates a cycle mode name. The empty string selects
// CycleModeSCC.
func ParseCycleMode(s string) (CycleMode, error) {
	switch CycleMode(s) {
	case "", CycleModeSCC:
		return CycleModeSCC, nil
	case CycleModePath:
		return CycleModePath, nil
	}
	return "", fmt.Errorf("unknown cycle mode %q (want %q or %q)", s, CycleModeSCC, CycleModePath)
}

// depGraph is the dependency graph of a batch over dense indices. Dependency
// ids that do not name a task in the batch are dropped.
type depGraph struct {
	ids   []string
	edges [][]int
}

func newDepGraph(tasks []model.Task) *depGraph {
	g := &depGraph{}
	index := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if _, ok := index[t.ID]; !ok {
			index[t.ID] = len(g.ids)
			g.ids = append(g.ids, t.ID)
		}
	}
	g.edges = make([][]int, len(g.ids))
	// A repeated id takes the dependencies of its last occurrence.
	for _, t := range tasks {
		var out []int
		for _, dep := range t.Dependencies {
			if w, ok := index[dep]; ok {
				out = append(out, w)
			}
		}
		g.edges[index[t.ID]] = out
	}
	return g
}

// DetectCycles returns the sorted ids of the tasks implicated in a dependency
// cycle.
func DetectCycles(tasks []model.Task, mode CycleMode) []string {
	g := newDepGraph(tasks)
	var members []bool
	if mode == CycleModePath {
		members = g.pathMembers()
	} else {
		members = g.sccMembers()
	}

	var ids []string
	for i, in := range members {
		if in {
			ids = append(ids, g.ids[i])
		}
	}
	sort.Strings(ids)
	return ids
}

type dfsFrame struct {
	v    int
	edge int
}

// sccMembers runs Tarjan's algorithm with an explicit call stack.
func (g *depGraph) sccMembers() []bool {
	n := len(g.ids)
	members := make([]bool, n)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	next := 0

	visit := func(v int) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		visit(root)
		call := []dfsFrame{{v: root}}
		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.v
			if top.edge < len(g.edges[v]) {
				w := g.edges[v][top.edge]
				top.edge++
				if index[w] == -1 {
					visit(w)
					call = append(call, dfsFrame{v: w})
				} else if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
				continue
			}

			if low[v] == index[v] {
				var component []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					component = append(component, w)
					if w == v {
						break
					}
				}
				if len(component) > 1 || g.hasSelfEdge(v) {
					for _, w := range component {
						members[w] = true
					}
				}
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].v
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
		}
	}
	return members
}

// pathMembers flags the whole DFS stack each time an edge reaches a task that
// is still on the stack.
func (g *depGraph) pathMembers() []bool {
	n := len(g.ids)
	members := make([]bool, n)
	visited := make([]bool, n)
	onStack := make([]bool, n)

	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		visited[root] = true
		onStack[root] = true
		call := []dfsFrame{{v: root}}
		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.v
			if top.edge < len(g.edges[v]) {
				w := g.edges[v][top.edge]
				top.edge++
				switch {
				case onStack[w]:
					for _, f := range call {
						members[f.v] = true
					}
				case !visited[w]:
					visited[w] = true
					onStack[w] = true
					call = append(call, dfsFrame{v: w})
				}
				continue
			}
			onStack[v] = false
			call = call[:len(call)-1]
		}
	}
	return members
}

func (g *depGraph) hasSelfEdge(v int) bool {
	for _, w := range g.edges[v] {
		if w == v {
			return true
		}
	}
	return false
}

// DanglingDependencies returns, per task index, the dependency ids that do
// not name any task in the batch.
func DanglingDependencies(tasks []model.Task) map[int][]string {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	dangling := make(map[int][]string)
	for i, t := range tasks {
		for _, dep := range t.Dependencies {
			if !known[dep] {
				dangling[i] = append(dangling[i], dep)
			}
		}
	}
	return dangling
}
