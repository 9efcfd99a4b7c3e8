package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskrank/pkg/config"
	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

const tasksJSON = `[
  {"id": 1, "title": "A", "due_date": "2025-11-27", "estimated_hours": 1, "importance": 9},
  {"id": 2, "title": "B", "due_date": "2025-12-01", "estimated_hours": 4, "importance": 8},
  {"id": 3, "title": "C", "due_date": "2025-12-05", "estimated_hours": 2, "importance": 6},
  {"id": 4, "title": "D", "due_date": "2025-12-10", "estimated_hours": 1, "importance": 4}
]`

func TestDecodeRawTasks(t *testing.T) {
	raw, err := decodeRawTasks(strings.NewReader(tasksJSON))
	require.NoError(t, err)
	require.Len(t, raw, 4)
	assert.Equal(t, json.Number("1"), raw[0]["id"])

	wrapped, err := decodeRawTasks(strings.NewReader(`{"tasks": [{"title": "x"}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "x", wrapped[0]["title"])

	empty, err := decodeRawTasks(strings.NewReader("  "))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = decodeRawTasks(strings.NewReader(`[1, 2]`))
	assert.ErrorContains(t, err, "task 0 is not a JSON object")

	_, err = decodeRawTasks(strings.NewReader(`[{`))
	assert.Error(t, err)
}

func TestParseWeight(t *testing.T) {
	k, v, err := parseWeight("effort = 0.4")
	require.NoError(t, err)
	assert.Equal(t, "effort", k)
	assert.Equal(t, 0.4, v)

	for _, bad := range []string{"effort", "luck=1", "urgency=high"} {
		_, _, err := parseWeight(bad)
		assert.Error(t, err, bad)
	}
}

func TestScoreFlagsOptions(t *testing.T) {
	c := config.Default()
	c.Weights = map[string]float64{"urgency": 2, "effort": 1}
	now := time.Date(2025, 11, 20, 22, 0, 0, 0, time.UTC)

	f := scoreFlags{weights: []string{"effort=3"}, cycleMode: "path"}
	opts, err := f.options(c, now)
	require.NoError(t, err)
	assert.Equal(t, scoring.StrategySmart, opts.Strategy)
	assert.Equal(t, map[string]float64{"urgency": 2, "effort": 3}, opts.Overrides)
	assert.Equal(t, scoring.CycleModePath, opts.CycleMode)
	assert.Equal(t, "2025-11-20", opts.Reference.String())

	f = scoreFlags{strategy: "deadline", date: "2024-02-29", warnDangling: true}
	opts, err = f.options(c, now)
	require.NoError(t, err)
	assert.Equal(t, scoring.StrategyDeadline, opts.Strategy)
	assert.Equal(t, "2024-02-29", opts.Reference.String())
	assert.True(t, opts.WarnDangling)

	for _, bad := range []scoreFlags{{strategy: "yolo"}, {date: "tomorrow"}, {cycleMode: "dfs"}, {weights: []string{"x"}}} {
		_, err := bad.options(c, now)
		assert.Error(t, err, "%+v", bad)
	}
}

func TestSourceFlagsLoad(t *testing.T) {
	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(tasksJSON), 0600))
	orgFile := filepath.Join(dir, "todo.org")
	require.NoError(t, os.WriteFile(orgFile, []byte("* TODO [#A] Ship :work:\n:PROPERTIES:\n:ID: s1\n:END:\n* TODO Rest :home:\n:PROPERTIES:\n:END:\n"), 0600))
	ctx := context.Background()

	s := sourceFlags{source: sourceJSON}
	raw, err := s.load(ctx, []string{jsonFile}, nil)
	require.NoError(t, err)
	assert.Len(t, raw, 4)

	raw, err = s.load(ctx, nil, strings.NewReader(`[{"title": "stdin"}]`))
	require.NoError(t, err)
	assert.Len(t, raw, 1)

	_, err = s.load(ctx, []string{"a", "b"}, nil)
	assert.Error(t, err)

	s = sourceFlags{source: sourceOrg, tag: "work"}
	raw, err = s.load(ctx, []string{orgFile}, nil)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "s1", raw[0]["id"])

	s = sourceFlags{source: sourceOrg}
	_, err = s.load(ctx, nil, nil)
	assert.Error(t, err)

	s = sourceFlags{source: "csv"}
	_, err = s.load(ctx, nil, nil)
	assert.ErrorContains(t, err, "unknown source")
}

func TestPrintRanking(t *testing.T) {
	raw, err := decodeRawTasks(strings.NewReader(tasksJSON))
	require.NoError(t, err)
	ref, _ := model.ParseDate("2025-11-20")
	res, err := scoring.Score(raw, scoring.Options{Strategy: scoring.StrategySmart, Reference: ref})
	require.NoError(t, err)

	var table bytes.Buffer
	require.NoError(t, printRanking(&table, res.Top(2), []string{"something odd"}, false))
	out := table.String()
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "2025-11-27")
	assert.NotContains(t, out, "2025-12-05")
	assert.Contains(t, out, "something odd")

	var js bytes.Buffer
	require.NoError(t, printRanking(&js, res.Top(3), res.Warnings, true))
	var decoded struct {
		Tasks    []model.Task `json:"tasks"`
		Warnings []string     `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	require.Len(t, decoded.Tasks, 3)
	assert.Equal(t, "1", decoded.Tasks[0].ID)

	var none bytes.Buffer
	require.NoError(t, printRanking(&none, nil, nil, false))
	assert.Equal(t, "No tasks to rank.\n", none.String())
}

func TestRankCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	file := filepath.Join(home, "tasks.json")
	require.NoError(t, os.WriteFile(file, []byte(tasksJSON), 0600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"rank", "--date", "2025-11-20", "--top", "3", "--json", file})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var res struct {
		Tasks []model.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res), out.String())
	require.Len(t, res.Tasks, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{res.Tasks[0].ID, res.Tasks[1].ID, res.Tasks[2].ID})
}

func TestPublishLimit(t *testing.T) {
	c := config.Default()
	c.Publish.Limit = 5

	limit, err := publishLimit(c, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	limit, err = publishLimit(c, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limit)

	for _, bad := range []int{0, -3} {
		c.Publish.Limit = bad
		_, err = publishLimit(c, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "publish.limit")

		limit, err = publishLimit(c, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, limit)
	}
}
