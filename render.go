package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/harrisonrobin/taskrank/pkg/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   cellStyle.Foreground(lipgloss.Color("#FF6B6B")),
		model.PriorityMedium: cellStyle.Foreground(lipgloss.Color("#F1FA8C")),
		model.PriorityLow:    cellStyle.Foreground(lipgloss.Color("#888888")),
	}
)

const priorityColumn = 2

func renderTable(tasks []model.Task) string {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		due := t.DueDate.String()
		if t.PastDue {
			due += " !"
		}
		title := t.Title
		if t.DependencyIssue {
			title += " ⟲"
		}
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", t.Score),
			string(t.Priority),
			due,
			title,
			t.Explanation,
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "SCORE", "PRIORITY", "DUE", "TITLE", "WHY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == priorityColumn && row >= 0 && row < len(tasks) {
				if s, ok := priorityStyles[tasks[row].Priority]; ok {
					return s
				}
			}
			return cellStyle
		}).
		String()
}

func renderWarnings(warnings []string) string {
	var b strings.Builder
	b.WriteString(warningStyle.Render(fmt.Sprintf("%d warning(s):", len(warnings))))
	for _, w := range warnings {
		b.WriteString("\n  ")
		b.WriteString(warningStyle.Render("• " + w))
	}
	return b.String()
}
