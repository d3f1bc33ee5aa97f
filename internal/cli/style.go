package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(1, 5).
	MarginBottom(1).
	Align(lipgloss.Center).
	Border(lipgloss.RoundedBorder())

var summaryStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("#7D56F4"))

var summaryLabelStyle = lipgloss.NewStyle().
	Bold(true).
	Width(10)

type summaryItem struct {
	label string
	value int
}

// renderSummary draws the pass counters as a small bordered table.
func renderSummary(items ...summaryItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, summaryLabelStyle.Render(item.label)+fmt.Sprintf("%d", item.value))
	}
	return summaryStyle.Render(strings.Join(lines, "\n"))
}
