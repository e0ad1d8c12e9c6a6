// Package display renders analysis results for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agora-quant/agora/internal/models"
	"github.com/agora-quant/agora/internal/tools"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	buyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func actionStyle(action models.Decision) lipgloss.Style {
	switch action {
	case models.DecisionBuy:
		return buyStyle
	case models.DecisionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// RenderDecision renders the terminal decision panel.
func RenderDecision(decision *models.TradingDecision) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Analysis: %s (%s)", decision.Symbol, decision.TradeDate)))
	b.WriteString("\n")

	var panel strings.Builder
	fmt.Fprintf(&panel, "Decision:   %s\n", actionStyle(decision.Action).Render(string(decision.Action)))
	fmt.Fprintf(&panel, "Confidence: %.0f%%\n", decision.Confidence*100)
	if decision.Persisted {
		panel.WriteString("Stored:     yes\n")
	} else {
		panel.WriteString(dimStyle.Render("Stored:     no (below confidence threshold)") + "\n")
	}
	if decision.Reasoning != "" {
		fmt.Fprintf(&panel, "\n%s\n", decision.Reasoning)
	}

	b.WriteString(panelStyle.Render(panel.String()))
	b.WriteString("\n")
	return b.String()
}

// RenderReports renders a compact summary of every analyst report.
func RenderReports(state *models.TradingState) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Analyst Reports"))
	b.WriteString("\n")

	var panel strings.Builder
	for _, kind := range models.AllAnalystKinds() {
		report := state.Report(kind)
		if report == nil {
			continue
		}
		fmt.Fprintf(&panel, "%s (confidence %.2f)\n", strings.ToUpper(string(kind)), report.Confidence)
		for _, finding := range report.KeyFindings {
			fmt.Fprintf(&panel, "  - %s\n", finding)
		}
		panel.WriteString("\n")
	}

	b.WriteString(panelStyle.Render(strings.TrimRight(panel.String(), "\n")))
	b.WriteString("\n")
	return b.String()
}

// RenderMetrics renders the tool and analyst counters.
func RenderMetrics(snap map[string]tools.MetricSnapshot) string {
	if len(snap) == 0 {
		return ""
	}

	var panel strings.Builder
	for name, m := range snap {
		fmt.Fprintf(&panel, "%-24s calls=%d errors=%d success=%.0f%% mean=%s\n",
			name, m.Calls, m.Errors, m.SuccessRate*100, m.MeanLatency)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Metrics"))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(strings.TrimRight(panel.String(), "\n")))
	b.WriteString("\n")
	return b.String()
}
