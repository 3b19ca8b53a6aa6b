package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/services/projection"
	"github.com/j-veylop/claude-tracker/internal/ui/components"
	"github.com/j-veylop/claude-tracker/internal/ui/styles"
)

const chartHeight = 8

var docStyle = lipgloss.NewStyle().Padding(1, 2)

// View renders the history tab.
func (m *Model) View() string {
	switch {
	case m.account == "" && m.state.Registry().Len() == 0:
		return m.renderMessage("No accounts configured.")
	case m.source == nil:
		return m.renderMessage("Usage history is unavailable.")
	case m.loading || !m.loaded:
		return m.renderMessage("Loading history data...")
	case m.err != nil:
		return docStyle.Width(m.width).Render(
			fmt.Sprintf("%s %v", styles.ErrorTextStyle.Render("Error:"), m.err))
	case len(m.points) == 0:
		return m.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderChart(),
		m.renderPeaks(),
	)
	m.viewport.SetContent(content)

	return docStyle.Width(m.width).Render(m.viewport.View())
}

func (m *Model) renderMessage(text string) string {
	return docStyle.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		styles.HelpStyle.Render(text),
	))
}

func (m *Model) renderEmpty() string {
	return docStyle.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		styles.HelpStyle.Render("No usage recorded in this range yet."),
		styles.HelpStyle.Render("Data appears as usage is fetched."),
	))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History: " + m.account)

	rangeIndicator := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary).
		Render(fmt.Sprintf("[t] %s", m.rng))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if n := len(m.points); n > 0 {
		first, last := m.points[0].FetchedAt, m.points[n-1].FetchedAt
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("%d samples: %s → %s",
			n, first.Local().Format("Jan 2 15:04"), last.Local().Format("Jan 2 15:04")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderChart() string {
	cardWidth := max(m.width-6, 40)

	rows := []string{styles.SubTitleStyle.Render("Utilization"), ""}

	chart := components.RenderUsageChart(m.points, max(cardWidth-12, 30), chartHeight,
		"5-hour (red) vs 7-day (blue)")
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	fiveHour, _ := components.UsageSeries(m.points)
	peak := 0.0
	for _, v := range fiveHour {
		peak = max(peak, v)
	}
	rows = append(rows, "",
		fmt.Sprintf("  Peak 5h: %s  Trend: %s",
			components.FormatPercent(int(peak)),
			components.RenderSparkline(fiveHour, 30)),
	)

	now := m.now()
	proj := projection.Calculate(m.points, now)
	rows = append(rows, "  Projection: "+projectionStyle(proj.Status).Render(projection.Summary(proj, now)))

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func projectionStyle(status models.ProjectionStatus) lipgloss.Style {
	switch status {
	case models.ProjectionCritical:
		return styles.ErrorTextStyle
	case models.ProjectionWarning:
		return styles.WarningTextStyle
	case models.ProjectionSafe:
		return styles.SuccessTextStyle
	default:
		return styles.HelpStyle
	}
}

func (m *Model) renderPeaks() string {
	if len(m.peaks) == 0 {
		return ""
	}
	cardWidth := max(m.width-6, 40)
	rows := []string{
		styles.SubTitleStyle.Render("Daily Peaks"),
		"",
		components.RenderPeakBars(m.peaks, cardWidth-20),
	}
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
