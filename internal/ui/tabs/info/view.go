package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claude-tracker/internal/ui/styles"
	"github.com/j-veylop/claude-tracker/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderAccountsCard(),
		m.renderAboutCard(),
	)
	m.viewport.SetContent(content)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderConfigCard renders the configuration paths card.
func (m *Model) renderConfigCard() string {
	rows := []string{styles.SubTitleStyle.Render("Configuration"), ""}

	if m.config != nil {
		rows = append(rows,
			renderRow("Config File", m.config.ConfigPath),
			renderRow("Active Session", m.config.ActiveSessionPath),
			renderRow("Database", m.config.DatabasePath),
			renderRow("Log File", m.config.LogPath),
			renderRow("Log Level", m.config.LogLevel),
			renderRow("Notifications", onOff(m.config.Notifications)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}
	rows = append(rows, renderRow("Poll Interval", m.state.PollInterval().String()))

	if m.env != nil {
		watch := "not watched"
		if m.env.Watching() {
			watch = "watching for changes"
		}
		rows = append(rows,
			renderRow("Credentials", m.env.CredentialsLocation()),
			renderRow("", styles.HelpStyle.Render(watch)),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderAccountsCard summarizes the registry.
func (m *Model) renderAccountsCard() string {
	reg := m.state.Registry()
	rows := []string{styles.SubTitleStyle.Render("Accounts"), ""}

	rows = append(rows, renderRow("Configured", styles.InfoTextStyle.Render(strconv.Itoa(reg.Len()))))

	active := "none"
	if acc, ok := reg.Account(reg.Active()); ok {
		active = acc.Config.Name
	}
	rows = append(rows, renderRow("Active", active))

	loggedIn := reg.LoggedIn()
	if loggedIn == "" {
		loggedIn = "unknown"
	}
	rows = append(rows, renderRow("Claude Code", loggedIn))

	lastPoll := "never"
	if t := reg.LastPoll(); !t.IsZero() {
		lastPoll = t.Local().Format("2006-01-02 15:04:05")
	}
	rows = append(rows, renderRow("Last Poll", lastPoll))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderAboutCard renders version information.
func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.SubTitleStyle.Render("About Claude Tracker"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderRow(label, value string) string {
	if label != "" {
		label += ":"
	}
	return lipgloss.NewStyle().Width(18).Foreground(styles.TextMuted).Render(label) +
		" " + styles.ValueStyle.Render(value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
