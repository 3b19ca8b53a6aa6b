package accounts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/ui/components"
	"github.com/j-veylop/claude-tracker/internal/ui/styles"
)

// EmptyText is shown when no accounts are configured.
const EmptyText = "No accounts configured. Press 'i' to import or 'a' to add one."

// View renders the accounts tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	switch m.mode {
	case modeAdd, modeEdit:
		sections = append(sections, m.renderForm())
	case modeConfirmDelete, modeConfirmSwap:
		sections = append(sections, m.renderTable(), m.renderConfirm())
	default:
		sections = append(sections, m.renderTable(), m.renderDetails())
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderTitle renders the tab title and summary line.
func (m *Model) renderTitle() string {
	reg := m.state.Registry()
	title := styles.TitleStyle.Render("Claude Accounts")

	parts := []string{fmt.Sprintf("%d accounts", reg.Len())}
	parts = append(parts, fmt.Sprintf("poll every %s", m.state.PollInterval()))
	if name := reg.LoggedIn(); name != "" {
		parts = append(parts, "Claude Code: "+styles.LoggedInTextStyle.Render(name))
	}
	if !reg.LastPoll().IsZero() {
		parts = append(parts, "last poll "+reg.LastPoll().Format("15:04:05"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(strings.Join(parts, " · ")))
}

// renderTable renders the accounts table.
func (m *Model) renderTable() string {
	if m.state.Registry().Len() == 0 {
		return m.renderEmptyState()
	}
	return styles.CardStyle.Render(m.table.View())
}

// renderEmptyState renders the empty state when no accounts exist.
func (m *Model) renderEmptyState() string {
	cardWidth := max(m.width-6, 40)
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.InfoTextStyle.Render(EmptyText),
		"",
	)
	return styles.CardStyle.Width(cardWidth).Render(content)
}

// renderDetails renders the selected account's usage with colored bars and
// the untruncated status.
func (m *Model) renderDetails() string {
	reg := m.state.Registry()
	acc, ok := reg.Account(reg.Selected())
	if !ok {
		return ""
	}
	now := m.now()
	width := max(min(m.width-10, 70), 40)

	var rows []string
	header := styles.SubTitleStyle.Render(acc.Config.Name)
	if acc.Config.AuthMethod == models.AuthOAuth {
		header += styles.HelpStyle.Render("  oauth")
	} else {
		header += styles.HelpStyle.Render("  session key")
	}
	if acc.Config.OrgID != "" {
		header += styles.HelpStyle.Render("  org " + acc.Config.OrgID)
	}
	rows = append(rows, header)

	if u := acc.State.Usage; u != nil {
		rows = append(rows, components.LabeledUsageBar("5h", u.FiveHour.Effective(now), width)+
			styles.HelpStyle.Render("  resets in "+components.FormatResetsAt(u.FiveHour.ResetsAt, now)))
		if u.SevenDay != nil {
			rows = append(rows, components.LabeledUsageBar("7d", u.SevenDay.Effective(now), width)+
				styles.HelpStyle.Render("  resets in "+components.FormatResetsAt(u.SevenDay.ResetsAt, now)))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("No usage fetched yet"))
	}

	status := components.AccountStatus(acc, reg.LoggedIn(), now)
	text := status.Text
	if acc.State.Status.IsError() {
		text = failure.Guidance(acc.State.Status.Err)
	}
	rows = append(rows, styles.LabelStyle.Render("Status: ")+statusStyle(status.Kind).Render(text))

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func statusStyle(kind components.StatusKind) lipgloss.Style {
	switch kind {
	case components.StatusLoggedIn:
		return styles.LoggedInTextStyle
	case components.StatusFresh:
		return styles.SuccessTextStyle
	case components.StatusStale:
		return styles.WarningTextStyle
	case components.StatusError:
		return styles.ErrorTextStyle
	default:
		return styles.HelpStyle
	}
}

// renderForm renders the add or edit form.
func (m *Model) renderForm() string {
	cardWidth := min(max(m.width-10, 50), 80)

	title := "Add Session-Key Account"
	submit := " Add Account "
	secretLabel := "Session Key:"
	if m.mode == modeEdit {
		title = "Edit " + m.target
		submit = " Save "
		secretLabel = "Secret (leave blank to keep):"
	}

	rows := []string{styles.SubTitleStyle.Render(title), ""}
	rows = append(rows, m.renderField("Name:", m.nameInput.View(), fieldName, cardWidth)...)
	rows = append(rows, m.renderField(secretLabel, m.secretInput.View(), fieldSecret, cardWidth)...)
	rows = append(rows, m.renderField("Organization ID:", m.orgInput.View(), fieldOrg, cardWidth)...)

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle
	if m.focused == fieldSubmit {
		submitStyle = styles.ButtonActiveStyle
	}
	if m.focused == fieldCancel {
		cancelStyle = styles.ButtonActiveStyle
	}
	rows = append(rows,
		lipgloss.JoinHorizontal(lipgloss.Center, submitStyle.Render(submit), "  ", cancelStyle.Render(" Cancel ")),
		"",
		styles.HelpStyle.Render("Tab: next field | Enter: submit | Esc: cancel"),
	)

	return styles.ModalStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderField(label, input string, field formField, width int) []string {
	border := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(styles.Subtle)
	if m.focused == field {
		label = styles.SubTitleStyle.Render("> " + label)
		border = border.BorderForeground(styles.Primary)
	} else {
		label = styles.LabelStyle.Render("  " + label)
	}
	return []string{label, border.Width(width - 10).Render(input), ""}
}

// renderConfirm renders the delete or swap confirmation.
func (m *Model) renderConfirm() string {
	var heading, body string
	if m.mode == modeConfirmDelete {
		heading = styles.WarningTextStyle.Bold(true).Render("Delete Account?")
		body = fmt.Sprintf("Delete %s and its stored secret?", styles.ErrorTextStyle.Render(m.target))
	} else {
		heading = styles.InfoTextStyle.Bold(true).Render("Swap Account?")
		body = fmt.Sprintf("Make %s the active account for Claude Code?", styles.LoggedInTextStyle.Render(m.target))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		heading,
		"",
		body,
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
	)
	return styles.ModalStyle.Render(content)
}

// renderFooter renders the footer with keyboard shortcuts.
func (m *Model) renderFooter() string {
	var shortcuts []string
	for _, b := range m.ShortHelp() {
		shortcuts = append(shortcuts, styles.SubTitleStyle.Render(b.Help().Key)+" "+b.Help().Desc)
	}
	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(strings.Join(shortcuts, styles.HelpStyle.Render(" | ")))
}
