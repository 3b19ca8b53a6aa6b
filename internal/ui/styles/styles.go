// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions.
var (
	Primary   = lipgloss.Color("208") // Claude orange
	Secondary = lipgloss.Color("173")
	Subtle    = lipgloss.Color("240")

	Success = lipgloss.Color("42")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("220")
	Info    = lipgloss.Color("39")

	BgAccent = lipgloss.Color("236")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// CardStyle frames a block of related content.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1)

// HelpStyle is used for secondary hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle frames the help overlay.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Secondary).
	Padding(1, 2)

// ModalStyle frames forms and confirmation prompts.
var ModalStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(1, 2)

// Label and value styles for key/value listings.
var (
	LabelStyle = lipgloss.NewStyle().Foreground(TextSecondary)
	ValueStyle = lipgloss.NewStyle().Foreground(TextPrimary)
)

// Usage level styles, low to high.
var (
	UsageLowStyle    = lipgloss.NewStyle().Foreground(Success)
	UsageMediumStyle = lipgloss.NewStyle().Foreground(Warning)
	UsageHighStyle   = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// Status cell styles.
var (
	ErrorTextStyle    = lipgloss.NewStyle().Foreground(Error)
	SuccessTextStyle  = lipgloss.NewStyle().Foreground(Success)
	WarningTextStyle  = lipgloss.NewStyle().Foreground(Warning)
	InfoTextStyle     = lipgloss.NewStyle().Foreground(Info)
	LoggedInTextStyle = lipgloss.NewStyle().Foreground(Primary).Bold(true)
)

// ButtonStyle and its variants render form buttons.
var (
	ButtonStyle         = lipgloss.NewStyle().Padding(0, 2)
	ButtonActiveStyle   = ButtonStyle.Foreground(TextPrimary).Background(Primary).Bold(true)
	ButtonInactiveStyle = ButtonStyle.Foreground(TextSecondary).Background(BgAccent)
)

// GetUsageStyle returns the style for a utilization percentage.
func GetUsageStyle(percent int) lipgloss.Style {
	switch {
	case percent >= 80:
		return UsageHighStyle
	case percent >= 50:
		return UsageMediumStyle
	default:
		return UsageLowStyle
	}
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
