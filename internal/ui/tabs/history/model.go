// Package history provides the history tab: recorded usage for the selected
// account over a chosen time range.
package history

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-tracker/internal/app"
	"github.com/j-veylop/claude-tracker/internal/models"
)

// Source reads recorded usage.
type Source interface {
	History(name string, since time.Time) ([]models.UsagePoint, error)
	DailyPeaks(name string, days int) ([]models.DailyPeak, error)
}

// TimeRange is a history window.
type TimeRange int

const (
	// Range24Hours shows the last day.
	Range24Hours TimeRange = iota
	// Range7Days shows the last week.
	Range7Days
	// Range30Days shows the last month.
	Range30Days
)

// String returns the label for the range.
func (r TimeRange) String() string {
	switch r {
	case Range7Days:
		return "7 days"
	case Range30Days:
		return "30 days"
	default:
		return "24 hours"
	}
}

// Duration returns the window length.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.Days()) * 24 * time.Hour
}

// Days returns the window length in days.
func (r TimeRange) Days() int {
	switch r {
	case Range7Days:
		return 7
	case Range30Days:
		return 30
	default:
		return 1
	}
}

// Next cycles to the following range.
func (r TimeRange) Next() TimeRange {
	return (r + 1) % 3
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg carries the result of a history query.
type historyLoadedMsg struct {
	err     error
	account string
	points  []models.UsagePoint
	peaks   []models.DailyPeak
	rng     TimeRange
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	source   Source
	now      func() time.Time
	keys     keyMap
	viewport viewport.Model
	account  string
	points   []models.UsagePoint
	peaks    []models.DailyPeak
	err      error
	width    int
	height   int
	rng      TimeRange
	loading  bool
	loaded   bool
}

// New creates a new history model. source may be nil when history is
// unavailable.
func New(state *app.State, source Source) *Model {
	return &Model{
		state:    state,
		source:   source,
		now:      time.Now,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		rng:      Range24Hours,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Activate reloads history when the tab is shown.
func (m *Model) Activate() tea.Cmd {
	return m.load()
}

// selectedName returns the selected account's name, or "" with no accounts.
func (m *Model) selectedName() string {
	reg := m.state.Registry()
	acc, ok := reg.Account(reg.Selected())
	if !ok {
		return ""
	}
	return acc.Config.Name
}

// load starts a query for the selected account and current range.
func (m *Model) load() tea.Cmd {
	m.account = m.selectedName()
	if m.account == "" || m.source == nil {
		m.points, m.peaks, m.err = nil, nil, nil
		m.loaded = true
		return nil
	}

	m.loading = true
	name, rng, source := m.account, m.rng, m.source
	since := m.now().Add(-rng.Duration())
	return func() tea.Msg {
		msg := historyLoadedMsg{account: name, rng: rng}
		msg.points, msg.err = source.History(name, since)
		if msg.err == nil {
			msg.peaks, msg.err = source.DailyPeaks(name, rng.Days())
		}
		return msg
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		// Drop answers to queries that have since been superseded.
		if msg.account != m.account || msg.rng != m.rng {
			return m, nil
		}
		m.loading = false
		m.loaded = true
		m.points, m.peaks, m.err = msg.points, msg.peaks, msg.err
		m.viewport.GotoTop()
		if msg.err != nil {
			return m, app.Notify(app.NotificationError, "History error: "+msg.err.Error())
		}

	case app.AccountsChangedMsg:
		if m.loaded && m.selectedName() != m.account {
			return m, m.load()
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ToggleRange) {
			m.rng = m.rng.Next()
			return m, m.load()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 1)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleRange, m.keys.Down, m.keys.Up}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange},
		{m.keys.Up, m.keys.Down},
	}
}
