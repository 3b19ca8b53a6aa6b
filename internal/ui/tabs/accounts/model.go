// Package accounts provides the accounts tab: the usage table plus the add,
// edit, delete and swap flows.
package accounts

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claude-tracker/internal/app"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/ui/components"
	"github.com/j-veylop/claude-tracker/internal/ui/styles"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
	modeConfirmSwap
)

// formField represents which field is currently focused in the form.
type formField int

const (
	fieldName formField = iota
	fieldSecret
	fieldOrg
	fieldSubmit
	fieldCancel
	fieldCount
)

const barWidth = 10

// keyMap defines the key bindings specific to the accounts tab.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Swap    key.Binding
	Escape  key.Binding
}

// defaultKeyMap returns the default key bindings for the accounts tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Refresh: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh selected")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add account")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d/x", "delete")),
		Swap:    key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s/enter", "swap to account")),
		Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Model represents the accounts tab state.
type Model struct {
	state       *app.State
	now         func() time.Time
	table       table.Model
	nameInput   textinput.Model
	secretInput textinput.Model
	orgInput    textinput.Model
	keys        keyMap
	target      string
	width       int
	height      int
	targetIndex int
	mode        mode
	focused     formField
}

// New creates a new accounts model.
func New(state *app.State) *Model {
	nameInput := textinput.New()
	nameInput.Placeholder = "work"
	nameInput.CharLimit = 64
	nameInput.Width = 40

	secretInput := textinput.New()
	secretInput.Placeholder = "sk-ant-sid01-..."
	secretInput.CharLimit = 4096
	secretInput.Width = 40
	secretInput.EchoMode = textinput.EchoPassword

	orgInput := textinput.New()
	orgInput.Placeholder = "organization UUID"
	orgInput.CharLimit = 64
	orgInput.Width = 40

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	m := &Model{
		state:       state,
		now:         time.Now,
		table:       t,
		nameInput:   nameInput,
		secretInput: secretInput,
		orgInput:    orgInput,
		keys:        defaultKeyMap(),
	}
	m.updateTableData()
	return m
}

func columns(width int) []table.Column {
	nameWidth := min(max(width-90, 12), 32)
	return []table.Column{
		{Title: "#", Width: 3},
		{Title: "Name", Width: nameWidth},
		{Title: "5h %", Width: 5},
		{Title: "5h Bar", Width: barWidth},
		{Title: "5h Reset", Width: 8},
		{Title: "7d %", Width: 5},
		{Title: "7d Bar", Width: barWidth},
		{Title: "7d Reset", Width: 8},
		{Title: "Status", Width: components.MaxErrorWidth},
	}
}

// Init initializes the accounts tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturingInput reports whether a form or prompt is open.
func (m *Model) CapturingInput() bool {
	return m.mode != modeBrowse
}

// Update handles messages for the accounts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg.(type) {
	case app.AccountsChangedMsg, app.TickMsg:
		m.updateTableData()
		return m, nil
	}

	switch m.mode {
	case modeAdd, modeEdit:
		return m.updateForm(msg)
	case modeConfirmDelete, modeConfirmSwap:
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	reg := m.state.Registry()

	switch {
	case key.Matches(msg, m.keys.Down):
		return moveCmd(1)

	case key.Matches(msg, m.keys.Up):
		return moveCmd(-1)

	case key.Matches(msg, m.keys.Refresh):
		if reg.Len() > 0 {
			return func() tea.Msg { return app.RefreshMsg{} }
		}

	case key.Matches(msg, m.keys.Add):
		m.openForm(modeAdd, -1, models.Account{})
		return textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		if acc, ok := reg.Account(reg.Selected()); ok {
			m.openForm(modeEdit, reg.Selected(), acc)
			return textinput.Blink
		}

	case key.Matches(msg, m.keys.Delete):
		m.openConfirm(modeConfirmDelete)

	case key.Matches(msg, m.keys.Swap):
		m.openConfirm(modeConfirmSwap)
	}
	return nil
}

func moveCmd(delta int) tea.Cmd {
	return func() tea.Msg { return app.MoveSelectionMsg{Delta: delta} }
}

func (m *Model) openConfirm(md mode) {
	reg := m.state.Registry()
	acc, ok := reg.Account(reg.Selected())
	if !ok {
		return
	}
	m.mode = md
	m.targetIndex = reg.Selected()
	m.target = acc.Config.Name
}

func (m *Model) openForm(md mode, index int, acc models.Account) {
	m.mode = md
	m.targetIndex = index
	m.target = acc.Config.Name
	m.focused = fieldName

	m.nameInput.SetValue(acc.Config.Name)
	m.nameInput.CursorEnd()
	m.secretInput.SetValue("")
	m.orgInput.SetValue(acc.Config.OrgID)
	m.orgInput.CursorEnd()
	m.updateFormFocus()
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.target = ""
	m.targetIndex = -1
	m.nameInput.Blur()
	m.secretInput.Blur()
	m.orgInput.Blur()
	m.secretInput.SetValue("")
}

// updateForm handles the add and edit forms.
func (m *Model) updateForm(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, _ := msg.(tea.KeyMsg)

	switch keyMsg.String() {
	case "esc":
		m.closeForm()
		return m, nil

	case "tab", "down":
		m.focused = (m.focused + 1) % fieldCount
		m.updateFormFocus()
		return m, textinput.Blink

	case "shift+tab", "up":
		m.focused = (m.focused - 1 + fieldCount) % fieldCount
		m.updateFormFocus()
		return m, textinput.Blink

	case "enter":
		switch m.focused {
		case fieldSubmit:
			return m, m.submitForm()
		case fieldCancel:
			m.closeForm()
			return m, nil
		default:
			m.focused++
			m.updateFormFocus()
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	switch m.focused {
	case fieldName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case fieldSecret:
		m.secretInput, cmd = m.secretInput.Update(msg)
	case fieldOrg:
		m.orgInput, cmd = m.orgInput.Update(msg)
	}
	return m, cmd
}

// submitForm closes the form and hands the values to the app, which owns
// validation and the registry.
func (m *Model) submitForm() tea.Cmd {
	name := m.nameInput.Value()
	secret := m.secretInput.Value()
	org := m.orgInput.Value()
	md, index := m.mode, m.targetIndex
	m.closeForm()

	if md == modeAdd {
		return func() tea.Msg {
			return app.AddAccountMsg{Name: name, Secret: secret, OrgID: org}
		}
	}
	return func() tea.Msg {
		return app.EditAccountMsg{Index: index, Name: name, Secret: secret, OrgID: org}
	}
}

// updateConfirm handles the delete and swap confirmations.
func (m *Model) updateConfirm(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y", "enter":
		md, index := m.mode, m.targetIndex
		m.mode = modeBrowse
		m.target = ""
		if md == modeConfirmDelete {
			return m, func() tea.Msg { return app.DeleteAccountMsg{Index: index} }
		}
		return m, func() tea.Msg { return app.SwapAccountMsg{Index: index} }

	case "n", "N", "esc":
		m.mode = modeBrowse
		m.target = ""
	}
	return m, nil
}

// updateFormFocus updates which form field is focused.
func (m *Model) updateFormFocus() {
	m.nameInput.Blur()
	m.secretInput.Blur()
	m.orgInput.Blur()

	switch m.focused {
	case fieldName:
		m.nameInput.Focus()
	case fieldSecret:
		m.secretInput.Focus()
	case fieldOrg:
		m.orgInput.Focus()
	}
}

// updateTableData rebuilds the rows from the registry.
func (m *Model) updateTableData() {
	reg := m.state.Registry()
	now := m.now()
	loggedIn := reg.LoggedIn()

	accounts := reg.Accounts()
	rows := make([]table.Row, 0, len(accounts))
	for i, acc := range accounts {
		rows = append(rows, accountRow(i, i == reg.Selected(), i == reg.Active(), acc, loggedIn, now))
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(reg.Selected())
	}
}

func accountRow(index int, selected, active bool, acc models.Account, loggedIn string, now time.Time) table.Row {
	marker := fmt.Sprintf("%d", index+1)
	if selected {
		marker = ">" + marker
	}
	name := acc.Config.Name
	if active {
		name += " *"
	}

	fivePct, fiveBar, fiveReset := "--", components.UsageBarText(0, barWidth), "--"
	sevenPct, sevenBar, sevenReset := "--", components.UsageBarText(0, barWidth), "--"
	if u := acc.State.Usage; u != nil {
		pct := u.FiveHour.Effective(now)
		fivePct = fmt.Sprintf("%d%%", pct)
		fiveBar = components.UsageBarText(pct, barWidth)
		fiveReset = components.FormatResetsAt(u.FiveHour.ResetsAt, now)
		if u.SevenDay != nil {
			pct = u.SevenDay.Effective(now)
			sevenPct = fmt.Sprintf("%d%%", pct)
			sevenBar = components.UsageBarText(pct, barWidth)
			sevenReset = components.FormatResetsAt(u.SevenDay.ResetsAt, now)
		}
	}

	status := components.AccountStatus(acc, loggedIn, now)
	return table.Row{marker, name, fivePct, fiveBar, fiveReset, sevenPct, sevenBar, sevenReset, status.Text}
}

// SetSize sets the available size for the accounts tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-14, 3))
	m.table.SetColumns(columns(width))
	m.updateTableData()
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	switch m.mode {
	case modeAdd, modeEdit:
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	case modeConfirmDelete, modeConfirmSwap:
		return []key.Binding{
			key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "cancel")),
		}
	}
	return []key.Binding{
		m.keys.Down, m.keys.Up, m.keys.Refresh, m.keys.Add,
		m.keys.Edit, m.keys.Delete, m.keys.Swap,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Add, m.keys.Edit, m.keys.Delete},
		{m.keys.Swap, m.keys.Refresh},
	}
}
