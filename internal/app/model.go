package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/services"
	"github.com/j-veylop/claude-tracker/internal/services/usage"
	"github.com/j-veylop/claude-tracker/internal/swap"
	"github.com/j-veylop/claude-tracker/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabAccounts is the ID for the accounts tab.
	TabAccounts TabID = iota
	// TabHistory is the ID for the history tab.
	TabHistory
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabAccounts:
		return "Accounts"
	case TabHistory:
		return "History"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs that sometimes need every key, such
// as while a form or confirmation prompt is open. Global bindings other
// than ctrl+c are suspended while CapturingInput reports true.
type InputCapturer interface {
	CapturingInput() bool
}

// Activator is implemented by tabs that reload data when they are shown.
type Activator interface {
	Activate() tea.Cmd
}

// Services is what the model needs from the service manager.
type Services interface {
	Subscribe() (chan services.ServiceEvent, tea.Cmd)
	RefreshAll(targets []usage.Target)
	Refresh(target usage.Target)
	Import()
	Detect(accounts []models.Account)
	Swap(req swap.Request)
	Observe(res usage.Result)
	AccountRenamed(oldName, newName string)
	AccountRemoved(name string)
	AccountReset(name string)
}

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Import  key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "accounts"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "history"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh all"))
	k.Import = key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import from Claude Code"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Import, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3},
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.Import, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Help    lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(styles.Subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(styles.TextMuted).Padding(0, 2)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(styles.Success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(styles.Error).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(styles.Warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(styles.Info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(styles.Subtle).Padding(0, 1)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)
	s.Subtle = lipgloss.NewStyle().Foreground(styles.TextMuted)
	s.Highlight = lipgloss.NewStyle().Foreground(styles.Secondary)
	return s
}

// Model is the main application model. Its Update loop is the only code
// that mutates the registry.
type Model struct {
	state    *State
	services Services
	tabs     []Tab
	tabNames []string
	keymap   KeyMap
	styles   Styles
	spinner  spinner.Model

	eventChannel chan services.ServiceEvent

	activeTab TabID
	width     int
	height    int
	showHelp  bool
	ready     bool
}

// NewModel initializes a new application model around state. svc may be
// nil, in which case no fetches or imports are started.
func NewModel(state *State, svc Services) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		activeTab: TabAccounts,
		tabNames:  []string{"Accounts", "History", "Info"},
		tabs:      make([]Tab, 3),
		state:     state,
		services:  svc,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if handled {
			return m, cmd
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	switch msg.(type) {
	case TickMsg, AccountsChangedMsg:
		cmds = append(cmds, m.updateAllTabs(msg)...)
	default:
		if cmd := m.updateActiveTab(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		cmds = append(cmds, m.handleTick(msg)...)
	case SubscriptionEventMsg:
		cmds = append(cmds, m.handleSubscriptionEvent(msg)...)
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case AddNotificationMsg:
		cmds = append(cmds, m.handleAddNotification(msg)...)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case RefreshMsg:
		cmds = append(cmds, m.handleRefresh(msg)...)
	case ImportMsg:
		cmds = append(cmds, m.handleImport()...)
	case AddAccountMsg:
		cmds = append(cmds, m.handleAddAccount(msg)...)
	case EditAccountMsg:
		cmds = append(cmds, m.handleEditAccount(msg)...)
	case DeleteAccountMsg:
		cmds = append(cmds, m.handleDeleteAccount(msg)...)
	case SecretPersistedMsg:
		cmds = append(cmds, m.handlePersisted(msg)...)
	case SwapAccountMsg:
		cmds = append(cmds, m.handleSwapAccount(msg)...)
	case MoveSelectionMsg:
		m.state.Registry().MoveSelection(msg.Delta)
		cmds = append(cmds, accountsChangedCmd)
	case TabSwitchMsg:
		cmds = append(cmds, m.setActiveTab(msg.Tab))
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleTick(msg TickMsg) []tea.Cmd {
	m.state.ClearExpiredNotifications()
	cmds := []tea.Cmd{defaultTickCmd()}
	if m.state.Registry().Len() > 0 && m.state.PollDue(msg.Time) {
		cmds = append(cmds, m.startPoll()...)
	}
	return cmds
}

func (m *Model) handleSubscriptionEvent(msg SubscriptionEventMsg) []tea.Cmd {
	m.eventChannel = msg.Channel
	cmds := []tea.Cmd{waitForServiceEventCmd(m.eventChannel)}
	return append(cmds, m.startPoll()...)
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		return []tea.Cmd{clearNotificationCmd(id, msg.Duration)}
	}
	return nil
}

// startPoll fetches every account and re-runs logged-in detection.
func (m *Model) startPoll() []tea.Cmd {
	if m.services == nil {
		return nil
	}
	reg := m.state.Registry()
	m.services.Detect(reg.Accounts())

	targets := reg.Targets()
	if len(targets) == 0 {
		return nil
	}
	for _, t := range targets {
		m.state.MarkFetching(t.Name)
	}
	m.state.SetLoadingNotification("Refreshing usage...")
	m.services.RefreshAll(targets)
	return nil
}

func (m *Model) fetchOne(index int) {
	if m.services == nil {
		return
	}
	t, ok := m.state.Registry().Target(index)
	if !ok {
		return
	}
	m.state.MarkFetching(t.Name)
	m.state.SetLoadingNotification("Refreshing usage...")
	m.services.Refresh(t)
}

func (m *Model) detect() {
	if m.services != nil {
		m.services.Detect(m.state.Registry().Accounts())
	}
}

func (m *Model) handleRefresh(msg RefreshMsg) []tea.Cmd {
	if msg.All {
		return m.startPoll()
	}
	m.fetchOne(m.state.Registry().Selected())
	return nil
}

func (m *Model) handleImport() []tea.Cmd {
	if m.services == nil {
		return nil
	}
	m.services.Import()
	return []tea.Cmd{notifyInfoCmd("Importing credential from Claude Code...")}
}

// save persists the registry and returns a notification command on failure.
func (m *Model) save() tea.Cmd {
	if err := m.state.Save(); err != nil {
		logger.Error("failed to save config", "error", err)
		return notifyErrorCmd(fmt.Sprintf("Failed to save config: %v", err))
	}
	return nil
}

func (m *Model) handleAddAccount(msg AddAccountMsg) []tea.Cmd {
	reg := m.state.Registry()
	mut, err := reg.PrepareAdd(msg.Name, msg.Secret, msg.OrgID)
	if err != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to add account: %v", err))}
	}
	return []tea.Cmd{persistCmd(reg, mut)}
}

func (m *Model) handleEditAccount(msg EditAccountMsg) []tea.Cmd {
	reg := m.state.Registry()
	mut, err := reg.PrepareUpdate(msg.Index, msg.Name, msg.Secret, msg.OrgID)
	if err != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to update account: %v", err))}
	}
	return []tea.Cmd{persistCmd(reg, mut)}
}

func (m *Model) handleDeleteAccount(msg DeleteAccountMsg) []tea.Cmd {
	reg := m.state.Registry()
	mut, err := reg.PrepareDelete(msg.Index)
	if err != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to delete account: %v", err))}
	}
	return []tea.Cmd{persistCmd(reg, mut)}
}

// handlePersisted commits a mutation once its secret is stored, or drops
// it with the registry untouched when the store write failed.
func (m *Model) handlePersisted(msg SecretPersistedMsg) []tea.Cmd {
	reg := m.state.Registry()
	mut := msg.Mutation

	if msg.Err != nil {
		reg.Abort(mut)
		logger.Error("secret store write failed", "op", mut.Kind.String(), "account", mut.Name, "error", msg.Err)
		switch mut.Kind {
		case registry.MutationAdopt:
			return []tea.Cmd{notifyWarningCmd(fmt.Sprintf("Could not store refreshed credential for %s", mut.Name))}
		case registry.MutationImport:
			return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Import failed: %v", msg.Err))}
		default:
			return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to %s: %v", mut.Kind, msg.Err))}
		}
	}

	change := reg.Commit(mut, msg.Warning)

	switch mut.Kind {
	case registry.MutationAdd:
		reg.Select(change.Index)
		cmds := []tea.Cmd{m.save(), accountsChangedCmd}
		m.fetchOne(change.Index)
		return append(cmds, notifySuccessCmd(fmt.Sprintf("Added %s", change.Name)))

	case registry.MutationUpdate:
		if m.services != nil {
			if change.OldName != change.Name {
				m.state.FetchDone(change.OldName)
				m.services.AccountRenamed(change.OldName, change.Name)
			}
			m.services.AccountReset(change.Name)
		}
		cmds := []tea.Cmd{m.save(), accountsChangedCmd}
		m.fetchOne(change.Index)
		if change.Warning != nil {
			return append(cmds, notifyWarningCmd(change.Warning.Error()))
		}
		return append(cmds, notifySuccessCmd(fmt.Sprintf("Updated %s", change.Name)))

	case registry.MutationDelete:
		m.state.FetchDone(change.OldName)
		if m.services != nil {
			m.services.AccountRemoved(change.OldName)
		}
		return []tea.Cmd{
			m.save(),
			accountsChangedCmd,
			notifySuccessCmd(fmt.Sprintf("Deleted %s", change.OldName)),
		}

	case registry.MutationImport:
		if m.services != nil {
			m.services.AccountReset(change.Name)
		}
		reg.Select(change.Index)
		m.fetchOne(change.Index)
		m.detect()

		verb := "Updated"
		if change.Created {
			verb = "Imported"
		}
		return []tea.Cmd{m.save(), accountsChangedCmd,
			notifySuccessCmd(fmt.Sprintf("%s %s", verb, change.Name))}
	}

	return nil
}

func (m *Model) handleSwapAccount(msg SwapAccountMsg) []tea.Cmd {
	acc, ok := m.state.Registry().Account(msg.Index)
	if !ok || m.services == nil {
		return nil
	}
	m.services.Swap(swap.Request{
		Name:   acc.Config.Name,
		OrgID:  acc.Config.OrgID,
		Index:  msg.Index,
		Method: acc.Config.AuthMethod,
	})
	return []tea.Cmd{notifyInfoCmd(fmt.Sprintf("Switching to %s...", acc.Config.Name))}
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	reg := m.state.Registry()

	switch e := event.(type) {
	case services.UsageFetchedEvent:
		return m.applyResult(e.Result)

	case services.ImportedEvent:
		return m.applyImport(e)

	case services.LoggedInEvent:
		name := ""
		if e.Found {
			name = e.Name
		}
		if reg.LoggedIn() != name {
			reg.SetLoggedIn(name)
			return accountsChangedCmd
		}

	case services.SwappedEvent:
		if e.Err != nil {
			return notifyErrorCmd(fmt.Sprintf("Failed to switch account: %v", e.Err))
		}
		// The account may have moved since the request was made.
		if idx := reg.Find(e.Request.Name); idx >= 0 {
			reg.SetActive(idx)
		}
		m.detect()
		return tea.Batch(m.save(), accountsChangedCmd,
			notifySuccessCmd(fmt.Sprintf("Switched to %s", e.Request.Name)))

	case services.CredentialsChangedEvent:
		m.detect()

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

func (m *Model) applyResult(res usage.Result) tea.Cmd {
	reg := m.state.Registry()
	m.state.FetchDone(res.Name)
	if !m.state.AnyFetching() {
		m.state.ClearLoadingNotification()
	}

	if !reg.ApplyResult(res.Name, res.Usage, res.Err) {
		return nil
	}
	if m.services != nil {
		m.services.Observe(res)
	}

	if mut, ok := reg.PrepareAdopt(res.Name, res.BaseSecret, res.Adopted); ok {
		return tea.Batch(accountsChangedCmd, persistCmd(reg, mut))
	}
	return accountsChangedCmd
}

func (m *Model) applyImport(e services.ImportedEvent) tea.Cmd {
	if e.Err != nil {
		return notifyErrorCmd(fmt.Sprintf("Import failed: %s", failure.Guidance(e.Err)))
	}

	secret, err := e.Data.Credential.Encode()
	if err != nil {
		return notifyErrorCmd(fmt.Sprintf("Import failed: %v", err))
	}

	reg := m.state.Registry()
	mut, err := reg.PrepareImport(e.Data.Name, e.Data.OrgID, secret)
	if err != nil {
		return notifyErrorCmd(fmt.Sprintf("Import failed: %v", err))
	}
	return persistCmd(reg, mut)
}

func (m *Model) setActiveTab(id TabID) tea.Cmd {
	if int(id) < 0 || int(id) >= len(m.tabs) {
		return nil
	}
	m.activeTab = id
	m.updateTabSizes()
	if a, ok := m.tabs[id].(Activator); ok {
		return a.Activate()
	}
	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateAllTabs(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	for i, tab := range m.tabs {
		if tab == nil {
			continue
		}
		var cmd tea.Cmd
		m.tabs[i], cmd = tab.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-5)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) capturing() bool {
	if int(m.activeTab) >= len(m.tabs) {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.CapturingInput()
}

// handleKeyMsg handles global keys. handled is false when the key should
// go on to the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.capturing() {
		return nil, false
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keymap.Help), key.Matches(msg, m.keymap.Escape):
			m.showHelp = false
		case key.Matches(msg, m.keymap.Quit):
			return tea.Quit, true
		}
		return nil, true
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
		return nil, true

	case key.Matches(msg, m.keymap.Tab1):
		return m.setActiveTab(TabAccounts), true

	case key.Matches(msg, m.keymap.Tab2):
		return m.setActiveTab(TabHistory), true

	case key.Matches(msg, m.keymap.Tab3):
		return m.setActiveTab(TabInfo), true

	case key.Matches(msg, m.keymap.NextTab):
		return m.setActiveTab(TabID((int(m.activeTab) + 1) % len(m.tabs))), true

	case key.Matches(msg, m.keymap.PrevTab):
		return m.setActiveTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs))), true

	case key.Matches(msg, m.keymap.Refresh):
		return tea.Batch(m.startPoll()...), true

	case key.Matches(msg, m.keymap.Import):
		return tea.Batch(m.handleImport()...), true
	}

	return nil, false
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	}

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if notifications := m.renderNotifications(); len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	overlayLines := strings.Split(overlay, "\n")
	mainLines := padLines(strings.Split(mainView, "\n"), m.height)

	overlayWidth := lipgloss.Width(overlay)

	y := max((m.height-len(overlayLines))/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]
		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	var tabs []string

	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	startX := max(m.width-lipgloss.Width(toastStack)-2, 0)
	startY := 2

	mainLines := padLines(strings.Split(mainView, "\n"), max(m.height, startY+len(toastLines)))

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		if w := lipgloss.Width(mainLine); w < startX {
			mainLines[lineIdx] = mainLine + strings.Repeat(" ", startX-w) + toastLine
		} else {
			mainLines[lineIdx] = ansi.Truncate(mainLine, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

// padLines extends lines with blanks up to n so overlays on a short view
// land where they would on a full screen.
func padLines(lines []string, n int) []string {
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"), "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-3        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  r          Refresh all accounts")
	lines = append(lines, "  i          Import from Claude Code")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		if tabHelp := m.tabs[m.activeTab].ShortHelp(); len(tabHelp) > 0 {
			lines = append(lines, "", m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "", m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}
