package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-tracker/internal/credential"
	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
	"github.com/j-veylop/claude-tracker/internal/services"
	"github.com/j-veylop/claude-tracker/internal/services/oauth"
	"github.com/j-veylop/claude-tracker/internal/services/usage"
	"github.com/j-veylop/claude-tracker/internal/swap"
)

type fakeServices struct {
	ch        chan services.ServiceEvent
	refreshed []string
	observed  []string
	renamed   [][2]string
	removed   []string
	reset     []string
	swaps     []swap.Request
	imports   int
	detects   int
}

func newFakeServices() *fakeServices {
	return &fakeServices{ch: make(chan services.ServiceEvent, 8)}
}

func (f *fakeServices) Subscribe() (chan services.ServiceEvent, tea.Cmd) {
	return f.ch, nil
}

func (f *fakeServices) RefreshAll(targets []usage.Target) {
	for _, t := range targets {
		f.refreshed = append(f.refreshed, t.Name)
	}
}

func (f *fakeServices) Refresh(target usage.Target) {
	f.refreshed = append(f.refreshed, target.Name)
}

func (f *fakeServices) Import()                    { f.imports++ }
func (f *fakeServices) Detect(_ []models.Account)  { f.detects++ }
func (f *fakeServices) Swap(req swap.Request)      { f.swaps = append(f.swaps, req) }
func (f *fakeServices) Observe(res usage.Result)   { f.observed = append(f.observed, res.Name) }
func (f *fakeServices) AccountRemoved(name string) { f.removed = append(f.removed, name) }
func (f *fakeServices) AccountReset(name string)   { f.reset = append(f.reset, name) }
func (f *fakeServices) AccountRenamed(o, n string) { f.renamed = append(f.renamed, [2]string{o, n}) }

// stubTab records the messages it receives.
type stubTab struct {
	msgs      []tea.Msg
	capture   bool
	activated int
}

func (s *stubTab) Init() tea.Cmd { return nil }
func (s *stubTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	s.msgs = append(s.msgs, msg)
	return s, nil
}
func (s *stubTab) View() string              { return "stub" }
func (s *stubTab) SetSize(_, _ int)          {}
func (s *stubTab) ShortHelp() []key.Binding  { return nil }
func (s *stubTab) FullHelp() [][]key.Binding { return nil }
func (s *stubTab) CapturingInput() bool      { return s.capture }
func (s *stubTab) Activate() tea.Cmd         { s.activated++; return nil }

func newTestModel(t *testing.T, names ...string) (*Model, *fakeServices, []*stubTab) {
	t.Helper()
	state, _ := newTestState(t, names...)
	svc := newFakeServices()
	m := NewModel(state, svc)
	tabs := []*stubTab{{}, {}, {}}
	m.SetTabs([]Tab{tabs[0], tabs[1], tabs[2]})
	m.Update(SubscriptionEventMsg{Channel: svc.ch})
	// Tests drive service events directly rather than waiting on the channel.
	m.eventChannel = nil
	svc.refreshed = nil
	svc.detects = 0
	return m, svc, tabs
}

// drain runs cmd and every command it batches, feeding non-nil messages
// back into the model. Ticks are dropped to keep it finite.
func drain(m *Model, cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case TickMsg, RemoveNotificationMsg, ServiceEventMsg:
		default:
			out = append(out, msg)
		}
	}
	return out
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func hasNotification(m *Model, typ NotificationType, substr string) bool {
	for _, n := range m.state.GetNotifications() {
		if n.Type == typ && strings.Contains(n.Message, substr) {
			return true
		}
	}
	return false
}

// apply runs msg through Update and settles the resulting commands,
// including completed secret-store writes.
func apply(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	for _, out := range drain(m, cmd) {
		switch out.(type) {
		case AddNotificationMsg:
			m.Update(out)
		case SecretPersistedMsg:
			apply(m, out)
		}
	}
}

// storeWrites returns the set and delete calls recorded by store.
func storeWrites(store *secretstore.Memory) []secretstore.Call {
	var out []secretstore.Call
	for _, c := range store.Calls() {
		if c.Op != "get" {
			out = append(out, c)
		}
	}
	return out
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		id   TabID
		want string
	}{
		{TabAccounts, "Accounts"},
		{TabHistory, "History"},
		{TabInfo, "Info"},
		{TabID(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestModel_SubscriptionStartsPoll(t *testing.T) {
	state, _ := newTestState(t, "a", "b")
	svc := newFakeServices()
	m := NewModel(state, svc)

	m.Update(SubscriptionEventMsg{Channel: svc.ch})

	if len(svc.refreshed) != 2 {
		t.Errorf("refreshed = %v", svc.refreshed)
	}
	if svc.detects != 1 {
		t.Errorf("detects = %d, want 1", svc.detects)
	}
	if !state.AnyFetching() {
		t.Error("fetches should be tracked")
	}
}

func TestModel_TickPollsOnlyWhenDue(t *testing.T) {
	m, svc, _ := newTestModel(t, "a")

	// The subscription poll is still in flight.
	m.Update(TickMsg{})
	if len(svc.refreshed) != 0 {
		t.Fatalf("poll started while fetching: %v", svc.refreshed)
	}

	apply(m, ServiceEventMsg{Event: services.UsageFetchedEvent{Result: usage.Result{
		Name:  "a",
		Usage: &models.UsageSnapshot{FiveHour: models.Bucket{Utilization: 10}},
	}}})
	if m.state.AnyFetching() {
		t.Fatal("fetch should be done")
	}

	m.Update(TickMsg{Time: m.state.Registry().LastPoll()})
	if len(svc.refreshed) != 0 {
		t.Errorf("poll not due yet: %v", svc.refreshed)
	}

	m.Update(TickMsg{Time: m.state.Registry().LastPoll().Add(m.state.PollInterval())})
	if len(svc.refreshed) != 1 {
		t.Errorf("refreshed = %v, want one poll", svc.refreshed)
	}
}

func TestModel_UsageResultApplied(t *testing.T) {
	m, svc, tabs := newTestModel(t, "a")

	apply(m, ServiceEventMsg{Event: services.UsageFetchedEvent{Result: usage.Result{
		Name:  "a",
		Usage: &models.UsageSnapshot{FiveHour: models.Bucket{Utilization: 42}},
	}}})

	acc, _ := m.state.Registry().Account(0)
	if acc.State.Usage == nil || acc.State.Usage.FiveHour.Utilization != 42 {
		t.Fatalf("usage = %+v", acc.State.Usage)
	}
	if len(svc.observed) != 1 {
		t.Errorf("observed = %v", svc.observed)
	}

	// AccountsChangedMsg reaches every tab, not only the active one.
	m.Update(AccountsChangedMsg{})
	for i, tab := range tabs {
		found := false
		for _, msg := range tab.msgs {
			if _, ok := msg.(AccountsChangedMsg); ok {
				found = true
			}
		}
		if !found {
			t.Errorf("tab %d did not see AccountsChangedMsg", i)
		}
	}
}

func TestModel_ResultForDeletedAccountDiscarded(t *testing.T) {
	m, svc, _ := newTestModel(t, "a")

	apply(m, ServiceEventMsg{Event: services.UsageFetchedEvent{Result: usage.Result{
		Name:    "gone",
		Usage:   &models.UsageSnapshot{},
		Adopted: "secret",
	}}})

	if len(svc.observed) != 0 {
		t.Errorf("observed = %v, want none", svc.observed)
	}
}

func TestModel_AdoptedSecretStored(t *testing.T) {
	state, store := newTestState(t)
	svc := newFakeServices()
	m := NewModel(state, svc)
	if _, _, err := state.Registry().ImportOAuth("o", "org", "old"); err != nil {
		t.Fatal(err)
	}

	apply(m, ServiceEventMsg{Event: services.UsageFetchedEvent{Result: usage.Result{
		Name:       "o",
		Usage:      &models.UsageSnapshot{},
		Adopted:    "new",
		BaseSecret: "old",
	}}})

	if got, _ := store.Peek("o"); got != "new" {
		t.Errorf("stored = %q, want new", got)
	}
	if tg, _ := state.Registry().Target(0); tg.Secret != "new" {
		t.Errorf("cached secret = %q, want new", tg.Secret)
	}
}

func TestModel_AdoptionSkippedAfterReimport(t *testing.T) {
	state, store := newTestState(t)
	m := NewModel(state, newFakeServices())
	if _, _, err := state.Registry().ImportOAuth("o", "org", "stale"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := state.Registry().ImportOAuth("o", "org", "fresh"); err != nil {
		t.Fatal(err)
	}

	// The fetch started before the re-import and saw the stale credential.
	apply(m, ServiceEventMsg{Event: services.UsageFetchedEvent{Result: usage.Result{
		Name:       "o",
		Usage:      &models.UsageSnapshot{},
		Adopted:    "adopted",
		BaseSecret: "stale",
	}}})

	if got, _ := store.Peek("o"); got != "fresh" {
		t.Errorf("stored = %q, want fresh", got)
	}
}

func TestModel_StoreWritesLeaveUpdateLoop(t *testing.T) {
	state, store := newTestState(t, "a")
	m := NewModel(state, newFakeServices())

	_, cmd := m.Update(AddAccountMsg{Name: "b", Secret: "kb", OrgID: "org-b"})
	if writes := storeWrites(store); len(writes) != 0 {
		t.Fatalf("Update wrote to the store: %+v", writes)
	}
	if state.Registry().Len() != 1 {
		t.Fatal("account committed before its secret was stored")
	}

	// A second change to the same name waits for the first.
	apply(m, AddAccountMsg{Name: "b", Secret: "other", OrgID: "org-b"})
	if !hasNotification(m, NotificationError, "in progress") {
		t.Error("missing in-progress notification")
	}

	for _, out := range drain(m, cmd) {
		if _, ok := out.(SecretPersistedMsg); ok {
			apply(m, out)
		}
	}
	if state.Registry().Find("b") != 1 {
		t.Fatal("account not committed after store write")
	}
	if got, _ := store.Peek("b"); got != "kb" {
		t.Errorf("stored = %q, want kb", got)
	}
	if state.Registry().Pending("b") {
		t.Error("name still held after commit")
	}
}

func TestModel_AddAccountStoreFailure(t *testing.T) {
	state, store := newTestState(t, "a")
	m := NewModel(state, newFakeServices())
	store.FailOnSet(true)

	apply(m, AddAccountMsg{Name: "b", Secret: "kb", OrgID: "org-b"})

	reg := state.Registry()
	if reg.Len() != 1 || reg.Pending("b") {
		t.Errorf("len = %d pending = %v, want unchanged registry", reg.Len(), reg.Pending("b"))
	}
	if !hasNotification(m, NotificationError, "Failed to add account") {
		t.Error("missing error notification")
	}
}

func TestModel_ErrorResult(t *testing.T) {
	m, _, _ := newTestModel(t, "a")

	apply(m, ServiceEventMsg{Event: services.UsageFetchedEvent{Result: usage.Result{
		Name: "a",
		Err:  failure.New(failure.KindUnauthorized, "fetch", "401"),
	}}})

	acc, _ := m.state.Registry().Account(0)
	if !acc.State.Status.IsError() {
		t.Errorf("status = %+v", acc.State.Status)
	}
}

func TestModel_AddAccount(t *testing.T) {
	m, svc, _ := newTestModel(t, "a")

	apply(m, AddAccountMsg{Name: "b", Secret: "kb", OrgID: "org-b"})

	reg := m.state.Registry()
	if reg.Len() != 2 || reg.Selected() != 1 {
		t.Fatalf("len = %d selected = %d", reg.Len(), reg.Selected())
	}
	if len(svc.refreshed) != 1 || svc.refreshed[0] != "b" {
		t.Errorf("refreshed = %v", svc.refreshed)
	}
	if !hasNotification(m, NotificationSuccess, "Added b") {
		t.Error("missing success notification")
	}
}

func TestModel_AddAccountValidation(t *testing.T) {
	m, _, _ := newTestModel(t, "a")

	apply(m, AddAccountMsg{Name: "a", Secret: "x", OrgID: "o"})

	if m.state.Registry().Len() != 1 {
		t.Error("duplicate name should be rejected")
	}
	if !hasNotification(m, NotificationError, "already exists") {
		t.Error("missing error notification")
	}
}

func TestModel_EditAccountRename(t *testing.T) {
	m, svc, _ := newTestModel(t, "a")

	apply(m, EditAccountMsg{Index: 0, Name: "renamed"})

	if m.state.Registry().Find("renamed") != 0 {
		t.Fatal("rename not applied")
	}
	if len(svc.renamed) != 1 || svc.renamed[0] != [2]string{"a", "renamed"} {
		t.Errorf("renamed = %v", svc.renamed)
	}
	if len(svc.reset) != 1 || svc.reset[0] != "renamed" {
		t.Errorf("reset = %v", svc.reset)
	}
}

func TestModel_EditAccountRenameWarning(t *testing.T) {
	state, store := newTestState(t, "a")
	svc := newFakeServices()
	m := NewModel(state, svc)
	store.FailOnDelete(true)

	apply(m, EditAccountMsg{Index: 0, Name: "renamed"})

	if state.Registry().Find("renamed") != 0 {
		t.Fatal("rename should still be committed")
	}
	if !hasNotification(m, NotificationWarning, "not deleted") {
		t.Error("missing warning notification")
	}
}

func TestModel_DeleteAccount(t *testing.T) {
	m, svc, _ := newTestModel(t, "a", "b")

	apply(m, DeleteAccountMsg{Index: 0})

	reg := m.state.Registry()
	if reg.Len() != 1 || reg.Find("a") >= 0 {
		t.Fatalf("a not deleted")
	}
	if len(svc.removed) != 1 || svc.removed[0] != "a" {
		t.Errorf("removed = %v", svc.removed)
	}
	if m.state.IsFetching("a") {
		t.Error("deleted account should not be tracked as fetching")
	}
}

func TestModel_DeleteAccountStoreFailure(t *testing.T) {
	state, store := newTestState(t, "a")
	m := NewModel(state, newFakeServices())
	store.FailOnDelete(true)

	apply(m, DeleteAccountMsg{Index: 0})

	if state.Registry().Len() != 1 {
		t.Error("account should be kept when the store delete fails")
	}
	if !hasNotification(m, NotificationError, "Failed to delete") {
		t.Error("missing error notification")
	}
}

func TestModel_Swap(t *testing.T) {
	m, svc, _ := newTestModel(t, "a", "b")

	apply(m, SwapAccountMsg{Index: 1})
	if len(svc.swaps) != 1 || svc.swaps[0].Name != "b" || svc.swaps[0].OrgID != "org-b" {
		t.Fatalf("swaps = %+v", svc.swaps)
	}

	apply(m, ServiceEventMsg{Event: services.SwappedEvent{Request: svc.swaps[0]}})
	if m.state.Registry().Active() != 1 {
		t.Errorf("active = %d, want 1", m.state.Registry().Active())
	}
	if svc.detects != 1 {
		t.Errorf("detects = %d, want 1", svc.detects)
	}
}

func TestModel_SwapFailureKeepsActive(t *testing.T) {
	m, _, _ := newTestModel(t, "a", "b")

	apply(m, ServiceEventMsg{Event: services.SwappedEvent{
		Request: swap.Request{Name: "b", Index: 1},
		Err:     errors.New("keychain locked"),
	}})

	if m.state.Registry().Active() != 0 {
		t.Error("active should not move on failure")
	}
	if !hasNotification(m, NotificationError, "keychain locked") {
		t.Error("missing error notification")
	}
}

func TestModel_Import(t *testing.T) {
	m, svc, _ := newTestModel(t, "a")

	apply(m, ImportMsg{})
	if svc.imports != 1 {
		t.Fatalf("imports = %d", svc.imports)
	}

	apply(m, ServiceEventMsg{Event: services.ImportedEvent{Data: &oauth.ImportData{
		Name:       "me@example.com",
		OrgID:      "org-me",
		Credential: credential.OAuth{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 1},
	}}})

	reg := m.state.Registry()
	idx := reg.Find("me@example.com")
	if idx < 0 {
		t.Fatal("imported account missing")
	}
	acc, _ := reg.Account(idx)
	if acc.Config.AuthMethod != models.AuthOAuth || reg.Selected() != idx {
		t.Errorf("account = %+v selected = %d", acc.Config, reg.Selected())
	}
	if len(svc.reset) != 1 || svc.detects != 1 {
		t.Errorf("reset = %v detects = %d", svc.reset, svc.detects)
	}
	if !hasNotification(m, NotificationSuccess, "Imported me@example.com") {
		t.Error("missing success notification")
	}
}

func TestModel_ImportFailure(t *testing.T) {
	m, _, _ := newTestModel(t)

	apply(m, ServiceEventMsg{Event: services.ImportedEvent{
		Err: failure.New(failure.KindValidation, "import", "no credential found"),
	}})

	if m.state.Registry().Len() != 0 {
		t.Error("nothing should be imported")
	}
	if !hasNotification(m, NotificationError, "no credential found") {
		t.Error("missing error notification")
	}
}

func TestModel_LoggedInEvent(t *testing.T) {
	m, _, _ := newTestModel(t, "a")

	m.Update(ServiceEventMsg{Event: services.LoggedInEvent{Name: "a", Found: true}})
	if m.state.Registry().LoggedIn() != "a" {
		t.Errorf("logged in = %q", m.state.Registry().LoggedIn())
	}

	m.Update(ServiceEventMsg{Event: services.LoggedInEvent{}})
	if m.state.Registry().LoggedIn() != "" {
		t.Error("logged in should be cleared")
	}
}

func TestModel_CredentialsChangedTriggersDetect(t *testing.T) {
	m, svc, _ := newTestModel(t, "a")
	m.Update(ServiceEventMsg{Event: services.CredentialsChangedEvent{}})
	if svc.detects != 1 {
		t.Errorf("detects = %d, want 1", svc.detects)
	}
}

func TestModel_RefreshSelected(t *testing.T) {
	m, svc, _ := newTestModel(t, "a", "b")
	m.Update(MoveSelectionMsg{Delta: 1})

	m.Update(RefreshMsg{})
	if len(svc.refreshed) != 1 || svc.refreshed[0] != "b" {
		t.Errorf("refreshed = %v", svc.refreshed)
	}
}

func TestModel_GlobalKeys(t *testing.T) {
	m, svc, tabs := newTestModel(t, "a")

	m.Update(keyMsg("2"))
	if m.GetActiveTab() != TabHistory || tabs[1].activated != 1 {
		t.Errorf("active = %v activated = %d", m.GetActiveTab(), tabs[1].activated)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.GetActiveTab() != TabInfo {
		t.Errorf("active = %v, want Info", m.GetActiveTab())
	}

	m.Update(keyMsg("r"))
	if len(svc.refreshed) != 1 {
		t.Errorf("refreshed = %v", svc.refreshed)
	}

	m.Update(keyMsg("i"))
	if svc.imports != 1 {
		t.Errorf("imports = %d", svc.imports)
	}

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestModel_CapturingTabGetsKeys(t *testing.T) {
	m, svc, tabs := newTestModel(t, "a")
	tabs[0].capture = true

	_, cmd := m.Update(keyMsg("q"))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q should go to the capturing tab")
		}
	}
	m.Update(keyMsg("r"))
	if len(svc.refreshed) != 0 {
		t.Error("r should not refresh while capturing")
	}
	if len(tabs[0].msgs) < 2 {
		t.Errorf("tab saw %d messages", len(tabs[0].msgs))
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	m.Update(keyMsg("?"))
	if !m.showHelp {
		t.Fatal("help should be shown")
	}
	view := m.View()
	if !strings.Contains(view, "Keyboard Shortcuts") || !strings.Contains(view, "Quit") {
		t.Error("help overlay missing or clipped")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}
}

func TestModel_ToastOnShortView(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m.state.AddNotification(NotificationInfo, "saved ok", 0)

	view := m.View()
	if !strings.Contains(view, "saved ok") {
		t.Error("toast missing from a short view")
	}
	if lines := strings.Count(view, "\n") + 1; lines < 30 {
		t.Errorf("view has %d lines, want padded to the window", lines)
	}
}

func TestModel_ViewBeforeReady(t *testing.T) {
	m, _, _ := newTestModel(t)
	if !strings.Contains(m.View(), "Loading") {
		t.Error("expected loading view")
	}
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !m.IsReady() || !strings.Contains(m.View(), "Accounts") {
		t.Error("expected navbar with tabs")
	}
}

func TestModel_NilServices(t *testing.T) {
	state, _ := newTestState(t, "a")
	m := NewModel(state, nil)
	m.Update(RefreshMsg{All: true})
	m.Update(ImportMsg{})
	m.Update(SwapAccountMsg{Index: 0})
	if state.AnyFetching() {
		t.Error("no fetch should start without services")
	}
}
