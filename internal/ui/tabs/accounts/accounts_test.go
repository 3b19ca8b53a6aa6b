package accounts

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-tracker/internal/app"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, names ...string) *Model {
	t.Helper()
	store := secretstore.NewMemory()
	configs := make([]models.AccountConfig, len(names))
	for i, n := range names {
		store.Preload(n, "key-"+n)
		configs[i] = models.AccountConfig{Name: n, OrgID: "org-" + n}
	}
	state := app.NewState(registry.New(store, configs, 0), "", 60)
	m := New(state)
	m.now = func() time.Time { return now }
	m.SetSize(140, 40)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msgs to the model and returns the message produced by the
// last one. Earlier commands are dropped; they are cursor blinks.
func send(m *Model, msgs ...tea.Msg) tea.Msg {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestAccountRow(t *testing.T) {
	later := now.Add(2*time.Hour + 5*time.Minute)
	past := now.Add(-time.Minute)

	acc := models.Account{
		Config: models.AccountConfig{Name: "work"},
		State: models.AccountState{
			LastFetched: now.Add(-30 * time.Second),
			Status:      models.Status{Kind: models.StatusOK},
			Usage: &models.UsageSnapshot{
				FiveHour: models.Bucket{Utilization: 50, ResetsAt: &later},
				SevenDay: &models.Bucket{Utilization: 80, ResetsAt: &past},
			},
		},
	}

	row := accountRow(0, true, true, acc, "", now)
	want := []string{">1", "work *", "50%", "█████░░░░░", "2h 05m", "0%", "░░░░░░░░░░", "now", "Live"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestAccountRow_NoUsage(t *testing.T) {
	acc := models.Account{Config: models.AccountConfig{Name: "idle"}}
	row := accountRow(2, false, false, acc, "", now)
	if row[0] != "3" || row[1] != "idle" || row[2] != "--" || row[8] != "Idle" {
		t.Errorf("row = %v", row)
	}
}

func TestAccountRow_LoggedIn(t *testing.T) {
	acc := models.Account{
		Config: models.AccountConfig{Name: "me"},
		State: models.AccountState{
			LastFetched: now.Add(-time.Hour),
			Status:      models.Status{Kind: models.StatusOK},
			Usage:       &models.UsageSnapshot{},
		},
	}
	if row := accountRow(0, false, false, acc, "me", now); row[8] != "Logged In" {
		t.Errorf("status = %q", row[8])
	}
}

func TestView_Empty(t *testing.T) {
	m := newTestModel(t)
	if !strings.Contains(m.View(), EmptyText) {
		t.Error("empty state text missing")
	}
}

func TestView_Table(t *testing.T) {
	m := newTestModel(t, "alpha", "beta")
	view := m.View()
	for _, want := range []string{"alpha", "beta", "5h Reset", "Status"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestUpdate_Navigation(t *testing.T) {
	m := newTestModel(t, "a", "b")

	if msg, ok := send(m, runes("j")).(app.MoveSelectionMsg); !ok || msg.Delta != 1 {
		t.Errorf("j = %#v", msg)
	}
	if msg, ok := send(m, runes("k")).(app.MoveSelectionMsg); !ok || msg.Delta != -1 {
		t.Errorf("k = %#v", msg)
	}
	if msg, ok := send(m, runes("R")).(app.RefreshMsg); !ok || msg.All {
		t.Errorf("R = %#v", msg)
	}
}

func TestUpdate_SelectionFollowsRegistry(t *testing.T) {
	m := newTestModel(t, "a", "b")
	m.state.Registry().Select(1)
	m.Update(app.AccountsChangedMsg{})
	if m.table.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", m.table.Cursor())
	}
	if !strings.HasPrefix(m.table.Rows()[1][0], ">") {
		t.Errorf("selected marker missing: %v", m.table.Rows()[1])
	}
}

func TestUpdate_AddForm(t *testing.T) {
	m := newTestModel(t)

	send(m, runes("a"))
	if !m.CapturingInput() {
		t.Fatal("form should capture input")
	}

	msg := send(m,
		runes("work"), tea.KeyMsg{Type: tea.KeyTab},
		runes("sk-1"), tea.KeyMsg{Type: tea.KeyTab},
		runes("org-1"), tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	add, ok := msg.(app.AddAccountMsg)
	if !ok {
		t.Fatalf("msg = %#v, want AddAccountMsg", msg)
	}
	if add.Name != "work" || add.Secret != "sk-1" || add.OrgID != "org-1" {
		t.Errorf("add = %+v", add)
	}
	if m.CapturingInput() {
		t.Error("form should close after submit")
	}
}

func TestUpdate_AddFormEscape(t *testing.T) {
	m := newTestModel(t)
	send(m, runes("a"), runes("x"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.CapturingInput() {
		t.Error("esc should close the form")
	}
}

func TestUpdate_EditForm(t *testing.T) {
	m := newTestModel(t, "a", "b")
	m.state.Registry().Select(1)

	send(m, runes("e"))
	if m.nameInput.Value() != "b" || m.orgInput.Value() != "org-b" {
		t.Fatalf("form = %q / %q", m.nameInput.Value(), m.orgInput.Value())
	}
	if m.secretInput.Value() != "" {
		t.Error("secret should start blank")
	}

	msg := send(m,
		runes("2"),
		tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	edit, ok := msg.(app.EditAccountMsg)
	if !ok {
		t.Fatalf("msg = %#v, want EditAccountMsg", msg)
	}
	if edit.Index != 1 || edit.Name != "b2" || edit.Secret != "" {
		t.Errorf("edit = %+v", edit)
	}
}

func TestUpdate_DeleteConfirm(t *testing.T) {
	m := newTestModel(t, "a", "b")
	m.state.Registry().Select(1)

	send(m, runes("x"))
	if !m.CapturingInput() || m.target != "b" {
		t.Fatalf("confirm not open: target %q", m.target)
	}
	if !strings.Contains(m.View(), "Delete Account?") {
		t.Error("confirm prompt missing")
	}

	msg := send(m, runes("y"))
	if del, ok := msg.(app.DeleteAccountMsg); !ok || del.Index != 1 {
		t.Errorf("msg = %#v", msg)
	}
}

func TestUpdate_SwapConfirmCancel(t *testing.T) {
	m := newTestModel(t, "a")

	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeConfirmSwap {
		t.Fatalf("mode = %v, want swap confirm", m.mode)
	}
	if msg := send(m, runes("n")); msg != nil {
		t.Errorf("cancel produced %#v", msg)
	}
	if m.CapturingInput() {
		t.Error("prompt should close")
	}

	send(m, runes("s"))
	if msg, ok := send(m, runes("y")).(app.SwapAccountMsg); !ok || msg.Index != 0 {
		t.Errorf("swap = %#v", msg)
	}
}

func TestUpdate_NoPromptWithoutAccounts(t *testing.T) {
	m := newTestModel(t)
	send(m, runes("d"), runes("s"), runes("e"))
	if m.CapturingInput() {
		t.Error("prompts need a selected account")
	}
	if msg := send(m, runes("R")); msg != nil {
		t.Errorf("R with no accounts = %#v", msg)
	}
}
