package info

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-tracker/internal/app"
	"github.com/j-veylop/claude-tracker/internal/config"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
	"github.com/j-veylop/claude-tracker/internal/version"
)

type fakeEnv struct{ watching bool }

func (f fakeEnv) CredentialsLocation() string { return "/home/me/.claude/.credentials.json" }
func (f fakeEnv) Watching() bool              { return f.watching }

func newState(names ...string) *app.State {
	store := secretstore.NewMemory()
	configs := make([]models.AccountConfig, len(names))
	for i, n := range names {
		store.Preload(n, "key-"+n)
		configs[i] = models.AccountConfig{Name: n}
	}
	return app.NewState(registry.New(store, configs, 0), "", 120)
}

func TestView(t *testing.T) {
	version.Version, version.Commit, version.BuildDate = "1.0.0", "abc123", "2026-01-01"
	t.Cleanup(version.Reset)

	cfg := &config.Config{
		ConfigPath:        "/cfg/config.toml",
		ActiveSessionPath: "/cfg/active_session.json",
		DatabasePath:      "/cfg/usage.db",
		LogPath:           "/cfg/tracker.log",
		LogLevel:          "debug",
		Notifications:     true,
	}
	state := newState("work", "home")
	state.Registry().SetLoggedIn("home")

	m := New(state, cfg, fakeEnv{watching: true})
	m.SetSize(140, 60)

	view := m.View()
	for _, want := range []string{
		"/cfg/config.toml",
		"/cfg/active_session.json",
		"/cfg/usage.db",
		"/cfg/tracker.log",
		"2m0s",
		".credentials.json",
		"watching for changes",
		"Configured:",
		"home",
		"never",
		"1.0.0",
		"abc123",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_NoConfig(t *testing.T) {
	version.Version, version.Commit, version.BuildDate = "dev", "unknown", "today"
	t.Cleanup(version.Reset)

	m := New(newState(), nil, nil)
	m.SetSize(100, 50)
	view := m.View()
	if !strings.Contains(view, "Configuration not loaded") {
		t.Error("missing config placeholder")
	}
	if !strings.Contains(view, "none") {
		t.Error("missing empty active account")
	}
}

func TestUpdate(t *testing.T) {
	m := New(newState(), nil, nil)
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
	if tab, cmd := m.Update(app.TickMsg{}); tab != m || cmd != nil {
		t.Error("non-key messages are ignored")
	}
	if tab, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown}); tab != m {
		t.Error("Update returned a different tab")
	}
	if len(m.ShortHelp()) != 2 || len(m.FullHelp()) != 1 {
		t.Error("unexpected help bindings")
	}
}
