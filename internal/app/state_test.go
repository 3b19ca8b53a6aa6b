package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/claude-tracker/internal/config"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
)

func newTestState(t *testing.T, names ...string) (*State, *secretstore.Memory) {
	t.Helper()
	store := secretstore.NewMemory()
	configs := make([]models.AccountConfig, len(names))
	for i, n := range names {
		store.Preload(n, "key-"+n)
		configs[i] = models.AccountConfig{Name: n, OrgID: "org-" + n}
	}
	reg := registry.New(store, configs, 0)
	path := filepath.Join(t.TempDir(), "config.toml")
	return NewState(reg, path, 60), store
}

func TestNewState_ClampsPollInterval(t *testing.T) {
	s := NewState(registry.New(secretstore.NewMemory(), nil, 0), "", 5)
	if got := s.PollInterval(); got != config.MinPollIntervalSecs*time.Second {
		t.Errorf("PollInterval() = %v", got)
	}
}

func TestState_Save(t *testing.T) {
	s, _ := newTestState(t, "a", "b")
	s.Registry().SetActive(1)

	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	f, err := config.LoadFile(s.ConfigPath())
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(f.Accounts) != 2 || f.Accounts[1].Name != "b" {
		t.Errorf("accounts = %+v", f.Accounts)
	}
	if f.Settings.ActiveAccount != 1 {
		t.Errorf("active = %d, want 1", f.Settings.ActiveAccount)
	}
	if f.Settings.PollIntervalSecs != 60 {
		t.Errorf("poll = %d, want 60", f.Settings.PollIntervalSecs)
	}
}

func TestState_SaveWithoutPath(t *testing.T) {
	s := NewState(registry.New(secretstore.NewMemory(), nil, 0), "", 60)
	if err := s.Save(); err != nil {
		t.Errorf("Save() error = %v", err)
	}
}

func TestState_Fetching(t *testing.T) {
	s, _ := newTestState(t)

	if s.AnyFetching() {
		t.Error("fresh state should not be fetching")
	}
	s.MarkFetching("a", "b")
	if !s.IsFetching("a") || !s.AnyFetching() {
		t.Error("a should be fetching")
	}
	s.FetchDone("a")
	if s.IsFetching("a") {
		t.Error("a should be done")
	}
	s.FetchDone("b")
	if s.AnyFetching() {
		t.Error("nothing should be fetching")
	}
}

func TestState_PollDue(t *testing.T) {
	s, _ := newTestState(t, "a")
	now := time.Now()

	if !s.PollDue(now) {
		t.Error("never polled should be due")
	}

	s.Registry().ApplyResult("a", &models.UsageSnapshot{}, nil)
	if s.PollDue(time.Now()) {
		t.Error("just polled should not be due")
	}
	if !s.PollDue(time.Now().Add(61 * time.Second)) {
		t.Error("poll should be due after the interval")
	}

	s.MarkFetching("a")
	if s.PollDue(time.Now().Add(time.Hour)) {
		t.Error("poll should wait for in-flight fetches")
	}
}

func TestState_Notifications(t *testing.T) {
	s, _ := newTestState(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	id := s.AddNotification(NotificationSuccess, "saved", 5*time.Second)
	s.AddNotification(NotificationInfo, "sticky", 0)

	if got := len(s.GetNotifications()); got != 2 {
		t.Fatalf("notifications = %d, want 2", got)
	}

	now = now.Add(6 * time.Second)
	if got := s.GetNotifications(); len(got) != 1 || got[0].Message != "sticky" {
		t.Errorf("after expiry = %+v", got)
	}

	s.ClearExpiredNotifications()
	s.RemoveNotification(id)
	if got := len(s.GetNotifications()); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestState_NotificationLimit(t *testing.T) {
	s, _ := newTestState(t)
	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "x", time.Minute)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("notifications = %d, want %d", got, maxNotifications)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s, _ := newTestState(t)

	s.SetLoadingNotification("one")
	s.SetLoadingNotification("two")
	n := s.GetNotifications()
	if len(n) != 1 || n[0].Message != "two" || n[0].Type != NotificationLoading {
		t.Fatalf("loading = %+v", n)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification should be removed")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		in   NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
