// Package services provides service orchestration for the TUI and CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-tracker/internal/config"
	"github.com/j-veylop/claude-tracker/internal/db"
	"github.com/j-veylop/claude-tracker/internal/external"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
	"github.com/j-veylop/claude-tracker/internal/services/alerts"
	"github.com/j-veylop/claude-tracker/internal/services/oauth"
	"github.com/j-veylop/claude-tracker/internal/services/usage"
	"github.com/j-veylop/claude-tracker/internal/swap"
)

type (
	// UsageFetchedEvent carries one fetch result.
	UsageFetchedEvent struct {
		Result usage.Result
	}

	// ImportedEvent is emitted when an import attempt finishes.
	ImportedEvent struct {
		Data *oauth.ImportData
		Err  error
	}

	// LoggedInEvent reports which account, if any, Claude Code is logged
	// in as.
	LoggedInEvent struct {
		Name  string
		Found bool
	}

	// SwappedEvent is emitted when a swap attempt finishes.
	SwappedEvent struct {
		Err     error
		Request swap.Request
	}

	// CredentialsChangedEvent is emitted when Claude Code's credentials
	// file changes on disk.
	CredentialsChangedEvent struct{}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageFetchedEvent) isServiceEvent()       {}
func (ImportedEvent) isServiceEvent()           {}
func (LoggedInEvent) isServiceEvent()           {}
func (SwappedEvent) isServiceEvent()            {}
func (CredentialsChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()              {}

// Deps overrides the collaborators NewManager would otherwise build from
// the config. Zero fields get production defaults.
type Deps struct {
	Store      secretstore.Store
	Source     external.Source
	HTTPClient *http.Client
	Notifier   alerts.Notifier
	Usage      usage.Config
	// NoWatch disables the credentials file watcher.
	NoWatch bool
}

// Manager orchestrates services and event routing.
type Manager struct {
	ctx         context.Context
	store       secretstore.Store
	source      external.Source
	client      *usage.Client
	poller      *usage.Poller
	reconciler  *oauth.Reconciler
	swapper     *swap.Swapper
	database    *db.DB
	alerts      *alerts.Checker
	watcher     *external.Watcher
	cancel      context.CancelFunc
	stopChan    chan struct{}
	routeDone   chan struct{}
	subscribers []chan<- ServiceEvent
	inflight    sync.WaitGroup
	mu          sync.RWMutex
	closeOnce   sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config, deps Deps) (*Manager, error) {
	if deps.Store == nil {
		deps.Store = secretstore.NewKeychain(secretstore.ServiceName)
	}
	if deps.Source == nil {
		deps.Source = external.New(cfg.External)
	}
	if deps.Usage == (usage.Config{}) {
		deps.Usage = usage.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ctx:       ctx,
		cancel:    cancel,
		store:     deps.Store,
		source:    deps.Source,
		stopChan:  make(chan struct{}),
		routeDone: make(chan struct{}),
		alerts:    alerts.NewChecker(deps.Notifier, cfg.Notifications),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.client = usage.NewClient(deps.HTTPClient, deps.Usage)
	m.reconciler = oauth.New(m.store, m.source, m.client)
	m.poller = usage.NewPoller(m.client, m.reconciler, 32)
	m.swapper = swap.New(m.store, m.source, cfg.ActiveSessionPath)

	if file, ok := m.source.(*external.File); ok && !deps.NoWatch {
		m.watcher, err = external.NewWatcher(file.Path())
		if err != nil {
			logger.Warn("credentials watcher unavailable", "path", file.Path(), "error", err)
			m.watcher = nil
		}
	}

	go m.routeEvents()

	return m, nil
}

// routeEvents forwards poll results and file changes to subscribers.
func (m *Manager) routeEvents() {
	defer close(m.routeDone)

	var changes <-chan struct{}
	if m.watcher != nil {
		changes = m.watcher.Changes()
	}

	for {
		select {
		case res := <-m.poller.Results():
			m.broadcast(UsageFetchedEvent{Result: res})

		case <-changes:
			m.broadcast(CredentialsChangedEvent{})

		case <-m.stopChan:
			return
		}
	}
}

// broadcast sends an event to all subscribers. Sends block until the
// subscriber reads or the manager closes, so fetch results are never
// dropped.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	subs := make([]chan<- ServiceEvent, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub <- event:
		case <-m.stopChan:
			return
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel. The channel receives no further
// events but is left open; Close closes the rest.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			break
		}
	}
}

// RefreshAll fetches usage for every target, staggered.
func (m *Manager) RefreshAll(targets []usage.Target) {
	m.poller.FetchAll(m.ctx, targets)
}

// Refresh fetches usage for a single target.
func (m *Manager) Refresh(target usage.Target) {
	m.poller.FetchOne(m.ctx, target)
}

// FetchNow fetches usage for target synchronously. The result is not
// broadcast; the caller applies and observes it.
func (m *Manager) FetchNow(ctx context.Context, target usage.Target) usage.Result {
	return m.poller.Fetch(ctx, target)
}

// Import reads Claude Code's credential in the background and emits an
// ImportedEvent.
func (m *Manager) Import() {
	m.async(func() ServiceEvent {
		data, err := m.ImportNow(m.ctx)
		return ImportedEvent{Data: data, Err: err}
	})
}

// ImportNow reads Claude Code's credential and identifies its account.
func (m *Manager) ImportNow(ctx context.Context) (*oauth.ImportData, error) {
	return m.reconciler.Import(ctx)
}

// Detect works out in the background which account Claude Code is logged
// in as and emits a LoggedInEvent. accounts should be a snapshot taken by
// the registry owner.
func (m *Manager) Detect(accounts []models.Account) {
	m.async(func() ServiceEvent {
		name, found := m.DetectNow(accounts)
		return LoggedInEvent{Name: name, Found: found}
	})
}

// DetectNow reports which account Claude Code is logged in as.
func (m *Manager) DetectNow(accounts []models.Account) (string, bool) {
	return m.reconciler.DetectLoggedIn(accounts)
}

// Swap makes req's account active for Claude Code in the background and
// emits a SwappedEvent.
func (m *Manager) Swap(req swap.Request) {
	m.async(func() ServiceEvent {
		return SwappedEvent{Request: req, Err: m.SwapNow(req)}
	})
}

// SwapNow makes req's account active for Claude Code.
func (m *Manager) SwapNow(req swap.Request) error {
	return m.swapper.Swap(req)
}

func (m *Manager) async(run func() ServiceEvent) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.broadcast(run())
	}()
}

// Observe records an applied fetch outcome: successes go to history and
// every outcome feeds the alert checker.
func (m *Manager) Observe(res usage.Result) {
	if res.Err == nil && res.Usage != nil {
		m.Record(res.Name, res.Usage, res.FetchedAt)
	}
	m.alerts.Observe(res.Name, res.Usage, res.Err)
}

// Record stores a successful reading in the history database.
func (m *Manager) Record(name string, snap *models.UsageSnapshot, at time.Time) {
	if _, err := m.database.InsertUsageSnapshot(name, snap, at); err != nil {
		logger.Error("failed to record usage", "account", name, "error", err)
	}
}

// Seed installs each account's latest recorded reading into reg.
func (m *Manager) Seed(reg *registry.Registry) {
	for _, acc := range reg.Accounts() {
		p, err := m.database.LatestSnapshot(acc.Config.Name)
		if err != nil {
			logger.Warn("failed to load latest usage", "account", acc.Config.Name, "error", err)
			continue
		}
		if p == nil {
			continue
		}
		snap := p.Snapshot()
		reg.SeedUsage(acc.Config.Name, &snap, p.FetchedAt)
	}
}

// AccountRenamed moves history and alert state to newName.
func (m *Manager) AccountRenamed(oldName, newName string) {
	if oldName == newName {
		return
	}
	if err := m.database.RenameAccount(oldName, newName); err != nil {
		logger.Error("failed to rename history", "from", oldName, "to", newName, "error", err)
	}
	m.alerts.Rename(oldName, newName)
}

// AccountRemoved drops history and alert state for name.
func (m *Manager) AccountRemoved(name string) {
	if err := m.database.DeleteAccountHistory(name); err != nil {
		logger.Error("failed to delete history", "account", name, "error", err)
	}
	m.alerts.Forget(name)
}

// AccountReset drops alert state for name after its credential changes.
func (m *Manager) AccountReset(name string) {
	m.alerts.Forget(name)
}

// History returns recorded readings for name since the given time.
func (m *Manager) History(name string, since time.Time) ([]models.UsagePoint, error) {
	return m.database.GetUsageHistory(name, since)
}

// DailyPeaks returns per-day peaks for name over the last days days.
func (m *Manager) DailyPeaks(name string, days int) ([]models.DailyPeak, error) {
	return m.database.GetDailyPeaks(name, days)
}

// Store returns the account secret store.
func (m *Manager) Store() secretstore.Store {
	return m.store
}

// CredentialsLocation describes where Claude Code's credential lives.
func (m *Manager) CredentialsLocation() string {
	return m.source.Location()
}

// Watching reports whether credential file changes are being watched.
func (m *Manager) Watching() bool {
	return m.watcher != nil
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close stops event routing, waits for background work, closes subscriber
// channels and releases resources.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.cancel()
		<-m.routeDone
		m.inflight.Wait()
		m.poller.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.watcher != nil {
			if err := m.watcher.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
