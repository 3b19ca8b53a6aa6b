// Package registry holds the tracked accounts and reconciles fetch results
// against them.
//
// A Registry is owned by a single goroutine (the TUI update loop or a CLI
// command). It is not safe for concurrent use. Fetch tasks never touch it;
// their results are applied by name through ApplyResult.
package registry

import (
	"errors"
	"strings"
	"time"

	"github.com/j-veylop/claude-tracker/internal/config"
	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
	"github.com/j-veylop/claude-tracker/internal/services/usage"
)

// Registry is the ordered set of accounts with selection and active cursors.
type Registry struct {
	lastPoll time.Time
	store    secretstore.Store
	now      func() time.Time
	pending  map[string]struct{}
	loggedIn string
	entries  []models.Account
	selected int
	active   int
}

// NoActive is the active cursor when no account's credential is known to be
// pushed to Claude Code.
const NoActive = -1

// Change describes a committed mutation. Warning is set when a best-effort
// cleanup step failed after the change was committed.
type Change struct {
	Warning error
	OldName string
	Name    string
	Index   int
	Created bool
}

// New builds a registry from persisted account configs. Secrets are read
// from store and cached on each entry; a missing secret leaves the cache
// empty and the account reports "no token cached" on fetch. A negative
// active index means no account is active.
func New(store secretstore.Store, accounts []models.AccountConfig, active int) *Registry {
	r := &Registry{store: store, now: time.Now, pending: make(map[string]struct{})}

	for _, ac := range accounts {
		acc := models.Account{Config: ac}
		secret, err := store.Get(ac.Name)
		if err != nil {
			if !errors.Is(err, secretstore.ErrNotFound) {
				logger.Warn("failed to load secret", "account", ac.Name, "error", err)
			}
		} else {
			acc.Secret = secret
		}
		r.entries = append(r.entries, acc)
	}

	r.active = NoActive
	if active >= 0 {
		r.active = clamp(active, len(r.entries))
	}
	return r
}

// Len returns the number of accounts.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Accounts returns copies of all accounts in order.
func (r *Registry) Accounts() []models.Account {
	out := make([]models.Account, len(r.entries))
	for i := range r.entries {
		out[i] = r.entries[i].Clone()
	}
	return out
}

// Account returns a copy of the account at index.
func (r *Registry) Account(index int) (models.Account, bool) {
	if index < 0 || index >= len(r.entries) {
		return models.Account{}, false
	}
	return r.entries[index].Clone(), true
}

// Find returns the index of the account called name, or -1.
func (r *Registry) Find(name string) int {
	for i := range r.entries {
		if r.entries[i].Config.Name == name {
			return i
		}
	}
	return -1
}

// Selected returns the selection cursor.
func (r *Registry) Selected() int {
	return r.selected
}

// Active returns the active-account cursor, or NoActive.
func (r *Registry) Active() int {
	return r.active
}

// LastPoll returns when a fetch result was last applied.
func (r *Registry) LastPoll() time.Time {
	return r.lastPoll
}

// LoggedIn returns the name of the account Claude Code is logged in as.
func (r *Registry) LoggedIn() string {
	return r.loggedIn
}

// SetLoggedIn records which account Claude Code is logged in as. An empty
// name clears it.
func (r *Registry) SetLoggedIn(name string) {
	r.loggedIn = name
}

// Select moves the selection cursor to index, clamped to the list.
func (r *Registry) Select(index int) {
	r.selected = clamp(index, len(r.entries))
}

// MoveSelection moves the selection cursor by delta, clamped to the list.
func (r *Registry) MoveSelection(delta int) {
	r.Select(r.selected + delta)
}

// SetActive marks the account at index as active.
func (r *Registry) SetActive(index int) bool {
	if index < 0 || index >= len(r.entries) {
		return false
	}
	r.active = index
	return true
}

// Targets returns fetch targets for every account in order.
func (r *Registry) Targets() []usage.Target {
	out := make([]usage.Target, len(r.entries))
	for i := range r.entries {
		out[i] = target(&r.entries[i])
	}
	return out
}

// Target returns the fetch target for the account at index.
func (r *Registry) Target(index int) (usage.Target, bool) {
	if index < 0 || index >= len(r.entries) {
		return usage.Target{}, false
	}
	return target(&r.entries[index]), true
}

func target(acc *models.Account) usage.Target {
	return usage.Target{
		Name:   acc.Config.Name,
		OrgID:  acc.Config.OrgID,
		Method: acc.Config.AuthMethod,
		Secret: acc.Secret,
	}
}

// ApplyResult records a fetch outcome for the account called name. Results
// for names no longer in the registry are discarded and LastPoll is left
// alone. A success replaces the snapshot wholesale; an error only changes
// the status. It reports whether the result was applied.
func (r *Registry) ApplyResult(name string, snap *models.UsageSnapshot, err error) bool {
	i := r.Find(name)
	if i < 0 {
		logger.Debug("discarding result for unknown account", "account", name)
		return false
	}

	now := r.now()
	acc := &r.entries[i]
	if err != nil {
		acc.State.Status = models.Status{Kind: models.StatusError, Err: err}
	} else {
		acc.State.Usage = cloneSnapshot(snap)
		acc.State.Status = models.Status{Kind: models.StatusOK}
		acc.State.LastFetched = now
	}
	r.lastPoll = now
	return true
}

// SeedUsage installs a previously recorded snapshot without changing the
// status, so the account still reads as idle until it is fetched.
func (r *Registry) SeedUsage(name string, snap *models.UsageSnapshot, fetchedAt time.Time) bool {
	i := r.Find(name)
	if i < 0 || snap == nil {
		return false
	}
	r.entries[i].State.Usage = cloneSnapshot(snap)
	r.entries[i].State.LastFetched = fetchedAt
	return true
}

// Add creates a session-key account. The secret is stored first; if that
// fails the registry is unchanged. It returns the new index.
func (r *Registry) Add(name, secret, orgID string) (int, error) {
	mut, err := r.PrepareAdd(name, secret, orgID)
	if err != nil {
		return -1, err
	}
	change, err := r.run(mut)
	if err != nil {
		return -1, err
	}
	return change.Index, nil
}

// RenameOrUpdate changes the name, secret and org of the account at index.
// An empty newSecret keeps the current secret. The secret is written under
// the new name first; if that fails nothing changes and the old secret is
// still stored. A renamed account's old secret is then deleted on a best
// effort basis and a failure is reported in Change.Warning.
func (r *Registry) RenameOrUpdate(index int, newName, newSecret, newOrg string) (Change, error) {
	mut, err := r.PrepareUpdate(index, newName, newSecret, newOrg)
	if err != nil {
		return Change{}, err
	}
	return r.run(mut)
}

// Delete removes the account at index and its stored secret. If the store
// delete fails the account is kept.
func (r *Registry) Delete(index int) (Change, error) {
	mut, err := r.PrepareDelete(index)
	if err != nil {
		return Change{}, err
	}
	return r.run(mut)
}

// ImportOAuth stores an imported OAuth credential under name. An existing
// account of that name is switched to OAuth in place with its usage cleared
// so stale numbers from the previous credential are not shown; otherwise a
// new account is appended. It returns the index and whether it was created.
func (r *Registry) ImportOAuth(name, orgID, secret string) (int, bool, error) {
	mut, err := r.PrepareImport(name, orgID, secret)
	if err != nil {
		return -1, false, err
	}
	change, err := r.run(mut)
	if err != nil {
		return -1, false, err
	}
	return change.Index, change.Created, nil
}

// AdoptSecret persists a credential picked up during a fetch that started
// from base. It is a no-op when the account has since been deleted, renamed
// or given a different secret, so a newer secret is never overwritten.
func (r *Registry) AdoptSecret(name, base, secret string) (bool, error) {
	mut, ok := r.PrepareAdopt(name, base, secret)
	if !ok {
		return false, nil
	}
	if _, err := r.run(mut); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) run(mut Mutation) (Change, error) {
	warning, err := r.Persist(mut)
	if err != nil {
		r.Abort(mut)
		return Change{}, err
	}
	return r.Commit(mut, warning), nil
}

// ToFile returns the persisted form of the registry.
func (r *Registry) ToFile(pollIntervalSecs uint64) config.File {
	f := config.File{
		Settings: config.Settings{
			PollIntervalSecs: pollIntervalSecs,
			ActiveAccount:    r.active,
		},
		Accounts: make([]models.AccountConfig, len(r.entries)),
	}
	for i := range r.entries {
		f.Accounts[i] = r.entries[i].Config
	}
	return f
}

func validate(op, name, secret string) error {
	if strings.TrimSpace(name) == "" {
		return failure.New(failure.KindValidation, op, "name is required")
	}
	if strings.TrimSpace(secret) == "" {
		return failure.New(failure.KindValidation, op, "secret is required")
	}
	return nil
}

func cloneSnapshot(snap *models.UsageSnapshot) *models.UsageSnapshot {
	if snap == nil {
		return nil
	}
	c := snap.Clone()
	return &c
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
