package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
)

// MutationKind identifies what a Mutation changes.
type MutationKind int

// Mutation kinds.
const (
	MutationAdd MutationKind = iota
	MutationUpdate
	MutationDelete
	MutationImport
	MutationAdopt
)

// String returns the operation name used in errors.
func (k MutationKind) String() string {
	switch k {
	case MutationAdd:
		return "add account"
	case MutationUpdate:
		return "update account"
	case MutationDelete:
		return "delete account"
	case MutationImport:
		return "import account"
	case MutationAdopt:
		return "store refreshed credential"
	default:
		return "change account"
	}
}

// Mutation is a validated account change split into a secret-store half
// (Persist) and a registry half (Commit), so the store write can run away
// from the owning goroutine. Between Prepare and Commit or Abort the names
// it touches are held and any other mutation of them is refused.
type Mutation struct {
	Name    string // account name after the change
	OldName string // name before the change; equals Name unless renaming
	Secret  string
	OrgID   string // empty keeps the current org on update
	Base    string // adopt: the secret the fetch started from
	Kind    MutationKind
}

// Pending reports whether a prepared mutation still holds name.
func (r *Registry) Pending(name string) bool {
	_, ok := r.pending[name]
	return ok
}

func (r *Registry) hold(mut Mutation) Mutation {
	r.pending[mut.Name] = struct{}{}
	r.pending[mut.OldName] = struct{}{}
	return mut
}

func (r *Registry) release(mut Mutation) {
	delete(r.pending, mut.Name)
	delete(r.pending, mut.OldName)
}

func (r *Registry) checkFree(op string, names ...string) error {
	for _, n := range names {
		if r.Pending(n) {
			return failure.New(failure.KindValidation, op, "account %q has a change in progress", n)
		}
	}
	return nil
}

// PrepareAdd validates a new session-key account.
func (r *Registry) PrepareAdd(name, secret, orgID string) (Mutation, error) {
	op := MutationAdd.String()

	name = strings.TrimSpace(name)
	if err := validate(op, name, secret); err != nil {
		return Mutation{}, err
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return Mutation{}, failure.New(failure.KindValidation, op, "organization id is required")
	}
	if r.Find(name) >= 0 {
		return Mutation{}, failure.New(failure.KindValidation, op, "account %q already exists", name)
	}
	if err := r.checkFree(op, name); err != nil {
		return Mutation{}, err
	}
	return r.hold(Mutation{Kind: MutationAdd, Name: name, OldName: name, Secret: secret, OrgID: orgID}), nil
}

// PrepareUpdate validates a rename or credential change of the account at
// index. An empty newSecret keeps the current secret.
func (r *Registry) PrepareUpdate(index int, newName, newSecret, newOrg string) (Mutation, error) {
	op := MutationUpdate.String()

	if index < 0 || index >= len(r.entries) {
		return Mutation{}, failure.New(failure.KindValidation, op, "no account at index %d", index)
	}
	acc := &r.entries[index]
	oldName := acc.Config.Name

	newName = strings.TrimSpace(newName)
	if newSecret == "" {
		newSecret = acc.Secret
	}
	if err := validate(op, newName, newSecret); err != nil {
		return Mutation{}, err
	}
	if j := r.Find(newName); j >= 0 && j != index {
		return Mutation{}, failure.New(failure.KindValidation, op, "account %q already exists", newName)
	}
	if err := r.checkFree(op, oldName, newName); err != nil {
		return Mutation{}, err
	}
	return r.hold(Mutation{
		Kind:    MutationUpdate,
		Name:    newName,
		OldName: oldName,
		Secret:  newSecret,
		OrgID:   strings.TrimSpace(newOrg),
	}), nil
}

// PrepareDelete validates removal of the account at index.
func (r *Registry) PrepareDelete(index int) (Mutation, error) {
	op := MutationDelete.String()

	if index < 0 || index >= len(r.entries) {
		return Mutation{}, failure.New(failure.KindValidation, op, "no account at index %d", index)
	}
	name := r.entries[index].Config.Name
	if err := r.checkFree(op, name); err != nil {
		return Mutation{}, err
	}
	return r.hold(Mutation{Kind: MutationDelete, Name: name, OldName: name}), nil
}

// PrepareImport validates storing an imported OAuth credential under name.
func (r *Registry) PrepareImport(name, orgID, secret string) (Mutation, error) {
	op := MutationImport.String()

	if err := validate(op, name, secret); err != nil {
		return Mutation{}, err
	}
	if err := r.checkFree(op, name); err != nil {
		return Mutation{}, err
	}
	return r.hold(Mutation{Kind: MutationImport, Name: name, OldName: name, Secret: secret, OrgID: orgID}), nil
}

// PrepareAdopt decides whether a credential picked up by a fetch that
// started from base may replace the stored one. It refuses when the account
// is gone, is not OAuth, is being changed, or no longer holds base.
func (r *Registry) PrepareAdopt(name, base, secret string) (Mutation, bool) {
	i := r.Find(name)
	if i < 0 || secret == "" || secret == base {
		return Mutation{}, false
	}
	acc := &r.entries[i]
	if acc.Config.AuthMethod != models.AuthOAuth || r.Pending(name) {
		return Mutation{}, false
	}
	if acc.Secret != base {
		logger.Info("skipping adoption for changed credential", "account", name)
		return Mutation{}, false
	}
	return r.hold(Mutation{Kind: MutationAdopt, Name: name, OldName: name, Secret: secret, Base: base}), true
}

// Persist performs the secret-store half of mut. It touches only the store
// and is safe to call from any goroutine. A renamed account's old secret is
// deleted after the new one is written; a failure there is returned as
// warning and the mutation still commits.
func (r *Registry) Persist(mut Mutation) (warning, err error) {
	switch mut.Kind {
	case MutationDelete:
		return nil, r.store.Delete(mut.Name)

	case MutationUpdate:
		if err := r.store.Set(mut.Name, mut.Secret); err != nil {
			return nil, err
		}
		if mut.OldName != mut.Name {
			if err := r.store.Delete(mut.OldName); err != nil {
				logger.Warn("old secret not deleted", "account", mut.OldName, "error", err)
				return fmt.Errorf("old secret for %q not deleted: %w", mut.OldName, err), nil
			}
		}
		return nil, nil

	default:
		return nil, r.store.Set(mut.Name, mut.Secret)
	}
}

// Abort releases a mutation whose Persist failed. The registry is unchanged.
func (r *Registry) Abort(mut Mutation) {
	r.release(mut)
}

// Commit applies the registry half of a persisted mutation and releases its
// names.
func (r *Registry) Commit(mut Mutation, warning error) Change {
	r.release(mut)
	change := Change{OldName: mut.OldName, Name: mut.Name, Warning: warning, Index: -1}

	switch mut.Kind {
	case MutationAdd:
		r.entries = append(r.entries, models.Account{
			Config: models.AccountConfig{Name: mut.Name, OrgID: mut.OrgID, AuthMethod: models.AuthSessionKey},
			Secret: mut.Secret,
		})
		change.Index = len(r.entries) - 1
		change.Created = true
		logger.Info("account added", "account", mut.Name)

	case MutationUpdate:
		i := r.Find(mut.OldName)
		if i < 0 {
			logger.Warn("updated account no longer present", "account", mut.OldName)
			return change
		}
		acc := &r.entries[i]
		if mut.OldName != mut.Name && r.loggedIn == mut.OldName {
			r.loggedIn = mut.Name
		}
		acc.Config.Name = mut.Name
		if mut.OrgID != "" {
			acc.Config.OrgID = mut.OrgID
		}
		acc.Secret = mut.Secret
		resetState(acc)
		change.Index = i
		logger.Info("account updated", "account", mut.Name, "previous", mut.OldName)

	case MutationDelete:
		i := r.Find(mut.Name)
		if i < 0 {
			return change
		}
		r.remove(i)
		change.Name = ""
		logger.Info("account deleted", "account", mut.Name)

	case MutationImport:
		if i := r.Find(mut.Name); i >= 0 {
			acc := &r.entries[i]
			acc.Config.OrgID = mut.OrgID
			acc.Config.AuthMethod = models.AuthOAuth
			acc.Secret = mut.Secret
			resetState(acc)
			change.Index = i
			logger.Info("oauth account re-imported", "account", mut.Name)
			return change
		}
		r.entries = append(r.entries, models.Account{
			Config: models.AccountConfig{Name: mut.Name, OrgID: mut.OrgID, AuthMethod: models.AuthOAuth},
			Secret: mut.Secret,
		})
		change.Index = len(r.entries) - 1
		change.Created = true
		logger.Info("oauth account imported", "account", mut.Name)

	case MutationAdopt:
		i := r.Find(mut.Name)
		if i < 0 {
			return change
		}
		r.entries[i].Secret = mut.Secret
		change.Index = i
		logger.Debug("adopted refreshed credential", "account", mut.Name)
	}

	return change
}

// remove drops the entry at i. Cursors past i shift down with their
// accounts; removing the active account leaves none active.
func (r *Registry) remove(i int) {
	name := r.entries[i].Config.Name
	r.entries = append(r.entries[:i], r.entries[i+1:]...)

	switch {
	case r.active == i:
		r.active = NoActive
	case r.active > i:
		r.active--
	}
	if r.selected > i {
		r.selected--
	}
	r.selected = clamp(r.selected, len(r.entries))

	if r.loggedIn == name {
		r.loggedIn = ""
	}
}

// resetState clears usage from a previous credential.
func resetState(acc *models.Account) {
	acc.State.Usage = nil
	acc.State.LastFetched = time.Time{}
	acc.State.Status = models.Status{Kind: models.StatusIdle}
}
