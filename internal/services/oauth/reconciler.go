// Package oauth imports Claude Code's OAuth credential and keeps stored
// account credentials in step with it.
//
// This process never refreshes tokens itself. When a stored credential goes
// stale, the external credential is adopted only if its refresh token
// matches the stored one, so a token for a different account can never be
// saved under the wrong name.
package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/j-veylop/claude-tracker/internal/credential"
	"github.com/j-veylop/claude-tracker/internal/external"
	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/secretstore"
	"github.com/j-veylop/claude-tracker/internal/services/usage"
)

// ProfileFetcher resolves the owner of an access token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*usage.Profile, error)
}

// ImportData is a credential read from Claude Code together with the
// account it belongs to.
type ImportData struct {
	Name       string
	OrgID      string
	Credential credential.OAuth
}

// Reconciler moves credentials between the secret store and Claude Code.
type Reconciler struct {
	store    secretstore.Store
	source   external.Source
	profiles ProfileFetcher
	now      func() time.Time
}

// New creates a Reconciler.
func New(store secretstore.Store, source external.Source, profiles ProfileFetcher) *Reconciler {
	return &Reconciler{
		store:    store,
		source:   source,
		profiles: profiles,
		now:      time.Now,
	}
}

// Import reads Claude Code's current credential and identifies its account.
// A credential inside its refresh buffer is rejected rather than refreshed.
// A credential without an expiry is accepted; the profile call decides
// whether it still works.
func (r *Reconciler) Import(ctx context.Context) (*ImportData, error) {
	const op = "import"

	cred, err := r.readExternal()
	if err != nil {
		if errors.Is(err, external.ErrNotFound) {
			return nil, failure.New(failure.KindValidation, op,
				"no Claude Code credential in %s; log in with Claude Code first", r.source.Location())
		}
		return nil, failure.Wrap(failure.KindOther, op, err)
	}

	if cred.ExpiryKnown() && cred.NeedsRefresh(r.now()) {
		return nil, failure.New(failure.KindValidation, op,
			"Claude Code token is expired or about to expire; run Claude Code once to refresh, then re-import")
	}

	profile, err := r.profiles.FetchProfile(ctx, cred.AccessToken)
	if err != nil {
		return nil, err
	}

	logger.Info("imported Claude Code credential", "account", profile.Email, "source", r.source.Location())
	return &ImportData{Name: profile.Email, OrgID: profile.OrgID, Credential: cred}, nil
}

// GetStoredToken returns the access token to use for name. A fresh stored
// credential is used as-is. A stale one is replaced by Claude Code's
// credential when the refresh tokens match and that credential is live;
// otherwise the stale token is returned and the store is left untouched.
func (r *Reconciler) GetStoredToken(name string) (string, error) {
	secret, err := r.store.Get(name)
	if err != nil {
		return "", err
	}

	token, adopted := r.ResolveToken(secret)
	if adopted != "" {
		if err := r.store.Set(name, adopted); err != nil {
			logger.Warn("failed to store adopted credential", "account", name, "error", err)
		} else {
			logger.Info("adopted refreshed credential from Claude Code", "account", name)
		}
	}
	return token, nil
}

// ResolveToken is GetStoredToken without store access. It returns the token
// to use for secret and, when Claude Code's credential was adopted, the new
// encoded secret for the caller to persist.
func (r *Reconciler) ResolveToken(secret string) (token, adopted string) {
	stored, ok := credential.DecodeStored(secret)
	if !ok {
		// Legacy plain tokens carry no refresh token to match against.
		return stored.AccessToken, ""
	}

	now := r.now()
	if !stored.NeedsRefresh(now) {
		return stored.AccessToken, ""
	}

	ext, err := r.readExternal()
	if err != nil {
		if !errors.Is(err, external.ErrNotFound) {
			logger.Debug("could not read Claude Code credential", "error", err)
		}
		return stored.AccessToken, ""
	}

	if !CanAdopt(stored, ext, now) {
		return stored.AccessToken, ""
	}

	encoded, err := ext.Encode()
	if err != nil {
		return stored.AccessToken, ""
	}
	return ext.AccessToken, encoded
}

// CanAdopt reports whether ext may replace stored: the refresh tokens must
// match and ext must have a known expiry outside the refresh buffer.
func CanAdopt(stored, ext credential.OAuth, now time.Time) bool {
	if stored.RefreshToken == "" || ext.RefreshToken != stored.RefreshToken {
		return false
	}
	return ext.ExpiryKnown() && !ext.NeedsRefresh(now)
}

// DetectLoggedIn returns the OAuth account whose stored access token equals
// Claude Code's current one. The first match wins.
func (r *Reconciler) DetectLoggedIn(accounts []models.Account) (string, bool) {
	ext, err := r.readExternal()
	if err != nil {
		return "", false
	}

	for _, acc := range accounts {
		if acc.Config.AuthMethod != models.AuthOAuth {
			continue
		}
		secret := acc.Secret
		if secret == "" {
			if secret, err = r.store.Get(acc.Config.Name); err != nil {
				continue
			}
		}
		if credential.NormalizeStoredToken(secret) == ext.AccessToken {
			return acc.Config.Name, true
		}
	}
	return "", false
}

func (r *Reconciler) readExternal() (credential.OAuth, error) {
	data, err := r.source.Read()
	if err != nil {
		return credential.OAuth{}, err
	}
	return credential.Parse(data)
}
