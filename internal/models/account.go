// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"strings"
	"time"
)

// AuthMethod selects how an account authenticates against the usage API.
type AuthMethod int

const (
	// AuthSessionKey uses a claude.ai session cookie.
	AuthSessionKey AuthMethod = iota
	// AuthOAuth uses an OAuth bearer token imported from Claude Code.
	AuthOAuth
)

// String returns the config-file representation of the auth method.
func (a AuthMethod) String() string {
	if a == AuthOAuth {
		return "oauth"
	}
	return "session_key"
}

// MarshalText implements encoding.TextMarshaler.
func (a AuthMethod) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value means
// session key; "o_auth" is accepted for older config files.
func (a *AuthMethod) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "session_key", "sessionkey":
		*a = AuthSessionKey
	case "oauth", "o_auth":
		*a = AuthOAuth
	default:
		return fmt.Errorf("unknown auth method %q", string(text))
	}
	return nil
}

// AccountConfig is the persisted part of an account.
type AccountConfig struct {
	Name       string     `toml:"name"`
	OrgID      string     `toml:"org_id"`
	AuthMethod AuthMethod `toml:"auth_method"`
}

// StatusKind is the fetch status of an account.
type StatusKind int

const (
	// StatusIdle means no fetch has completed since the account was created
	// or its credential changed.
	StatusIdle StatusKind = iota
	// StatusOK means the last fetch succeeded.
	StatusOK
	// StatusError means the last fetch failed; Status.Err holds the reason.
	StatusError
)

// Status is the fetch status of an account with an optional error.
type Status struct {
	Err  error
	Kind StatusKind
}

// IsError reports whether the last fetch failed.
func (s Status) IsError() bool {
	return s.Kind == StatusError
}

// AccountState is the in-memory runtime state of an account.
type AccountState struct {
	LastFetched time.Time
	Usage       *UsageSnapshot
	Status      Status
}

// Account pairs an account's config with its runtime state and the secret
// cached at load time. Secret is empty when the store had nothing for it.
type Account struct {
	Config AccountConfig
	State  AccountState
	Secret string
}

// Clone returns a copy that shares no mutable data with a.
func (a *Account) Clone() Account {
	clone := *a
	if a.State.Usage != nil {
		u := a.State.Usage.Clone()
		clone.State.Usage = &u
	}
	return clone
}
