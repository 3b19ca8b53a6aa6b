// Package secretstore stores per-account secrets keyed by account name.
package secretstore

import (
	"errors"

	"github.com/j-veylop/claude-tracker/internal/failure"
)

// ServiceName is the keychain service under which account secrets live.
const ServiceName = "claude-tracker"

// ErrNotFound is returned by Get when no secret exists for the name.
var ErrNotFound = errors.New("secret not found")

// Store reads and writes account secrets.
type Store interface {
	// Get returns the secret for name, or an error wrapping ErrNotFound.
	Get(name string) (string, error)
	// Set creates or replaces the secret for name.
	Set(name, secret string) error
	// Delete removes the secret for name. Deleting a missing name is not an error.
	Delete(name string) error
}

func notFound(name string) error {
	return &failure.Error{Kind: failure.KindSecretStore, Op: "get secret for " + name, Err: ErrNotFound}
}

func storeErr(op, name string, err error) error {
	return &failure.Error{Kind: failure.KindSecretStore, Op: op + " secret for " + name, Err: err}
}
