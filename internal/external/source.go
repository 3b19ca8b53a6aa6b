// Package external reads and writes the OAuth credential owned by Claude
// Code, either in the OS keychain or in its credentials file.
package external

import (
	"errors"

	"github.com/j-veylop/claude-tracker/internal/config"
)

// ErrNotFound is returned when Claude Code has no stored credential.
var ErrNotFound = errors.New("no Claude Code credential found")

// Source is Claude Code's credential store.
type Source interface {
	// Read returns the raw credential blob or ErrNotFound.
	Read() ([]byte, error)
	// Write replaces the stored credential blob.
	Write(data []byte) error
	// Location describes where the credential lives, for messages.
	Location() string
}

// New returns the source selected by cfg for this platform.
func New(cfg config.ExternalConfig) Source {
	if cfg.Resolved() == config.SourceKeychain {
		return NewKeychain(cfg.KeychainService, cfg.KeychainUser)
	}
	return NewFile(cfg.CredentialsPath)
}
