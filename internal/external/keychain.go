package external

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keychain is Claude Code's keychain entry.
type Keychain struct {
	service string
	user    string
}

// NewKeychain returns the keychain source for service and user.
func NewKeychain(service, user string) *Keychain {
	return &Keychain{service: service, user: user}
}

// Read implements Source.
func (k *Keychain) Read() ([]byte, error) {
	secret, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keychain entry %q: %w", k.service, err)
	}
	return []byte(secret), nil
}

// Write implements Source. The old entry is deleted first so the new one
// gets fresh access control.
func (k *Keychain) Write(data []byte) error {
	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keychain entry %q: %w", k.service, err)
	}
	if err := keyring.Set(k.service, k.user, string(data)); err != nil {
		return fmt.Errorf("failed to write keychain entry %q: %w", k.service, err)
	}
	return nil
}

// Location implements Source.
func (k *Keychain) Location() string {
	return "keychain:" + k.service
}
