package secretstore

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// Keychain stores secrets in the OS keychain (macOS Keychain, Secret
// Service on Linux, Credential Manager on Windows).
type Keychain struct {
	service string
}

// NewKeychain returns a Keychain for the given service name. An empty
// service uses ServiceName.
func NewKeychain(service string) *Keychain {
	if service == "" {
		service = ServiceName
	}
	return &Keychain{service: service}
}

// Get implements Store.
func (k *Keychain) Get(name string) (string, error) {
	secret, err := keyring.Get(k.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", notFound(name)
	}
	if err != nil {
		return "", storeErr("get", name, err)
	}
	return secret, nil
}

// Set implements Store.
func (k *Keychain) Set(name, secret string) error {
	if err := keyring.Set(k.service, name, secret); err != nil {
		return storeErr("set", name, err)
	}
	return nil
}

// Delete implements Store.
func (k *Keychain) Delete(name string) error {
	err := keyring.Delete(k.service, name)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return storeErr("delete", name, err)
}
