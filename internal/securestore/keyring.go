package securestore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// serviceName scopes clipvault entries within the OS keychain.
const serviceName = "clipvault"

// KeyringStore persists values in the operating system keychain
// (Keychain on macOS, Credential Manager on Windows, Secret Service on Linux).
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a Store backed by the OS keychain.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: serviceName}
}

// Get returns the stored value for key.
func (s *KeyringStore) Get(key string) (string, error) {
	v, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("securestore: read %s: %w", key, err)
	}
	return v, nil
}

// Set persists value under key.
func (s *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("securestore: write %s: %w", key, err)
	}
	return nil
}

// Delete removes key from the keychain.
func (s *KeyringStore) Delete(key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("securestore: delete %s: %w", key, err)
	}
	return nil
}
