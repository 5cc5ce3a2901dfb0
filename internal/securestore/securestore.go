// Package securestore provides key-value persistence with OS-backed
// confidentiality guarantees. It wraps the platform keychain for session
// credentials and exposes an in-memory implementation for tests.
package securestore

import "errors"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("securestore: key not found")

// Store defines the contract for secure key-value persistence.
// All values are opaque strings; confidentiality is the implementation's
// responsibility. There is no fallback to insecure storage: implementations
// must propagate backend failures rather than degrade.
type Store interface {
	// Get returns the value for key, or ErrNotFound if absent.
	Get(key string) (string, error)

	// Set persists value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
