// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by KeyValueStore operations when
// CALLPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CALLPANEL_SECRET_KEY")

// KeyValueStore defines the driven port for encrypted API key persistence.
// The adapter layer is responsible for encryption/decryption; this interface
// operates on plaintext values at the domain boundary.
type KeyValueStore interface {
	// Lookup retrieves the plaintext value stored under key. found is false
	// when no entry exists. A non-nil error means the lookup itself failed and
	// says nothing about whether the key exists.
	Lookup(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores or replaces the value under key.
	Set(ctx context.Context, key, plaintext string) error

	// List returns all stored entries ordered by name. Values are decrypted plaintext.
	List(ctx context.Context) ([]model.APIKey, error)

	// Delete removes the entry under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
