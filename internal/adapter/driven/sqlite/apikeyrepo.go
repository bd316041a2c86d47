package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KeyValueStore = (*APIKeyRepo)(nil)

// APIKeyRepo is the SQLite implementation of the KeyValueStore port interface.
// Values are encrypted with AES-256-GCM before write and decrypted after read.
type APIKeyRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewAPIKeyRepo creates a new APIKeyRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable the store (all reads and writes return ErrEncryptionKeyNotSet).
func NewAPIKeyRepo(db *DB, key []byte) *APIKeyRepo {
	return &APIKeyRepo{db: db, key: key}
}

// Lookup retrieves the plaintext value stored under key.
func (r *APIKeyRepo) Lookup(ctx context.Context, key string) (string, bool, error) {
	if r.key == nil {
		return "", false, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM api_keys WHERE name = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get api key %q: %w", key, err)
	}

	plaintext, err := openValue(r.key, encrypted)
	if err != nil {
		return "", false, fmt.Errorf("decrypt api key %q: %w", key, err)
	}
	return plaintext, true, nil
}

// Set stores or replaces the value under key.
func (r *APIKeyRepo) Set(ctx context.Context, key, plaintext string) error {
	if r.key == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	encrypted, err := sealValue(r.key, plaintext)
	if err != nil {
		return fmt.Errorf("encrypt api key %q: %w", key, err)
	}

	const query = `
		INSERT INTO api_keys (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.Writer.ExecContext(ctx, query, key, encrypted, now); err != nil {
		return fmt.Errorf("set api key %q: %w", key, err)
	}
	return nil
}

// List returns all stored entries with decrypted values.
func (r *APIKeyRepo) List(ctx context.Context) ([]model.APIKey, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT name, value, updated_at FROM api_keys ORDER BY name`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	keys := []model.APIKey{}
	for rows.Next() {
		var k model.APIKey
		var encrypted, updatedAt string
		if err := rows.Scan(&k.Name, &encrypted, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}

		k.Value, err = openValue(r.key, encrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt api key %q: %w", k.Name, err)
		}

		k.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for api key %q: %w", k.Name, err)
		}

		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}

	return keys, nil
}

// Delete removes the entry under key.
func (r *APIKeyRepo) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM api_keys WHERE name = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete api key %q: %w", key, err)
	}
	return nil
}
