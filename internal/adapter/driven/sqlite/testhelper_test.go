package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB creates a named shared in-memory SQLite database with
// migrations applied. The name is derived from t.Name() so parallel tests
// never share state.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// WAL mode is not applicable to in-memory databases; omit journal_mode.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", url.PathEscape(t.Name()), dsnPragmas)

	db, err := openDB(context.Background(), dsn, dsn)
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer), "run migrations")

	return db
}

// setupTestRepo returns an APIKeyRepo with encryption enabled over a fresh database.
func setupTestRepo(t *testing.T) *APIKeyRepo {
	t.Helper()

	key, err := DeriveKey("test-secret")
	require.NoError(t, err)

	return NewAPIKeyRepo(setupTestDB(t), key)
}
