// Package testutil provides shared test helpers for setting up drafts
// directories and databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "scribe-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDrafts creates a temporary drafts directory with a storage provider.
func TestDrafts(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	require.NoError(t, err)
	return dir, fs
}
