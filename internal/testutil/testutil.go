// Package testutil provides shared test helpers for setting up project trees
// and history databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/guidsync/internal/history"
	"github.com/starford/guidsync/internal/storage"
)

// TestTree creates a temporary asset tree with a storage.Provider over it.
func TestTree(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes a file under root at the given relative path, creating
// parent directories as needed.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// WriteAsset writes an asset file plus its metadata companion declaring the
// given GUID.
func WriteAsset(t *testing.T, root, rel, content, guid string) {
	t.Helper()
	WriteFile(t, root, rel, content)
	WriteFile(t, root, rel+".meta", "fileFormatVersion: 2\nguid: "+guid+"\n")
}

// ReadFile reads a file under root at the given relative path.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// TestHistoryDB creates a temporary scan history database that is
// automatically cleaned up.
func TestHistoryDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "guidsync-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
