// Package testutil builds synthetic editor history stores for tests and
// local experimentation. The generated databases use the same ItemTable
// schema and history JSON shape as real state.vscdb files.
package testutil

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	_ "modernc.org/sqlite"
)

// historyKey mirrors the vendor's ItemTable row key.
const historyKey = "history.recentlyOpenedPathsList"

// HistoryValue builds the JSON value for a recently-opened list, most
// recent first.
func HistoryValue(projectPaths []string) (string, error) {
	type entry struct {
		FolderURI string `json:"folderUri"`
	}
	var list struct {
		Entries []entry `json:"entries"`
	}
	for _, p := range projectPaths {
		u := url.URL{Scheme: "file", Path: p}
		list.Entries = append(list.Entries, entry{FolderURI: u.String()})
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CreateHistoryDB writes a state.vscdb at path containing the given
// project paths, most recent first. Parent directories are created.
func CreateHistoryDB(path string, projectPaths []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`); err != nil {
		return fmt.Errorf("creating ItemTable: %w", err)
	}

	value, err := HistoryValue(projectPaths)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, historyKey, value); err != nil {
		return fmt.Errorf("inserting history row: %w", err)
	}
	return nil
}

// MustHistoryDB creates a store for a test and fails fast on error.
func MustHistoryDB(t testing.TB, path string, projectPaths []string) {
	t.Helper()
	if err := CreateHistoryDB(path, projectPaths); err != nil {
		t.Fatalf("creating test store %s: %v", path, err)
	}
}

// MustEditorStore lays out a full editor config dir under root
// (<root>/<configDir>/User/globalStorage/state.vscdb) and returns the
// store path.
func MustEditorStore(t testing.TB, root, configDir string, projectPaths []string) string {
	t.Helper()
	path := filepath.Join(root, configDir, "User", "globalStorage", "state.vscdb")
	MustHistoryDB(t, path, projectPaths)
	return path
}
