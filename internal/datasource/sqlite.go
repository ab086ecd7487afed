package datasource

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/goccy/go-json"

	_ "modernc.org/sqlite"
)

// HistoryKey is the ItemTable row holding the recently-opened list.
const HistoryKey = "history.recentlyOpenedPathsList"

// Entry is one recently-opened project from a history store.
type Entry struct {
	// Path is the decoded filesystem path, or the raw URI for
	// non-file entries (remote workspaces and the like)
	Path string
	// URI is the original folderUri/fileUri value
	URI string
	// LastOpened is a recency ordinal; higher means more recent.
	// The vendor stores no per-entry timestamps, so recency is derived
	// from the store's mtime and the entry's list position.
	LastOpened int64
}

// HistoryStore reads and edits one editor's state.vscdb.
// Connections are opened per operation and closed immediately: the editor
// may be writing the same file, so nothing is held across calls.
type HistoryStore struct {
	source Source
}

// NewHistoryStore wraps a discovered source.
func NewHistoryStore(source Source) *HistoryStore {
	return &HistoryStore{source: source}
}

// Source returns the underlying discovered source.
func (h *HistoryStore) Source() Source { return h.source }

// ID returns the IDE identifier for this store.
func (h *HistoryStore) ID() string { return h.source.IDE.ID }

// Label returns the human-readable editor name for this store.
func (h *HistoryStore) Label() string { return h.source.IDE.Label }

// openRead opens the store read-only with a bounded busy timeout, so a
// store locked by the editor blocks briefly rather than indefinitely.
func (h *HistoryStore) openRead() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", h.source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open store: %w", err)
	}
	return db, nil
}

// openWrite opens the store read-write for a short-lived transaction.
func (h *HistoryStore) openWrite() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", h.source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open store for writing: %w", err)
	}
	return db, nil
}

// historyEntry is the subset of an entry we inspect. The vendor writes
// more fields (labels, remote authority, workspace identifiers); rewrites
// preserve them by keeping entries as raw JSON.
type historyEntry struct {
	FolderURI string `json:"folderUri"`
	FileURI   string `json:"fileUri"`
}

// ReadRecent returns the store's history entries, most recent first.
// Duplicate paths within the store keep their first (most recent)
// occurrence. A store without the history row yields an empty slice.
func (h *HistoryStore) ReadRecent() ([]Entry, error) {
	// The editor rewrites the store while we run; re-stat so recency
	// ordinals track the current mtime, not the one seen at discovery.
	if info, err := os.Stat(h.source.Path); err == nil {
		h.source.ModTime = info.ModTime()
		h.source.Size = info.Size()
	}

	db, err := h.openRead()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRow(`SELECT value FROM ItemTable WHERE key = ?`, HistoryKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history row: %w", err)
	}

	var list struct {
		Entries []historyEntry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("parsing history row: %w", err)
	}

	base := h.source.ModTime.Unix()
	seen := make(map[string]bool, len(list.Entries))
	var entries []Entry
	for i, e := range list.Entries {
		uri := e.FolderURI
		if uri == "" {
			uri = e.FileURI
		}
		if uri == "" {
			continue
		}
		path := URIToPath(uri)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		entries = append(entries, Entry{
			Path:       path,
			URI:        uri,
			LastOpened: base - int64(i),
		})
	}
	return entries, nil
}

// RemovePath deletes every entry for the given path from the store,
// preserving all other entry fields verbatim. Returns whether the store
// was modified. A path not present is a no-op, not an error.
func (h *HistoryStore) RemovePath(path string) (bool, error) {
	db, err := h.openWrite()
	if err != nil {
		return false, err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow(`SELECT value FROM ItemTable WHERE key = ?`, HistoryKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading history row: %w", err)
	}

	// Decode shallowly so fields we don't model survive the rewrite.
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return false, fmt.Errorf("parsing history row: %w", err)
	}
	var rawEntries []json.RawMessage
	if entriesRaw, ok := top["entries"]; ok {
		if err := json.Unmarshal(entriesRaw, &rawEntries); err != nil {
			return false, fmt.Errorf("parsing history entries: %w", err)
		}
	}

	kept := make([]json.RawMessage, 0, len(rawEntries))
	modified := false
	for _, rawEntry := range rawEntries {
		var e historyEntry
		if err := json.Unmarshal(rawEntry, &e); err == nil {
			uri := e.FolderURI
			if uri == "" {
				uri = e.FileURI
			}
			if uri != "" && URIToPath(uri) == path {
				modified = true
				continue
			}
		}
		kept = append(kept, rawEntry)
	}
	if !modified {
		return false, nil
	}

	entriesJSON, err := json.Marshal(kept)
	if err != nil {
		return false, fmt.Errorf("encoding history entries: %w", err)
	}
	top["entries"] = entriesJSON
	updated, err := json.Marshal(top)
	if err != nil {
		return false, fmt.Errorf("encoding history row: %w", err)
	}

	if _, err := tx.Exec(`UPDATE ItemTable SET value = ? WHERE key = ?`, string(updated), HistoryKey); err != nil {
		return false, fmt.Errorf("updating history row: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing history update: %w", err)
	}
	return true, nil
}

// URIToPath converts a file:// URI to a filesystem path, percent-decoded.
// Non-file URIs are returned verbatim so remote entries stay addressable.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return u.Path
}

// PathToURI converts an absolute filesystem path to a file:// URI.
func PathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// IsRemoteURI reports whether a history entry refers to something other
// than a local path (vscode-remote://, untitled:, ...).
func IsRemoteURI(uri string) bool {
	return !strings.HasPrefix(uri, "file://") && strings.Contains(uri, "://")
}
