package datasource

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/projector/pkg/testutil"
)

func storeFor(t *testing.T, path string) *HistoryStore {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	src := Source{
		IDE:     KnownIDEs[0],
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
	return NewHistoryStore(src)
}

func TestReadRecent_OrderAndOrdinals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")
	testutil.MustHistoryDB(t, path, []string{"/home/u/newest", "/home/u/older", "/home/u/oldest"})

	store := storeFor(t, path)
	entries, err := store.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Path != "/home/u/newest" {
		t.Errorf("expected newest first, got %q", entries[0].Path)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].LastOpened >= entries[i-1].LastOpened {
			t.Errorf("entry %d ordinal %d not below entry %d ordinal %d",
				i, entries[i].LastOpened, i-1, entries[i-1].LastOpened)
		}
	}
}

func TestReadRecent_RestatsStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")
	testutil.MustHistoryDB(t, path, []string{"/p/a"})

	// Source carries a stale mtime from a discovery long ago
	stale := time.Unix(1000, 0)
	store := NewHistoryStore(Source{
		IDE:     KnownIDEs[0],
		Path:    path,
		ModTime: stale,
	})

	entries, err := store.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LastOpened <= stale.Unix() {
		t.Errorf("ordinal %d still based on stale mtime %d; expected the file's current mtime",
			entries[0].LastOpened, stale.Unix())
	}
}

func TestReadRecent_DeduplicatesWithinStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")
	testutil.MustHistoryDB(t, path, []string{"/p/a", "/p/b", "/p/a"})

	store := storeFor(t, path)
	entries, err := store.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected duplicate collapsed to 2 entries, got %d", len(entries))
	}
	// First occurrence (most recent) wins
	if entries[0].Path != "/p/a" || entries[1].Path != "/p/b" {
		t.Errorf("unexpected order: %q, %q", entries[0].Path, entries[1].Path)
	}
}

func TestReadRecent_PercentDecodedURIs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")
	testutil.MustHistoryDB(t, path, []string{"/home/u/my projects/app"})

	store := storeFor(t, path)
	entries, err := store.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "/home/u/my projects/app" {
		t.Errorf("expected decoded path, got %q", entries[0].Path)
	}
}

func TestReadRecent_MissingHistoryRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	store := storeFor(t, path)
	entries, err := store.ReadRecent()
	if err != nil {
		t.Fatalf("expected no error for missing row, got: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestReadRecent_MalformedValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, HistoryKey, "not json{"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	store := storeFor(t, path)
	if _, err := store.ReadRecent(); err == nil {
		t.Error("expected error for malformed history value")
	}
}

func TestRemovePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")
	testutil.MustHistoryDB(t, path, []string{"/p/keep", "/p/drop", "/p/also-keep"})

	store := storeFor(t, path)

	modified, err := store.RemovePath("/p/drop")
	if err != nil {
		t.Fatalf("RemovePath failed: %v", err)
	}
	if !modified {
		t.Error("expected store to be modified")
	}

	entries, err := store.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent after remove failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after remove, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Path == "/p/drop" {
			t.Error("removed path still present")
		}
	}
}

func TestRemovePath_AbsentIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")
	testutil.MustHistoryDB(t, path, []string{"/p/a"})

	store := storeFor(t, path)
	modified, err := store.RemovePath("/p/never-there")
	if err != nil {
		t.Fatalf("expected no error for absent path, got: %v", err)
	}
	if modified {
		t.Error("expected no modification for absent path")
	}
}

func TestRemovePath_PreservesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")

	// Hand-build a value with vendor fields we don't model
	value := `{"entries":[` +
		`{"folderUri":"file:///p/drop","label":"Drop Me"},` +
		`{"folderUri":"file:///p/keep","remoteAuthority":"ssh-remote+box","label":"Keep"}` +
		`],"workspaces3":["opaque"]}`

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, HistoryKey, value); err != nil {
		t.Fatal(err)
	}
	db.Close()

	store := storeFor(t, path)
	if _, err := store.RemovePath("/p/drop"); err != nil {
		t.Fatalf("RemovePath failed: %v", err)
	}

	db, err = sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var raw string
	if err := db.QueryRow(`SELECT value FROM ItemTable WHERE key = ?`, HistoryKey).Scan(&raw); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"remoteAuthority", "ssh-remote+box", "workspaces3", "opaque"} {
		if !strings.Contains(raw, want) {
			t.Errorf("rewritten value lost %q: %s", want, raw)
		}
	}
	if strings.Contains(raw, "/p/drop") {
		t.Errorf("rewritten value still mentions removed path: %s", raw)
	}
}

func TestRemovePath_RemoteURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.vscdb")

	const remote = "vscode-remote://ssh-remote%2Bbox/home/u/project"
	value := `{"entries":[` +
		`{"folderUri":"` + remote + `"},` +
		`{"folderUri":"file:///p/keep"}` +
		`]}`

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, HistoryKey, value); err != nil {
		t.Fatal(err)
	}
	db.Close()

	store := storeFor(t, path)

	entries, err := store.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Path != remote {
		t.Fatalf("remote entry not read verbatim: %+v", entries)
	}

	// The raw URI is the record key; removal by it must hit the entry
	modified, err := store.RemovePath(remote)
	if err != nil {
		t.Fatalf("RemovePath failed: %v", err)
	}
	if !modified {
		t.Error("expected store to be modified")
	}
	entries, err = store.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent after remove failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "/p/keep" {
		t.Errorf("expected only the local entry left, got %+v", entries)
	}
}

func TestURIToPath(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"file:///home/u/project", "/home/u/project"},
		{"file:///home/u/my%20projects/app", "/home/u/my projects/app"},
		{"vscode-remote://ssh-remote%2Bbox/home/u/project", "vscode-remote://ssh-remote%2Bbox/home/u/project"},
	}
	for _, tc := range cases {
		if got := URIToPath(tc.uri); got != tc.want {
			t.Errorf("URIToPath(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}

func TestPathToURIRoundTrip(t *testing.T) {
	path := "/home/u/my projects/app"
	if got := URIToPath(PathToURI(path)); got != path {
		t.Errorf("round trip changed path: %q", got)
	}
}
