package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vanderheijden86/projector/pkg/config"
)

// fakeSource is an in-memory Source for registry tests.
type fakeSource struct {
	id      string
	entries []Entry
	readErr error
	removed []string
}

func (f *fakeSource) ID() string    { return f.id }
func (f *fakeSource) Label() string { return f.id }

func (f *fakeSource) Read() ([]Entry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeSource) Remove(path string) (bool, error) {
	f.removed = append(f.removed, path)
	for i, e := range f.entries {
		if e.Path == path {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestRegistry(t *testing.T, sources []Source, cfg *config.Config) *Registry {
	t.Helper()
	if cfg == nil {
		c := config.DefaultConfig()
		cfg = &c
	}
	r := New(sources, cfg)
	r.SetSaver(func(config.Config) error { return nil })
	return r
}

func mustRefresh(t *testing.T, r *Registry) {
	t.Helper()
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
}

func TestRefresh_MergesAcrossSources(t *testing.T) {
	a := &fakeSource{id: "code", entries: []Entry{
		{Path: "/p1", LastOpened: 10},
		{Path: "/p2", LastOpened: 5},
	}}
	b := &fakeSource{id: "cursor", entries: []Entry{
		{Path: "/p1", LastOpened: 20},
	}}

	r := newTestRegistry(t, []Source{a, b}, nil)
	mustRefresh(t, r)

	records := r.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(records), records)
	}

	first := records[0]
	if first.Path != "/p1" {
		t.Errorf("expected /p1 first (most recent), got %q", first.Path)
	}
	if first.LastOpened != 20 {
		t.Errorf("merged LastOpened = %d, want 20", first.LastOpened)
	}
	if !reflect.DeepEqual(first.Sources, []string{"code", "cursor"}) {
		t.Errorf("merged sources = %v, want [code cursor]", first.Sources)
	}
	if records[1].Path != "/p2" {
		t.Errorf("expected /p2 second, got %q", records[1].Path)
	}
}

func TestRefresh_Idempotent(t *testing.T) {
	a := &fakeSource{id: "code", entries: []Entry{
		{Path: "/p/one", LastOpened: 3},
		{Path: "/p/two", LastOpened: 2},
		{Path: "/p/three", LastOpened: 1},
	}}
	r := newTestRegistry(t, []Source{a}, nil)

	mustRefresh(t, r)
	first := r.Records()
	mustRefresh(t, r)
	second := r.Records()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("refresh with unchanged sources changed records:\n%v\n%v", first, second)
	}
}

func TestRefresh_BrokenSourceWarns(t *testing.T) {
	good := &fakeSource{id: "code", entries: []Entry{{Path: "/p/ok", LastOpened: 1}}}
	bad := &fakeSource{id: "cursor", readErr: errors.New("database is locked")}

	r := newTestRegistry(t, []Source{good, bad}, nil)
	mustRefresh(t, r)

	if len(r.Records()) != 1 {
		t.Errorf("expected 1 record from the good source, got %d", len(r.Records()))
	}
	warnings := r.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Source != "cursor" {
		t.Errorf("warning source = %q, want cursor", warnings[0].Source)
	}
}

func TestRefresh_PathsNormalized(t *testing.T) {
	a := &fakeSource{id: "code", entries: []Entry{
		{Path: "/p/app/", LastOpened: 2},
		{Path: "/p/app", LastOpened: 1},
	}}
	r := newTestRegistry(t, []Source{a}, nil)
	mustRefresh(t, r)

	records := r.Records()
	if len(records) != 1 {
		t.Fatalf("expected trailing slash collapsed into 1 record, got %d", len(records))
	}
	if records[0].Path != "/p/app" {
		t.Errorf("record path = %q, want /p/app", records[0].Path)
	}
}

func TestTogglePin(t *testing.T) {
	a := &fakeSource{id: "code", entries: []Entry{
		{Path: "/p/a", LastOpened: 2},
		{Path: "/p/b", LastOpened: 1},
	}}
	var saved int
	cfg := config.DefaultConfig()
	r := New([]Source{a}, &cfg)
	r.SetSaver(func(config.Config) error { saved++; return nil })
	mustRefresh(t, r)

	pinned, err := r.TogglePin("/p/b")
	if err != nil {
		t.Fatalf("TogglePin failed: %v", err)
	}
	if !pinned {
		t.Error("expected path to be pinned")
	}
	if saved != 1 {
		t.Errorf("expected 1 save, got %d", saved)
	}
	if r.Records()[0].Path != "/p/b" {
		t.Errorf("pinned record should sort first, got %q", r.Records()[0].Path)
	}

	pinned, err = r.TogglePin("/p/b")
	if err != nil {
		t.Fatalf("second TogglePin failed: %v", err)
	}
	if pinned {
		t.Error("expected second toggle to unpin")
	}
	if r.Records()[0].Path != "/p/a" {
		t.Errorf("after unpin, most recent should sort first, got %q", r.Records()[0].Path)
	}
}

func TestTogglePin_SaveFailureKeepsState(t *testing.T) {
	a := &fakeSource{id: "code", entries: []Entry{{Path: "/p/a", LastOpened: 1}}}
	cfg := config.DefaultConfig()
	r := New([]Source{a}, &cfg)
	r.SetSaver(func(config.Config) error { return errors.New("disk full") })
	mustRefresh(t, r)

	pinned, err := r.TogglePin("/p/a")
	if err == nil {
		t.Error("expected save failure to surface")
	}
	if !pinned {
		t.Error("pin state should be kept despite save failure")
	}
	rec, ok := r.Find("/p/a")
	if !ok || !rec.Pinned {
		t.Error("in-memory record should remain pinned")
	}
}

func TestRefresh_PinnedMissingPathKept(t *testing.T) {
	a := &fakeSource{id: "code", entries: []Entry{{Path: "/p/a", LastOpened: 1}}}
	cfg := config.DefaultConfig()
	cfg.Pinned = []string{"/nonexistent/project"}

	r := newTestRegistry(t, []Source{a}, &cfg)
	mustRefresh(t, r)

	rec, ok := r.Find("/nonexistent/project")
	if !ok {
		t.Fatal("pinned path absent from history should still appear")
	}
	if !rec.Pinned || !rec.Missing {
		t.Errorf("expected pinned missing record, got %+v", rec)
	}
	// Pinned sorts first even when missing
	if r.Records()[0].Path != "/nonexistent/project" {
		t.Errorf("pinned record should sort first, got %q", r.Records()[0].Path)
	}
}

func TestRefresh_PinnedExistingPathNotMissing(t *testing.T) {
	dir := t.TempDir()
	pinned := filepath.Join(dir, "real")
	a := &fakeSource{id: "code", entries: []Entry{{Path: pinned, LastOpened: 1}}}
	cfg := config.DefaultConfig()
	cfg.Pinned = []string{pinned}

	r := newTestRegistry(t, []Source{a}, &cfg)
	mustRefresh(t, r)

	rec, ok := r.Find(pinned)
	if !ok {
		t.Fatal("record not found")
	}
	if rec.Missing {
		t.Error("record present in history should not be marked missing")
	}
}

func TestRefresh_HiddenMissingPins(t *testing.T) {
	hide := false
	cfg := config.DefaultConfig()
	cfg.Pinned = []string{"/nonexistent/project"}
	cfg.UI.ShowMissing = &hide

	r := newTestRegistry(t, nil, &cfg)
	mustRefresh(t, r)

	if _, ok := r.Find("/nonexistent/project"); ok {
		t.Error("missing pin should be hidden when show_missing is false")
	}
}

func TestRemove(t *testing.T) {
	a := &fakeSource{id: "code", entries: []Entry{
		{Path: "/p/a", LastOpened: 2},
		{Path: "/p/b", LastOpened: 1},
	}}
	b := &fakeSource{id: "cursor", entries: []Entry{
		{Path: "/p/a", LastOpened: 3},
	}}
	cfg := config.DefaultConfig()
	cfg.Pinned = []string{"/p/a"}

	r := newTestRegistry(t, []Source{a, b}, &cfg)
	mustRefresh(t, r)

	warnings := r.Remove("/p/a")
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	if _, ok := r.Find("/p/a"); ok {
		t.Error("removed record still present")
	}
	for _, src := range []*fakeSource{a, b} {
		if len(src.removed) != 1 || src.removed[0] != "/p/a" {
			t.Errorf("source %s remove calls = %v, want [/p/a]", src.id, src.removed)
		}
	}
	if cfg.IsPinned("/p/a") {
		t.Error("removed record should be unpinned")
	}

	// Removing again is a no-op
	if w := r.Remove("/p/a"); len(w) != 0 {
		t.Errorf("removing absent path produced warnings: %v", w)
	}
}

func TestRemove_SourceFailureWarns(t *testing.T) {
	bad := &brokenRemoveSource{fakeSource{id: "code", entries: []Entry{{Path: "/p/a", LastOpened: 1}}}}
	r := newTestRegistry(t, []Source{bad}, nil)
	mustRefresh(t, r)

	warnings := r.Remove("/p/a")
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if _, ok := r.Find("/p/a"); ok {
		t.Error("in-memory removal should happen despite source failure")
	}
}

type brokenRemoveSource struct{ fakeSource }

func (b *brokenRemoveSource) Remove(string) (bool, error) {
	return false, fmt.Errorf("database is locked")
}

func TestRefresh_RemoteURIKeptVerbatim(t *testing.T) {
	const remote = "vscode-remote://ssh-remote%2Bbox/home/u/project"
	a := &fakeSource{id: "code", entries: []Entry{
		{Path: remote, LastOpened: 2},
		{Path: "/p/local", LastOpened: 1},
	}}
	r := newTestRegistry(t, []Source{a}, nil)
	mustRefresh(t, r)

	rec, ok := r.Find(remote)
	if !ok {
		t.Fatalf("remote entry not found; records: %+v", r.Records())
	}
	if rec.Path != remote {
		t.Errorf("remote URI altered: %q", rec.Path)
	}

	// Removal must hand the store the raw URI so the entry actually goes
	if w := r.Remove(remote); len(w) != 0 {
		t.Fatalf("Remove warnings: %v", w)
	}
	if len(a.removed) != 1 || a.removed[0] != remote {
		t.Errorf("store asked to remove %v, want [%s]", a.removed, remote)
	}
	for _, e := range a.entries {
		if e.Path == remote {
			t.Error("remote entry survived removal in the store")
		}
	}
	if _, ok := r.Find(remote); ok {
		t.Error("remote entry survived removal in the registry")
	}
}

func TestSetDefaultIDE(t *testing.T) {
	cfg := config.DefaultConfig()
	var saved config.Config
	r := New(nil, &cfg)
	r.SetSaver(func(c config.Config) error { saved = c; return nil })

	if err := r.SetDefaultIDE("cursor"); err != nil {
		t.Fatalf("SetDefaultIDE failed: %v", err)
	}
	if cfg.DefaultIDE != "cursor" {
		t.Errorf("config DefaultIDE = %q, want cursor", cfg.DefaultIDE)
	}
	if saved.DefaultIDE != "cursor" {
		t.Errorf("persisted DefaultIDE = %q, want cursor", saved.DefaultIDE)
	}
}
