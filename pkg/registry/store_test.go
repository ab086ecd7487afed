package registry

import (
	"context"
	"testing"

	"github.com/vanderheijden86/projector/internal/datasource"
	"github.com/vanderheijden86/projector/pkg/config"
	"github.com/vanderheijden86/projector/pkg/testutil"
)

// End-to-end over real store files: discover, merge, remove.
func TestRegistryOverRealStores(t *testing.T) {
	root := t.TempDir()
	testutil.MustEditorStore(t, root, "Code", []string{"/p/shared", "/p/code-only"})
	testutil.MustEditorStore(t, root, "Cursor", []string{"/p/shared"})

	discovered, err := datasource.DiscoverSources(datasource.DiscoveryOptions{ConfigRoot: root})
	if err != nil {
		t.Fatalf("DiscoverSources failed: %v", err)
	}
	if len(discovered) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(discovered))
	}

	cfg := config.DefaultConfig()
	r := New(SourcesFor(discovered), &cfg)
	r.SetSaver(func(config.Config) error { return nil })
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	records := r.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 merged records, got %d: %v", len(records), records)
	}
	shared, ok := r.Find("/p/shared")
	if !ok {
		t.Fatal("shared record not found")
	}
	if len(shared.Sources) != 2 {
		t.Errorf("shared record sources = %v, want both editors", shared.Sources)
	}

	if w := r.Remove("/p/shared"); len(w) != 0 {
		t.Fatalf("Remove warnings: %v", w)
	}
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if _, ok := r.Find("/p/shared"); ok {
		t.Error("removed record reappeared after refresh")
	}
	if _, ok := r.Find("/p/code-only"); !ok {
		t.Error("unrelated record lost after remove")
	}
}
