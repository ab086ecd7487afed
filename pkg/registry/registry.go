package registry

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/projector/pkg/config"
	"github.com/vanderheijden86/projector/pkg/debug"
)

// Registry holds the merged project list for all configured sources.
// It is rebuilt from scratch on every Refresh; pin state is the only
// mutation it owns.
type Registry struct {
	sources  []Source
	cfg      *config.Config
	saver    func(config.Config) error
	records  []ProjectRecord
	warnings []Warning
}

// New creates a registry over the given sources. The config carries the
// pin set and display preferences; pin changes are persisted through it.
func New(sources []Source, cfg *config.Config) *Registry {
	return &Registry{
		sources: sources,
		cfg:     cfg,
		saver:   config.Save,
	}
}

// SetSaver overrides how pin changes are persisted. Tests use this to
// write to a temp path instead of the user's config.
func (r *Registry) SetSaver(save func(config.Config) error) {
	r.saver = save
}

// Config returns the registry's config.
func (r *Registry) Config() *config.Config {
	return r.cfg
}

// Refresh re-reads all sources and rebuilds the merged record list.
// Sources are read concurrently; a failing source degrades to a warning.
// With unchanged sources the resulting sequence is identical.
func (r *Registry) Refresh(ctx context.Context) error {
	defer debug.LogEnterExit("registry.Refresh")()

	type readResult struct {
		entries []Entry
		err     error
	}
	results := make([]readResult, len(r.sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range r.sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			results[i].entries, results[i].err = src.Read()
			return nil
		})
	}
	// Per-source errors are recorded in results, so Wait cannot fail.
	_ = g.Wait()

	byPath := make(map[string]int)
	var records []ProjectRecord
	var warnings []Warning

	for i, src := range r.sources {
		if results[i].err != nil {
			warnings = append(warnings, Warning{Source: src.Label(), Err: results[i].err})
			continue
		}
		for _, e := range results[i].entries {
			p := normalizePath(e.Path)
			if idx, ok := byPath[p]; ok {
				rec := &records[idx]
				if e.LastOpened > rec.LastOpened {
					rec.LastOpened = e.LastOpened
				}
				if !rec.HasSource(src.ID()) {
					rec.Sources = append(rec.Sources, src.ID())
				}
				continue
			}
			byPath[p] = len(records)
			records = append(records, ProjectRecord{
				Path:       p,
				Label:      labelFor(p),
				Sources:    []string{src.ID()},
				LastOpened: e.LastOpened,
			})
		}
	}

	for i := range records {
		slices.Sort(records[i].Sources)
		records[i].Pinned = r.cfg.IsPinned(records[i].Path)
	}

	// Pinned projects not present in any history survive here. A pin whose
	// path is gone is kept with a missing marker rather than silently
	// dropped, so the user can see it and unpin.
	for _, pin := range r.cfg.Pinned {
		p := normalizePath(pin)
		if _, ok := byPath[p]; ok {
			continue
		}
		missing := !pathExists(p)
		if missing && !r.cfg.ShowMissing() {
			continue
		}
		byPath[p] = len(records)
		records = append(records, ProjectRecord{
			Path:    p,
			Label:   labelFor(p),
			Pinned:  true,
			Missing: missing,
		})
	}

	sortDefault(records)

	r.records = records
	r.warnings = warnings
	debug.Log("refresh: %d records, %d warnings from %d sources", len(records), len(warnings), len(r.sources))
	return nil
}

// Records returns a copy of the merged record list in default order
// (pinned first, then most recently opened).
func (r *Registry) Records() []ProjectRecord {
	out := make([]ProjectRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Warnings returns the non-fatal problems from the last refresh.
func (r *Registry) Warnings() []Warning {
	return r.warnings
}

// Find returns the record for a path, or false.
func (r *Registry) Find(path string) (ProjectRecord, bool) {
	p := normalizePath(path)
	for _, rec := range r.records {
		if rec.Path == p {
			return rec, true
		}
	}
	return ProjectRecord{}, false
}

// TogglePin flips the pin state of a path and persists it. The in-memory
// state is kept even when persistence fails; the returned error is then a
// recoverable warning, not a rollback.
func (r *Registry) TogglePin(path string) (bool, error) {
	p := normalizePath(path)
	pinned := r.cfg.TogglePin(p)

	for i := range r.records {
		if r.records[i].Path == p {
			r.records[i].Pinned = pinned
			break
		}
	}
	sortDefault(r.records)

	if err := r.saver(*r.cfg); err != nil {
		return pinned, fmt.Errorf("saving pin state: %w", err)
	}
	return pinned, nil
}

// SetDefaultIDE records the editor used for opening projects and
// persists it.
func (r *Registry) SetDefaultIDE(id string) error {
	r.cfg.DefaultIDE = id
	if err := r.saver(*r.cfg); err != nil {
		return fmt.Errorf("saving default editor: %w", err)
	}
	return nil
}

// Remove deletes a path from the in-memory registry and from every
// contributing source, and drops its pin. Removing an absent path is a
// no-op. Per-source failures are returned as warnings; the in-memory
// removal happens regardless.
func (r *Registry) Remove(path string) []Warning {
	p := normalizePath(path)

	var warnings []Warning
	for _, src := range r.sources {
		if _, err := src.Remove(p); err != nil {
			warnings = append(warnings, Warning{Source: src.Label(), Err: err})
		}
	}

	for i := range r.records {
		if r.records[i].Path == p {
			r.records = slices.Delete(r.records, i, i+1)
			break
		}
	}

	if r.cfg.IsPinned(p) {
		r.cfg.Unpin(p)
		if err := r.saver(*r.cfg); err != nil {
			warnings = append(warnings, Warning{Err: fmt.Errorf("saving pin state: %w", err)})
		}
	}

	return warnings
}

// sortDefault orders records by (pinned desc, last opened desc, path asc).
func sortDefault(records []ProjectRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Pinned != records[j].Pinned {
			return records[i].Pinned
		}
		if records[i].LastOpened != records[j].LastOpened {
			return records[i].LastOpened > records[j].LastOpened
		}
		return records[i].Path < records[j].Path
	})
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
