// Package datasource discovers and reads the history stores of VS Code-family
// editors. Each editor keeps a state.vscdb SQLite database under its config
// directory; the recently-opened project list lives in a single JSON row of
// ItemTable. The package treats those databases as an external, possibly
// concurrently-written source of truth: reads are read-only, writes are
// short-lived transactions, and a missing or broken store is never fatal.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Source represents one editor's discovered history store.
type Source struct {
	// IDE identifies the editor this store belongs to
	IDE IDE `json:"ide"`
	// Path is the absolute path to state.vscdb
	Path string `json:"path"`
	// ModTime is the last modification time of the store
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
	// Valid indicates whether the store passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// EntryCount is the number of history entries (set during validation)
	EntryCount int `json:"entry_count"`
	// Launchable reports whether the editor binary resolves on PATH
	Launchable bool `json:"launchable"`
}

// String returns a human-readable description of the source.
func (s Source) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, mod=%s, entries=%d, %s)",
		s.Path, s.IDE.ID, s.ModTime.Format(time.RFC3339), s.EntryCount, status)
}

// DiscoveryOptions configures source discovery behavior.
type DiscoveryOptions struct {
	// ConfigRoot overrides the directory scanned for editor config dirs
	// (defaults to ~/.config)
	ConfigRoot string
	// ValidateAfterDiscovery opens each discovered store and checks the
	// history row parses
	ValidateAfterDiscovery bool
	// IncludeInvalid includes stores that failed validation in results
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources finds the history stores of all installed known editors.
// An editor counts as installed when its config directory exists; its store
// is included when state.vscdb exists underneath it. A missing store is
// skipped silently, per the reader contract.
func DiscoverSources(opts DiscoveryOptions) ([]Source, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	configRoot := opts.ConfigRoot
	if configRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		configRoot = filepath.Join(home, ".config")
	}

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering editor stores under: %s", configRoot))
	}

	var sources []Source
	for _, ide := range KnownIDEs {
		configDir := filepath.Join(configRoot, ide.ConfigDir)
		if _, err := os.Stat(configDir); err != nil {
			continue
		}

		dbPath := filepath.Join(configDir, "User", "globalStorage", "state.vscdb")
		info, err := os.Stat(dbPath)
		if err != nil {
			if opts.Verbose {
				opts.Logger(fmt.Sprintf("%s installed but no history store at %s", ide.Label, dbPath))
			}
			continue
		}

		sources = append(sources, Source{
			IDE:        ide,
			Path:       dbPath,
			ModTime:    info.ModTime(),
			Size:       info.Size(),
			Launchable: ide.OnPath(),
		})

		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found store: %s (mod=%s)", dbPath, info.ModTime().Format(time.RFC3339)))
		}
	}

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
		if !opts.IncludeInvalid {
			var valid []Source
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	// Freshest store first; stable order for equal mtimes keeps refresh
	// output deterministic.
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d stores", len(sources)))
	}

	return sources, nil
}

// ValidateSource opens the store and checks the history row parses.
// Sets Valid, ValidationError, and EntryCount on the source.
func ValidateSource(s *Source) error {
	store := NewHistoryStore(*s)
	entries, err := store.ReadRecent()
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.EntryCount = len(entries)
	return nil
}
