// Package registry aggregates recently-opened projects from every detected
// editor into one deduplicated, pin-annotated list. The editor stores stay
// the source of truth for recency; the only registry-owned mutation is pin
// state, persisted to the pj sidecar config.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/vanderheijden86/projector/internal/datasource"
)

// Entry is one recently-opened path as reported by a source.
type Entry struct {
	// Path is the project path (or raw URI for remote entries)
	Path string
	// LastOpened is a recency ordinal; higher means more recent
	LastOpened int64
}

// Source is the capability a project source must provide. Each editor
// variant implements read and delete against its own store format.
type Source interface {
	// ID is a stable identifier (the IDE id)
	ID() string
	// Label is the human-readable source name
	Label() string
	// Read returns the source's entries, most recent first
	Read() ([]Entry, error)
	// Remove deletes a path from the source, reporting whether it was
	// present. A locked or broken store returns an error; callers treat
	// it as a recoverable warning.
	Remove(path string) (bool, error)
}

// ProjectRecord is one merged project in the registry.
type ProjectRecord struct {
	// Path is the cleaned absolute path, unique within the registry
	Path string
	// Label is the display name, derived from the last path segment
	Label string
	// Sources are the IDE ids that contributed this record, sorted
	Sources []string
	// LastOpened is the most recent recency ordinal across sources
	LastOpened int64
	// Pinned forces the record to the top of the list
	Pinned bool
	// Missing marks a pinned record whose path no longer exists on disk
	Missing bool
}

// HasSource reports whether the given IDE id contributed this record.
func (r ProjectRecord) HasSource(id string) bool {
	for _, s := range r.Sources {
		if s == id {
			return true
		}
	}
	return false
}

// Warning is a non-fatal problem surfaced to the status line.
type Warning struct {
	// Source is the label of the source involved, if any
	Source string
	// Err is the underlying error
	Err error
}

// String renders the warning for display.
func (w Warning) String() string {
	if w.Source == "" {
		return w.Err.Error()
	}
	return fmt.Sprintf("%s: %v", w.Source, w.Err)
}

// normalizePath cleans a path for use as a registry key. Paths are compared
// case-sensitively; case-insensitive filesystems would need folding here.
// Remote entries keep their raw URI untouched: Clean would collapse the
// scheme's double slash and the key would no longer match the store.
func normalizePath(path string) string {
	if datasource.IsRemoteURI(path) {
		return path
	}
	return filepath.Clean(path)
}

// labelFor derives the display name from the last path segment.
func labelFor(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return path
	}
	return base
}
