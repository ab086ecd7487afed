package registry

import (
	"github.com/vanderheijden86/projector/internal/datasource"
)

// StoreSource adapts a datasource.HistoryStore to the Source interface.
type StoreSource struct {
	store *datasource.HistoryStore
}

// NewStoreSource wraps an editor history store as a registry source.
func NewStoreSource(store *datasource.HistoryStore) StoreSource {
	return StoreSource{store: store}
}

// SourcesFor wraps every discovered store as a registry source.
func SourcesFor(sources []datasource.Source) []Source {
	out := make([]Source, len(sources))
	for i, src := range sources {
		out[i] = NewStoreSource(datasource.NewHistoryStore(src))
	}
	return out
}

// ID returns the IDE identifier.
func (s StoreSource) ID() string { return s.store.ID() }

// Label returns the editor name.
func (s StoreSource) Label() string { return s.store.Label() }

// Read returns the store's entries, most recent first.
func (s StoreSource) Read() ([]Entry, error) {
	stored, err := s.store.ReadRecent()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(stored))
	for i, e := range stored {
		entries[i] = Entry{Path: e.Path, LastOpened: e.LastOpened}
	}
	return entries, nil
}

// Remove deletes a path from the store.
func (s StoreSource) Remove(path string) (bool, error) {
	return s.store.RemovePath(path)
}
