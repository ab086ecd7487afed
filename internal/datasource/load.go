package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/projector/pkg/debug"
)

// LoadResult contains the outcome of reading a single store.
type LoadResult struct {
	// Source is the store that was read
	Source Source
	// Entries are the history entries, most recent first
	Entries []Entry
	// Err is set if reading failed; the store is skipped, not fatal
	Err error
}

// LoadAll reads every store concurrently. Results are returned in source
// order regardless of completion order. A failing store produces a result
// with Err set; it never fails the overall load, matching the reader
// contract that a broken store degrades to a warning.
func LoadAll(ctx context.Context, sources []Source) []LoadResult {
	results := make([]LoadResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		results[i].Source = src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			store := NewHistoryStore(src)
			entries, err := store.ReadRecent()
			if err != nil {
				debug.Log("store %s read failed: %v", src.Path, err)
				results[i].Err = fmt.Errorf("reading %s history: %w", src.IDE.Label, err)
				return nil
			}
			results[i].Entries = entries
			return nil
		})
	}
	// Goroutines only record per-store errors, so Wait cannot fail.
	_ = g.Wait()

	return results
}

// Load discovers stores and reads them all in one call.
func Load(ctx context.Context, opts DiscoveryOptions) ([]LoadResult, error) {
	sources, err := DiscoverSources(opts)
	if err != nil {
		return nil, err
	}
	return LoadAll(ctx, sources), nil
}
