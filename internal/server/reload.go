package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/search/index"
)

// Rebuild reloads the catalog at catalogPath, builds a new index reusing the
// vectors of the one currently served, installs it into indexDir and swaps it
// in. On failure the served state is left untouched.
func (s *Server) Rebuild(ctx context.Context, catalogPath, indexDir string, normalize bool) error {
	store, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	prev := s.state.Load()
	opts := index.BuildOptions{Normalize: normalize}
	if prev != nil {
		opts.Previous = prev.Index
	}
	idx, err := index.Build(ctx, s.prov, store.Entries(), opts)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if indexDir != "" {
		if err := index.Install(ctx, idx, indexDir); err != nil {
			return fmt.Errorf("install index: %w", err)
		}
	}
	s.Swap(&State{Store: store, Index: idx})
	return nil
}

// WatchCatalog rebuilds whenever the catalog file changes, until ctx ends.
func (s *Server) WatchCatalog(ctx context.Context, w *catalog.Watcher, catalogPath, indexDir string, normalize bool) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for range events {
		if err := s.Rebuild(ctx, catalogPath, indexDir, normalize); err != nil {
			slog.Warn("catalog rebuild failed; keeping current index", "path", catalogPath, "err", err)
		}
	}
	return nil
}
