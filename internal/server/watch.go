package server

import (
	"context"
	"time"

	"github.com/matzehuels/codecity/pkg/observability"
	"github.com/matzehuels/codecity/pkg/pipeline"
	"github.com/matzehuels/codecity/pkg/watch"
)

// Watch observes the repository for file changes and rebuilds the city
// after each debounced batch, broadcasting the fresh GeoJSON to all
// websocket clients. Blocks until ctx is cancelled.
func (s *Server) Watch(ctx context.Context, opts pipeline.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	// Edits land in the working tree without moving HEAD, so the
	// commit-keyed metrics cache cannot be trusted during a rebuild.
	opts.Refresh = true

	w, err := watch.New(opts.RepoPath, s.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("watcher stopped", "err", err)
		}
	}()

	s.logger.Info("watching repository", "path", opts.RepoPath,
		"debounce", s.cfg.Watch.Debounce.Std())

	batches := watch.Debounce(ctx, w.Events(), s.cfg.Watch.Debounce.Std())
	for batch := range batches {
		s.rebuild(ctx, opts, batch)
	}
	return ctx.Err()
}

func (s *Server) rebuild(ctx context.Context, opts pipeline.Options, batch []watch.Event) {
	start := time.Now()
	result, err := s.runner.Execute(ctx, opts)
	observability.Watch().OnRebuild(ctx, opts.RepoPath, len(batch), time.Since(start), err)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("rebuild failed", "err", err, "changed_files", len(batch))
		s.hub.Broadcast(ctx, Message{Type: MessageRebuildFailed})
		return
	}

	s.logger.Info("city rebuilt",
		"changed_files", len(batch),
		"streets", result.Stats.StreetCount,
		"buildings", result.Stats.BuildingCount,
		"duration", time.Since(start),
		"clients", s.hub.ConnectionCount(),
	)
	s.hub.Broadcast(ctx, Message{Type: MessageCityUpdated, Payload: result.GeoJSON})
}
