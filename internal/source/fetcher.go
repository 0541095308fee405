package source

import (
	"context"
	"log/slog"

	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

// Fetcher aggregates every registered source into one normalized batch.
// A failing source contributes zero records but never aborts the batch.
type Fetcher struct {
	registry  *Registry
	minLength int
	logger    *slog.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

// NewFetcher wires the source registry with the batch-level filters.
func NewFetcher(registry *Registry, minLength int, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		registry:  registry,
		minLength: minLength,
		logger:    logger,
	}
}

// FetchAll runs every source, dropping records with insufficient body text
// and deduplicating by identifier within the batch.
func (f *Fetcher) FetchAll(ctx context.Context) []domain.RawArticle {
	if f.registry == nil {
		return nil
	}

	var (
		batch []domain.RawArticle
		seen  = map[string]struct{}{}
	)

	for _, src := range f.registry.All() {
		records, err := src.Fetch(ctx)
		if err != nil {
			f.warn("source failed", "source", src.Name(), "error", err)
			continue
		}

		kept := 0
		for _, rec := range records {
			if rec.ID == "" {
				continue
			}
			if len(rec.Description) < f.minLength {
				continue
			}
			if _, ok := seen[rec.ID]; ok {
				continue
			}
			seen[rec.ID] = struct{}{}
			batch = append(batch, rec)
			kept++
		}

		f.debug("source produced articles", "source", src.Name(), "fetched", len(records), "kept", kept)
	}

	f.debug("fetch done", "total_articles", len(batch))
	return batch
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
