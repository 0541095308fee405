package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

// Queries serves the read side: published articles, the latest digest, and
// operational stats. Individual read failures degrade to empty results so a
// partially broken store never takes the read path down with it.
type Queries struct {
	store  ports.Store
	logger *slog.Logger
}

func NewQueries(store ports.Store, logger *slog.Logger) *Queries {
	return &Queries{store: store, logger: logger}
}

// RecentArticles returns up to limit publishable rewritten articles, most
// recent first. Records covering the same upstream story are collapsed by
// originating link and by headline; the most recent copy survives.
func (q *Queries) RecentArticles(ctx context.Context, limit int) []domain.RewrittenArticle {
	if limit <= 0 {
		limit = 20
	}

	// Over-fetch: unpublishable and duplicate records thin the list out.
	ids, err := q.store.RangeByTimeDesc(ctx, domain.ArticlesByDate, 0, limit*3)
	if err != nil {
		q.warn("list recent failed", "error", err)
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = domain.RewrittenKey(id)
	}
	values, err := q.store.GetMany(ctx, keys)
	if err != nil {
		q.warn("load rewritten failed", "error", err)
		return nil
	}

	seenLinks := map[string]struct{}{}
	seenHeads := map[string]struct{}{}
	articles := make([]domain.RewrittenArticle, 0, limit)

	for _, id := range ids {
		raw, ok := values[domain.RewrittenKey(id)]
		if !ok {
			continue
		}

		var article domain.RewrittenArticle
		if err := json.Unmarshal(raw, &article); err != nil {
			q.warn("skipping unreadable rewritten article", "id", id, "error", err)
			continue
		}
		if !article.Publishable() {
			continue
		}

		head := strings.ToLower(strings.TrimSpace(article.Headline))
		if _, dup := seenHeads[head]; dup {
			continue
		}
		if article.OriginalLink != "" {
			if _, dup := seenLinks[article.OriginalLink]; dup {
				continue
			}
			seenLinks[article.OriginalLink] = struct{}{}
		}
		seenHeads[head] = struct{}{}

		articles = append(articles, article)
		if len(articles) == limit {
			break
		}
	}

	return articles
}

// RewrittenByID returns a single rewritten article. A raw record that was
// never rewritten reports ports.ErrNotFound, same as an unknown identifier.
func (q *Queries) RewrittenByID(ctx context.Context, id string) (domain.RewrittenArticle, error) {
	raw, err := q.store.Get(ctx, domain.RewrittenKey(id))
	if err != nil {
		return domain.RewrittenArticle{}, err
	}

	var article domain.RewrittenArticle
	if err := json.Unmarshal(raw, &article); err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("decode rewritten article %q: %w", id, err)
	}
	return article, nil
}

// LatestDigest returns the most recent digest for the scope, or
// ports.ErrNotFound if none has been built yet.
func (q *Queries) LatestDigest(ctx context.Context, scope string) (domain.Digest, error) {
	raw, err := q.store.Get(ctx, domain.DigestScopeLatestKey(scope))
	if err != nil {
		return domain.Digest{}, err
	}

	var digest domain.Digest
	if err := json.Unmarshal(raw, &digest); err != nil {
		return domain.Digest{}, fmt.Errorf("decode digest: %w", err)
	}
	return digest, nil
}

// Stats summarizes pipeline state for the operational endpoint. Any failing
// read leaves its field at the zero value.
func (q *Queries) Stats(ctx context.Context) domain.Stats {
	var stats domain.Stats

	if n, err := q.store.CountIndex(ctx, domain.ArticlesByDate); err == nil {
		stats.TotalArticles = n
	} else {
		q.warn("count articles failed", "error", err)
	}

	if raw, err := q.store.Get(ctx, domain.LastRunKey); err == nil {
		if ts, err := time.Parse(time.RFC3339, string(raw)); err == nil {
			stats.LastRun = ts
		}
	}

	if digest, err := q.LatestDigest(ctx, ""); err == nil {
		stats.HasDigest = true
		stats.DigestGenerated = digest.Timestamp
	}

	stats.TotalSources = len(q.distinctSources(ctx))
	return stats
}

// distinctSources lists the source names seen across the latest 100 raw
// records.
func (q *Queries) distinctSources(ctx context.Context) []string {
	ids, err := q.store.RangeByTimeDesc(ctx, domain.ArticlesByDate, 0, 100)
	if err != nil {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = domain.ArticleKey(id)
	}
	values, err := q.store.GetMany(ctx, keys)
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var sources []string
	for _, id := range ids {
		raw, ok := values[domain.ArticleKey(id)]
		if !ok {
			continue
		}
		var article domain.RawArticle
		if err := json.Unmarshal(raw, &article); err != nil {
			continue
		}
		if article.Source == "" {
			continue
		}
		if _, dup := seen[article.Source]; dup {
			continue
		}
		seen[article.Source] = struct{}{}
		sources = append(sources, article.Source)
	}
	return sources
}

func (q *Queries) warn(msg string, args ...any) {
	if q.logger != nil {
		q.logger.Warn(msg, args...)
	}
}
