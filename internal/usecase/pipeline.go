package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

// PipelineOptions bound oracle spend and store growth per run.
type PipelineOptions struct {
	DedupeBatchSize  int
	MaxDailyRewrites int
	OracleCallDelay  time.Duration
	ItemDelay        time.Duration
	Retention        time.Duration
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Store      ports.Store
	Fetcher    ports.Fetcher
	Similarity ports.SimilarityJudge
	Relevance  ports.RelevanceJudge
	Rewriter   ports.Rewriter
	Extractor  ports.Extractor
	Backup     ports.Backup
	Options    PipelineOptions
	Clock      func() time.Time
	Sleep      func(time.Duration)
	Logger     *slog.Logger
}

// Pipeline drives one batch through scrape, deduplicate, and rewrite.
// Stages run sequentially; items are processed one at a time with fixed
// inter-call delays to respect upstream rate limits. Failure of any single
// source, pair comparison, or item never aborts the batch.
type Pipeline struct {
	store      ports.Store
	fetcher    ports.Fetcher
	similarity ports.SimilarityJudge
	relevance  ports.RelevanceJudge
	rewriter   ports.Rewriter
	extractor  ports.Extractor
	backup     ports.Backup
	opts       PipelineOptions
	now        func() time.Time
	sleep      func(time.Duration)
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component. Nil judges or a nil
// rewriter put the corresponding stage into degraded mode (skipped) rather
// than failing construction.
func NewPipeline(deps PipelineDeps) *Pipeline {
	opts := deps.Options
	if opts.DedupeBatchSize <= 0 {
		opts.DedupeBatchSize = 100
	}
	if opts.MaxDailyRewrites <= 0 {
		opts.MaxDailyRewrites = 20
	}
	if opts.Retention <= 0 {
		opts.Retention = 30 * 24 * time.Hour
	}

	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Pipeline{
		store:      deps.Store,
		fetcher:    deps.Fetcher,
		similarity: deps.Similarity,
		relevance:  deps.Relevance,
		rewriter:   deps.Rewriter,
		extractor:  deps.Extractor,
		backup:     deps.Backup,
		opts:       opts,
		now:        now,
		sleep:      sleep,
		logger:     deps.Logger,
	}
}

// Run executes the full batch: scrape, deduplicate, rewrite. Re-invoking it
// on an unchanged store is a no-op beyond fresh fetches.
func (p *Pipeline) Run(ctx context.Context) (domain.Summary, error) {
	summary, err := p.Scrape(ctx)
	if err != nil {
		return summary, err
	}

	removed, err := p.Dedupe(ctx)
	if err != nil {
		return summary, err
	}
	summary.Removed = removed

	rewritten, skipped, err := p.RewriteArticles(ctx)
	if err != nil {
		return summary, err
	}
	summary.Rewritten = rewritten
	summary.Skipped += skipped

	p.info("pipeline run complete",
		"found", summary.Found,
		"saved", summary.Saved,
		"skipped", summary.Skipped,
		"removed", summary.Removed,
		"rewritten", summary.Rewritten)

	return summary, nil
}

// Scrape fetches from all sources and persists unseen records. Persistence
// is idempotent: an existing identifier is skipped, and values are written
// before their index entry.
func (p *Pipeline) Scrape(ctx context.Context) (domain.Summary, error) {
	var summary domain.Summary
	if p.fetcher == nil {
		return summary, nil
	}

	batch := p.fetcher.FetchAll(ctx)
	summary.Found = len(batch)

	for _, article := range batch {
		exists, err := p.store.Exists(ctx, domain.ArticleKey(article.ID))
		if err != nil {
			// Unknown state; do not risk overwriting an existing record.
			p.warn("existence check failed, skipping", "id", article.ID, "error", err)
			summary.Skipped++
			continue
		}
		if exists {
			summary.Skipped++
			continue
		}

		payload, err := json.Marshal(article)
		if err != nil {
			p.warn("marshal article failed", "id", article.ID, "error", err)
			summary.Skipped++
			continue
		}

		if err := p.store.Put(ctx, domain.ArticleKey(article.ID), payload, p.opts.Retention); err != nil {
			p.warn("save article failed", "id", article.ID, "error", err)
			summary.Skipped++
			continue
		}
		if err := p.store.IndexByTime(ctx, domain.ArticlesByDate, article.ID, article.PubDate); err != nil {
			p.warn("index article failed", "id", article.ID, "error", err)
			summary.Skipped++
			continue
		}

		summary.Saved++
	}

	if err := p.store.Put(ctx, domain.LastRunKey, []byte(p.now().Format(time.RFC3339)), 0); err != nil {
		p.warn("persist last-run failed", "error", err)
	}
	if err := p.store.Put(ctx, domain.TotalArticlesKey, []byte(strconv.Itoa(summary.Found)), 0); err != nil {
		p.warn("persist total-articles failed", "error", err)
	}

	p.info("scrape complete", "found", summary.Found, "saved", summary.Saved, "skipped", summary.Skipped)
	return summary, nil
}

// Dedupe removes semantic duplicates from the most recent candidates.
// Candidates are processed most-recent-first against the accumulating kept
// list; each unordered pair is judged at most once per run. Returns how
// many records were removed.
func (p *Pipeline) Dedupe(ctx context.Context) (int, error) {
	if p.similarity == nil {
		p.info("no similarity judge configured, skipping deduplication")
		return 0, nil
	}

	candidates, err := p.loadRecentRaw(ctx, p.opts.DedupeBatchSize)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	var (
		kept    []domain.RawArticle
		removed int
		judged  = map[string]struct{}{}
		calls   int
	)

	for _, candidate := range candidates {
		duplicate := false

		for _, keeper := range kept {
			key := pairKey(candidate.ID, keeper.ID)
			if _, done := judged[key]; done {
				continue
			}
			judged[key] = struct{}{}

			if calls > 0 && p.opts.OracleCallDelay > 0 {
				p.sleep(p.opts.OracleCallDelay)
			}
			calls++

			if p.similarity.AreSameStory(ctx, candidate, keeper) {
				duplicate = true
				break
			}
		}

		if !duplicate {
			kept = append(kept, candidate)
			continue
		}

		p.info("removing duplicate", "id", candidate.ID, "title", candidate.Title)
		if _, err := p.store.Delete(ctx, domain.ArticleKey(candidate.ID), domain.RewrittenKey(candidate.ID)); err != nil {
			p.warn("delete duplicate failed", "id", candidate.ID, "error", err)
			continue
		}
		if err := p.store.RemoveFromIndex(ctx, domain.ArticlesByDate, candidate.ID); err != nil {
			p.warn("unindex duplicate failed", "id", candidate.ID, "error", err)
			continue
		}
		removed++
	}

	p.info("deduplication complete", "checked", len(candidates), "kept", len(kept), "removed", removed)
	return removed, nil
}

// RewriteArticles enriches, filters, and rewrites the most recent kept
// candidates up to the per-run cap. Items with an existing rewritten record
// are skipped so re-runs never reprocess completed work.
func (p *Pipeline) RewriteArticles(ctx context.Context) (rewritten, skipped int, err error) {
	if p.rewriter == nil {
		p.info("no rewriter configured, skipping rewrite stage")
		return 0, 0, nil
	}

	candidates, err := p.loadRecentRaw(ctx, p.opts.MaxDailyRewrites)
	if err != nil {
		return 0, 0, err
	}

	for i, article := range candidates {
		if i > 0 && p.opts.ItemDelay > 0 {
			p.sleep(p.opts.ItemDelay)
		}

		exists, err := p.store.Exists(ctx, domain.RewrittenKey(article.ID))
		if err != nil {
			p.warn("rewritten existence check failed, skipping", "id", article.ID, "error", err)
			skipped++
			continue
		}
		if exists {
			p.info("already rewritten, skipping", "id", article.ID)
			skipped++
			continue
		}

		var fullText string
		if p.extractor != nil {
			fullText = p.extractor.Extract(ctx, article.Link)
		}

		if p.relevance != nil && !p.relevance.IsRelevant(ctx, article, fullText) {
			p.info("no local connection, skipping", "id", article.ID, "title", article.Title)
			skipped++
			continue
		}

		result, err := p.rewriter.Rewrite(ctx, article, fullText)
		if err != nil {
			p.warn("rewrite failed, skipping", "id", article.ID, "error", err)
			skipped++
			continue
		}

		if err := p.persistRewritten(ctx, result); err != nil {
			p.warn("persist rewritten failed, skipping", "id", article.ID, "error", err)
			skipped++
			continue
		}

		rewritten++
	}

	p.info("rewrite complete", "candidates", len(candidates), "rewritten", rewritten, "skipped", skipped)
	return rewritten, skipped, nil
}

func (p *Pipeline) persistRewritten(ctx context.Context, article domain.RewrittenArticle) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshal rewritten: %w", err)
	}

	if err := p.store.Put(ctx, domain.RewrittenKey(article.ID), payload, p.opts.Retention); err != nil {
		return fmt.Errorf("save rewritten: %w", err)
	}

	if p.backup != nil {
		if err := p.backup.Save(article.ID, article); err != nil {
			// Secondary storage only; the primary write already succeeded.
			p.warn("backup rewritten failed", "id", article.ID, "error", err)
		}
	}

	return nil
}

// loadRecentRaw returns up to limit raw records, most recent first, using
// one index range plus one bulk read.
func (p *Pipeline) loadRecentRaw(ctx context.Context, limit int) ([]domain.RawArticle, error) {
	ids, err := p.store.RangeByTimeDesc(ctx, domain.ArticlesByDate, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent articles: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = domain.ArticleKey(id)
	}

	values, err := p.store.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load recent articles: %w", err)
	}

	articles := make([]domain.RawArticle, 0, len(ids))
	for _, id := range ids {
		raw, ok := values[domain.ArticleKey(id)]
		if !ok {
			// Expired or deleted value behind a live index entry.
			continue
		}

		var article domain.RawArticle
		if err := json.Unmarshal(raw, &article); err != nil {
			p.warn("skipping unreadable article", "id", id, "error", err)
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

func pairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
