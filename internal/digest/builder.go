package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsdigest/internal/config"
	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
	"newsdigest/internal/rewrite"
)

const analysisExcerpt = 1000

// Builder groups the current corpus of rewritten articles into themed and
// chronological publications. One oracle call per scope; a malformed
// response fails the whole build for that scope.
type Builder struct {
	store          ports.Store
	oracle         ports.Oracle
	region         string
	publication    string
	candidateLimit int
	now            func() time.Time
	logger         *slog.Logger
}

// NewBuilder wires the digest aggregator. A nil clock defaults to time.Now.
func NewBuilder(store ports.Store, oracle ports.Oracle, region config.RegionConfig, candidateLimit int, now func() time.Time, logger *slog.Logger) *Builder {
	if now == nil {
		now = time.Now
	}
	if candidateLimit <= 0 {
		candidateLimit = 50
	}
	return &Builder{
		store:          store,
		oracle:         oracle,
		region:         region.Name,
		publication:    region.Publication,
		candidateLimit: candidateLimit,
		now:            now,
		logger:         logger,
	}
}

// analysis is the structured ranking the oracle must return.
type analysis struct {
	TopStories []domain.TopStory `json:"topStories"`
	Overview   string            `json:"weeklyOverview"`
	Trends     []string          `json:"trends"`
	Quote      *domain.Quote     `json:"quoteOfTheWeek"`
	Ahead      string            `json:"lookingAhead"`
	Categories map[string][]int  `json:"categories"`
}

// Build produces and persists a new digest snapshot for scope, which is
// either ScopeAll or one of the fixed category names.
func (b *Builder) Build(ctx context.Context, scope string) (domain.Digest, error) {
	if b.oracle == nil {
		return domain.Digest{}, fmt.Errorf("digest builder has no oracle configured")
	}

	candidates, err := b.candidates(ctx, scope)
	if err != nil {
		return domain.Digest{}, err
	}
	if len(candidates) == 0 {
		return domain.Digest{}, fmt.Errorf("no publishable articles for scope %s", scope)
	}

	answer, err := b.oracle.Generate(ctx, b.prompt(candidates))
	if err != nil {
		return domain.Digest{}, fmt.Errorf("analyze scope %s: %w", scope, err)
	}

	raw, err := rewrite.ExtractJSON(answer)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("analyze scope %s: %w", scope, err)
	}

	var parsed analysis
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.Digest{}, fmt.Errorf("analyze scope %s: parse result: %w", scope, err)
	}
	if err := validate(parsed, len(candidates)); err != nil {
		return domain.Digest{}, fmt.Errorf("analyze scope %s: %w", scope, err)
	}

	digest := domain.Digest{
		Scope:        scope,
		Timestamp:    b.now(),
		ArticleCount: len(candidates),
		TopStories:   parsed.TopStories,
		Overview:     parsed.Overview,
		Trends:       parsed.Trends,
		Quote:        parsed.Quote,
		LookingAhead: parsed.Ahead,
		Categories:   parsed.Categories,
		Articles:     candidates,
	}

	if err := b.persist(ctx, digest); err != nil {
		return domain.Digest{}, err
	}

	if b.logger != nil {
		b.logger.Info("digest built", "scope", scope, "articles", len(candidates), "top_stories", len(digest.TopStories))
	}

	return digest, nil
}

// candidates loads the most recent publishable rewritten articles, filtered
// by category when scope is not ScopeAll.
func (b *Builder) candidates(ctx context.Context, scope string) ([]domain.DigestArticle, error) {
	var category Category
	if scope != "" && scope != ScopeAll {
		var ok bool
		if category, ok = CategoryByName(scope); !ok {
			return nil, fmt.Errorf("unknown digest scope %s", scope)
		}
	}

	ids, err := b.store.RangeByTimeDesc(ctx, domain.ArticlesByDate, 0, b.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent articles: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = domain.RewrittenKey(id)
	}

	values, err := b.store.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load rewritten articles: %w", err)
	}

	var candidates []domain.DigestArticle
	for _, id := range ids {
		raw, ok := values[domain.RewrittenKey(id)]
		if !ok {
			continue
		}

		var article domain.RewrittenArticle
		if err := json.Unmarshal(raw, &article); err != nil {
			if b.logger != nil {
				b.logger.Warn("skipping unreadable rewritten article", "id", id, "error", err)
			}
			continue
		}
		if !article.Publishable() {
			continue
		}
		if category.Name != "" && !category.Matches(article.Headline, article.Story) {
			continue
		}

		candidates = append(candidates, domain.DigestArticle{
			ID:         id,
			Title:      article.Headline,
			Content:    article.Story,
			Source:     article.OriginalSource,
			Link:       article.OriginalLink,
			PubDate:    article.PublishedAt,
			ImageURL:   article.ImageURL,
			PullQuote:  article.PullQuote,
			LocalAngle: article.LocalAngle,
		})
	}

	return candidates, nil
}

func (b *Builder) prompt(candidates []domain.DigestArticle) string {
	var list strings.Builder
	for i, article := range candidates {
		content := article.Content
		if len(content) > analysisExcerpt {
			content = content[:analysisExcerpt] + "..."
		}
		fmt.Fprintf(&list, "[%d] %s\n   Source: %s\n   Content: %s\n\n", i+1, article.Title, article.Source, content)
	}

	return fmt.Sprintf(`You are an AI editor for %q, a premium local news digest for %s.

Your mission: create an engaging, insightful digest that helps residents stay informed about what matters most in their community.

ARTICLES TO ANALYZE (%d from the past week):
%s
EDITORIAL GUIDELINES:
- Write like a professional local journalist who knows the area well
- Focus on stories that directly impact local residents
- Prioritize local angles over national/international news
- Be objective but engaging
- Highlight community impact and human interest

Please provide your analysis in the following JSON format:
{
  "topStories": [
    {
      "rank": 1,
      "articleIndex": <index number from list>,
      "headline": "<compelling headline>",
      "summary": "<2-3 sentence summary>",
      "significance": "<why this story matters locally>"
    }
  ],
  "weeklyOverview": "<3-4 paragraph overview of the week's news>",
  "trends": ["<trend 1>", "<trend 2>", "<trend 3>"],
  "quoteOfTheWeek": {
    "quote": "<the actual quote>",
    "speaker": "<name and title>",
    "context": "<brief context about the quote>"
  },
  "lookingAhead": "<paragraph about what's coming next week>",
  "categories": {
    "local": [<article indices>],
    "business": [<article indices>],
    "sport": [<article indices>],
    "events": [<article indices>],
    "politics": [<article indices>],
    "other": [<article indices>]
  }
}

Select up to 10 top stories, rank them by local newsworthiness, and sort ALL articles into categories by index.

Return ONLY valid JSON, no additional text.`, b.publication, b.region, len(candidates), list.String())
}

func validate(parsed analysis, candidateCount int) error {
	if len(parsed.TopStories) == 0 {
		return fmt.Errorf("result has no top stories")
	}
	if parsed.Overview == "" {
		return fmt.Errorf("result missing overview")
	}

	for _, story := range parsed.TopStories {
		if story.ArticleIndex < 1 || story.ArticleIndex > candidateCount {
			return fmt.Errorf("top story index %d out of range 1..%d", story.ArticleIndex, candidateCount)
		}
	}
	for name, indices := range parsed.Categories {
		for _, idx := range indices {
			if idx < 1 || idx > candidateCount {
				return fmt.Errorf("category %s index %d out of range 1..%d", name, idx, candidateCount)
			}
		}
	}

	return nil
}

// persist writes the immutable snapshot, points "latest" at it, and appends
// it to the history index. Snapshot before pointer so readers never see a
// latest pointer without its snapshot.
func (b *Builder) persist(ctx context.Context, digest domain.Digest) error {
	payload, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	snapshotKey := domain.DigestSnapshotKey(digest.Scope, digest.Timestamp.Unix())
	if err := b.store.Put(ctx, snapshotKey, payload, 0); err != nil {
		return fmt.Errorf("persist digest snapshot: %w", err)
	}
	if err := b.store.Put(ctx, domain.DigestScopeLatestKey(digest.Scope), payload, 0); err != nil {
		return fmt.Errorf("persist latest digest: %w", err)
	}
	if err := b.store.IndexByTime(ctx, domain.DigestHistoryIndex, snapshotKey, digest.Timestamp); err != nil {
		return fmt.Errorf("index digest history: %w", err)
	}

	return nil
}
