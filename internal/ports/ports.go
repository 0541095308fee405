package ports

import (
	"context"
	"errors"
	"time"

	"newsdigest/internal/domain"
)

// ErrNotFound is returned by Store.Get when a key is absent or expired.
var ErrNotFound = errors.New("not found")

// Store is the key-value + time-index abstraction backing the pipeline.
// Article-like values are written with a TTL; digests, status fields and the
// time index itself are unbounded. Callers write the value before the index
// entry so a crash mid-operation never indexes a nonexistent value.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	Delete(ctx context.Context, keys ...string) (int, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	IndexByTime(ctx context.Context, namespace, id string, ts time.Time) error
	RemoveFromIndex(ctx context.Context, namespace, id string) error
	RangeByTimeDesc(ctx context.Context, namespace string, offset, limit int) ([]string, error)
	CountIndex(ctx context.Context, namespace string) (int, error)
	Close() error
}

// ArticleSource pulls candidate records from one upstream provider.
type ArticleSource interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawArticle, error)
}

// Fetcher aggregates all configured sources into one normalized batch.
type Fetcher interface {
	FetchAll(ctx context.Context) []domain.RawArticle
}

// Oracle is a synchronous generative-text call. Callers impose their own
// parsing and must tolerate extraneous text around the answer.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SimilarityJudge decides whether two records describe the same story.
// Implementations default to false on oracle failure.
type SimilarityJudge interface {
	AreSameStory(ctx context.Context, a, b domain.RawArticle) bool
}

// RelevanceJudge decides whether a record passes the regional filter.
// Implementations default to true on oracle failure.
type RelevanceJudge interface {
	IsRelevant(ctx context.Context, article domain.RawArticle, fullText string) bool
}

// Rewriter turns a raw record (optionally enriched with full body text) into
// a structured rewritten article.
type Rewriter interface {
	Rewrite(ctx context.Context, article domain.RawArticle, fullText string) (domain.RewrittenArticle, error)
}

// Extractor fetches a page and extracts readable body text. An empty string
// means full text is unavailable; that is not an error.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) string
}

// Backup persists rewritten articles to durable secondary storage.
type Backup interface {
	Save(id string, article domain.RewrittenArticle) error
	Clear() (int, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
