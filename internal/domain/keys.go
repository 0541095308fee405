package domain

import "fmt"

// Store key layout. Every component goes through these helpers so a record
// identifier means the same thing everywhere.
const (
	ArticlesByDate     = "articles:by_date"
	DigestHistoryIndex = "digest:history"
	DigestLatestKey    = "digest:latest"
	LastRunKey         = "scrape:last_run"
	TotalArticlesKey   = "scrape:total_articles"

	articlePrefix   = "article:"
	rewrittenPrefix = "article:rewritten:"
)

// ArticleKey addresses the raw record for an identifier.
func ArticleKey(id string) string {
	return articlePrefix + id
}

// RewrittenKey addresses the rewritten record derived from an identifier.
func RewrittenKey(id string) string {
	return rewrittenPrefix + id
}

// RewrittenPrefix is the listing prefix for all rewritten records.
func RewrittenPrefix() string {
	return rewrittenPrefix
}

// DigestSnapshotKey addresses one immutable digest snapshot.
func DigestSnapshotKey(scope string, unix int64) string {
	return fmt.Sprintf("digest:%s:%d", scope, unix)
}

// DigestScopeLatestKey addresses the latest pointer for a digest scope.
func DigestScopeLatestKey(scope string) string {
	if scope == "" || scope == "all" {
		return DigestLatestKey
	}
	return "digest:" + scope + ":latest"
}
