package domain

import "time"

// RawArticle is the canonical normalized record produced by source adapters.
// Records are immutable once stored; derived artifacts live under other keys.
type RawArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	PubDate     time.Time `json:"pubDate"`
	Author      string    `json:"author"`
	Source      string    `json:"source"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ScrapedAt   time.Time `json:"scrapedAt"`
}

// RewrittenArticle is the AI-transformed, locally-angled derivative of a
// RawArticle. LocalAngle doubles as the relevance marker: downstream readers
// treat an empty LocalAngle as "not publishable".
type RewrittenArticle struct {
	ID             string    `json:"id"`
	Headline       string    `json:"headline"`
	Subheadline    string    `json:"subheadline,omitempty"`
	Story          string    `json:"story"`
	PullQuote      string    `json:"pullQuote,omitempty"`
	LocalAngle     string    `json:"localAngle"`
	OriginalTitle  string    `json:"originalTitle"`
	OriginalSource string    `json:"originalSource"`
	OriginalLink   string    `json:"originalLink"`
	PublishedAt    time.Time `json:"publishedAt"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	RewrittenAt    time.Time `json:"rewrittenAt"`
}

// Publishable reports whether the record passed the relevance filter.
func (a RewrittenArticle) Publishable() bool {
	return a.LocalAngle != ""
}

// Summary carries per-run pipeline counters. Computed per run, never persisted.
type Summary struct {
	Found     int `json:"found"`
	Saved     int `json:"saved"`
	Skipped   int `json:"skipped"`
	Removed   int `json:"removed"`
	Rewritten int `json:"rewritten"`
}

// Stats is the process-wide status snapshot exposed to the publication layer.
type Stats struct {
	TotalArticles   int       `json:"totalArticles"`
	TotalSources    int       `json:"totalSources"`
	LastRun         time.Time `json:"lastRun"`
	HasDigest       bool      `json:"hasDigest"`
	DigestGenerated time.Time `json:"digestGenerated"`
}
