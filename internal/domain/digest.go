package domain

import "time"

// DigestArticle is a candidate record as presented to the digest editor:
// rewritten content with back-references to the original story.
type DigestArticle struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Source     string    `json:"source"`
	Link       string    `json:"link"`
	PubDate    time.Time `json:"pubDate"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	PullQuote  string    `json:"pullQuote,omitempty"`
	LocalAngle string    `json:"localAngle,omitempty"`
}

// TopStory is one ranked entry of a digest.
type TopStory struct {
	Rank         int    `json:"rank"`
	ArticleIndex int    `json:"articleIndex"`
	Headline     string `json:"headline"`
	Summary      string `json:"summary"`
	Significance string `json:"significance"`
}

// Quote highlights one quote from the covered period.
type Quote struct {
	Quote   string `json:"quote"`
	Speaker string `json:"speaker"`
	Context string `json:"context"`
}

// Digest is a timestamped ranking snapshot over a scope of rewritten
// articles. Snapshots are append-only; past digests are never mutated.
type Digest struct {
	Scope        string           `json:"scope"`
	Timestamp    time.Time        `json:"timestamp"`
	ArticleCount int              `json:"articleCount"`
	TopStories   []TopStory       `json:"topStories"`
	Overview     string           `json:"overview"`
	Trends       []string         `json:"trends"`
	Quote        *Quote           `json:"quoteOfTheWeek,omitempty"`
	LookingAhead string           `json:"lookingAhead,omitempty"`
	Categories   map[string][]int `json:"categories,omitempty"`
	Articles     []DigestArticle  `json:"articles"`
}
