package feeds

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

var tagExpr = regexp.MustCompile(`<[^>]*>`)

// RSSSource fetches one RSS or Atom feed and normalizes its items.
type RSSSource struct {
	feedURL    string
	sourceName string
	parser     *gofeed.Parser
	now        func() time.Time
}

var _ ports.ArticleSource = (*RSSSource)(nil)

// NewRSSSource builds a source for a single feed URL. The source name is
// derived from the feed host. A nil clock defaults to time.Now.
func NewRSSSource(feedURL string, now func() time.Time) *RSSSource {
	if now == nil {
		now = time.Now
	}
	return &RSSSource{
		feedURL:    feedURL,
		sourceName: sourceNameFromURL(feedURL),
		parser:     gofeed.NewParser(),
		now:        now,
	}
}

// Name identifies the source inside the registry.
func (s *RSSSource) Name() string {
	return "rss/" + s.sourceName
}

// Fetch downloads and parses the feed, mapping items to RawArticle records.
func (s *RSSSource) Fetch(ctx context.Context) ([]domain.RawArticle, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.feedURL, err)
	}

	articles := make([]domain.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		articles = append(articles, s.normalize(item))
	}

	return articles, nil
}

func (s *RSSSource) normalize(item *gofeed.Item) domain.RawArticle {
	id := item.GUID
	if id == "" {
		id = item.Link
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}
	description = StripHTML(description)

	pubDate := s.now()
	if item.PublishedParsed != nil {
		pubDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		pubDate = *item.UpdatedParsed
	}

	author := "Unknown"
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		author = item.Authors[0].Name
	}

	var imageURL string
	if item.Image != nil {
		imageURL = item.Image.URL
	}

	return domain.RawArticle{
		ID:          id,
		Title:       item.Title,
		Link:        item.Link,
		Description: description,
		PubDate:     pubDate,
		Author:      author,
		Source:      s.sourceName,
		ImageURL:    imageURL,
		ScrapedAt:   s.now(),
	}
}

// StripHTML removes markup from feed descriptions.
func StripHTML(text string) string {
	return strings.TrimSpace(tagExpr.ReplaceAllString(text, ""))
}

func sourceNameFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
