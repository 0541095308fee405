package extract

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsdigest/internal/ports"
)

const (
	// userAgent mimics a browser; many news sites block obvious bots.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	minContentLength  = 100
	maxContentLength  = 4000
	minParagraphLen   = 50
	fallbackThreshold = 200
)

// contentSelectors is tried in priority order before the paragraph fallback.
var contentSelectors = []string{
	"article",
	"[role=\"main\"]",
	".article-content",
	".post-content",
	".entry-content",
	"main",
}

var whitespaceExpr = regexp.MustCompile(`\s+`)

// PageExtractor fetches an article page and pulls out readable body text.
type PageExtractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.Extractor = (*PageExtractor)(nil)

// NewPageExtractor wires an HTTP client with the given hard timeout.
func NewPageExtractor(timeout time.Duration, logger *slog.Logger) *PageExtractor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageExtractor{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Extract returns the extracted body text, capped at 4000 characters, or an
// empty string if the page cannot be fetched or yields too little text.
// Absence of full text is never an error for callers.
func (e *PageExtractor) Extract(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		e.debug("build page request failed", "url", pageURL, "error", err)
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.debug("page fetch failed", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.debug("page fetch non-200", "url", pageURL, "status", resp.Status)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		e.debug("page parse failed", "url", pageURL, "error", err)
		return ""
	}

	content := extractContent(doc)
	if len(content) < minContentLength {
		e.debug("extracted content too short", "url", pageURL, "length", len(content))
		return ""
	}

	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	return content
}

func extractContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, .ads, .advertisement, .social-share").Remove()

	var content string
	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			content = sel.First().Text()
			break
		}
	}

	// Fallback: stitch together the long paragraphs.
	if collapsed := collapse(content); len(collapsed) < fallbackThreshold {
		var paragraphs []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := collapse(p.Text())
			if len(text) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if joined := strings.Join(paragraphs, "\n\n"); len(joined) > len(collapsed) {
			return joined
		}
		return collapsed
	}

	return collapse(content)
}

func collapse(text string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}

func (e *PageExtractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
