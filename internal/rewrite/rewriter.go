package rewrite

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
)

// Rewriter turns a raw record into a structured article via the oracle.
// A response that cannot be parsed into the required fields is a hard
// failure for that item; the caller skips it and moves on.
type Rewriter struct {
	oracle      ports.Oracle
	region      string
	publication string
	now         func() time.Time
	logger      *slog.Logger
}

var _ ports.Rewriter = (*Rewriter)(nil)

// NewRewriter wires the oracle with the publication identity. A nil clock
// defaults to time.Now.
func NewRewriter(oracle ports.Oracle, region config.RegionConfig, now func() time.Time, logger *slog.Logger) *Rewriter {
	if now == nil {
		now = time.Now
	}
	return &Rewriter{
		oracle:      oracle,
		region:      region.Name,
		publication: region.Publication,
		now:         now,
		logger:      logger,
	}
}

type rewriteResult struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	Story       string `json:"story"`
	PullQuote   string `json:"pullQuote"`
	LocalAngle  string `json:"localAngle"`
}

// Rewrite produces the rewritten article, carrying back-references to the
// originating record.
func (r *Rewriter) Rewrite(ctx context.Context, article domain.RawArticle, fullText string) (domain.RewrittenArticle, error) {
	if r.oracle == nil {
		return domain.RewrittenArticle{}, fmt.Errorf("rewriter has no oracle configured")
	}

	answer, err := r.oracle.Generate(ctx, r.prompt(article, fullText))
	if err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("rewrite %s: %w", article.ID, err)
	}

	raw, err := ExtractJSON(answer)
	if err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("rewrite %s: %w", article.ID, err)
	}

	var result rewriteResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("rewrite %s: parse result: %w", article.ID, err)
	}

	if result.Headline == "" || result.Story == "" || result.LocalAngle == "" {
		return domain.RewrittenArticle{}, fmt.Errorf("rewrite %s: result missing required fields", article.ID)
	}

	return domain.RewrittenArticle{
		ID:             article.ID,
		Headline:       result.Headline,
		Subheadline:    result.Subheadline,
		Story:          result.Story,
		PullQuote:      result.PullQuote,
		LocalAngle:     result.LocalAngle,
		OriginalTitle:  article.Title,
		OriginalSource: article.Source,
		OriginalLink:   article.Link,
		PublishedAt:    article.PubDate,
		ImageURL:       article.ImageURL,
		RewrittenAt:    r.now(),
	}, nil
}

func (r *Rewriter) prompt(article domain.RawArticle, fullText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional journalist writing for %q.\n\n", r.publication)
	b.WriteString("SOURCE ARTICLE:\n")
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	fmt.Fprintf(&b, "Source: %s\n", article.Source)
	fmt.Fprintf(&b, "Published: %s\n", article.PubDate.Format(time.RFC3339))
	fmt.Fprintf(&b, "Summary: %s\n", article.Description)
	if fullText != "" {
		fmt.Fprintf(&b, "\nFULL CONTENT:\n%s\n", fullText)
	}

	fmt.Fprintf(&b, `
TASK: Rewrite this as an original news story for %s.

REQUIREMENTS:
1. Write in journalistic style - clear, engaging, professional
2. Focus on the local angle - why this matters to readers in %s
3. Include key facts, quotes (if available), and context
4. Write 3-5 paragraphs (300-500 words)
5. Add a compelling headline that's different from the original
6. Make it feel like original reporting, not a summary
7. Be objective, balanced, and respectful - avoid condescending or patronizing language
8. Treat all communities, individuals, and groups with dignity and respect
9. Report facts without editorial judgment about social class, income, or location
10. Use neutral, factual language when describing neighbourhoods and communities
11. Include local context and impact without sensationalism

RESPOND IN JSON:
{
  "headline": "<your compelling headline>",
  "subheadline": "<optional one-line subheadline>",
  "story": "<your full story in 3-5 paragraphs, separated by \n\n>",
  "pullQuote": "<one compelling quote or fact to highlight>",
  "localAngle": "<one sentence explaining the connection to %s>"
}

Return ONLY valid JSON, no additional text.`, r.publication, r.region, r.region)

	return b.String()
}

// ExtractJSON pulls the outermost JSON object out of an oracle response,
// tolerating extraneous leading and trailing text.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return text[start : end+1], nil
}
