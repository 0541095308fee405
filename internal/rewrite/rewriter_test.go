package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"newsdigest/internal/config"
	"newsdigest/internal/domain"
)

type fakeOracle struct {
	answer string
	err    error
}

func (f *fakeOracle) Generate(_ context.Context, _ string) (string, error) {
	return f.answer, f.err
}

func testRegion() config.RegionConfig {
	return config.RegionConfig{Name: "Limerick, Ireland", Publication: "The Limerick Weekly"}
}

func testArticle() domain.RawArticle {
	return domain.RawArticle{
		ID:          "https://example.ie/story-1",
		Title:       "Council votes on housing",
		Link:        "https://example.ie/story-1",
		Description: "The council held a vote.",
		Source:      "example",
		PubDate:     time.Date(2026, time.August, 30, 9, 30, 0, 0, time.UTC),
		ImageURL:    "https://example.ie/img.jpg",
	}
}

const goodResponse = "Here is your article:\n" + `{
  "headline": "Housing Plan Clears Council",
  "subheadline": "Vote follows months of debate",
  "story": "Paragraph one.\n\nParagraph two.\n\nParagraph three.",
  "pullQuote": "A significant day for the city",
  "localAngle": "The development is on the city's north side."
}` + "\nLet me know if you need edits."

func TestRewriteParsesStructuredResult(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC)
	r := NewRewriter(&fakeOracle{answer: goodResponse}, testRegion(), func() time.Time { return fixed }, nil)

	article, err := r.Rewrite(context.Background(), testArticle(), "full text")
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if article.Headline != "Housing Plan Clears Council" {
		t.Fatalf("unexpected headline: %q", article.Headline)
	}
	if !strings.Contains(article.Story, "Paragraph two.") {
		t.Fatalf("unexpected story: %q", article.Story)
	}
	if article.LocalAngle == "" {
		t.Fatal("local angle must be set")
	}
	if article.OriginalTitle != "Council votes on housing" {
		t.Fatalf("back-reference missing: %q", article.OriginalTitle)
	}
	if article.OriginalLink != "https://example.ie/story-1" {
		t.Fatalf("back-reference missing: %q", article.OriginalLink)
	}
	if article.RewrittenAt != fixed {
		t.Fatalf("unexpected rewrittenAt: %v", article.RewrittenAt)
	}
}

func TestRewriteRejectsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	r := NewRewriter(&fakeOracle{answer: `{"headline": "H", "story": ""}`}, testRegion(), nil, nil)
	if _, err := r.Rewrite(context.Background(), testArticle(), ""); err == nil {
		t.Fatal("expected error for missing required fields")
	}
}

func TestRewriteRejectsNonJSONResponse(t *testing.T) {
	t.Parallel()

	r := NewRewriter(&fakeOracle{answer: "I cannot rewrite this article."}, testRegion(), nil, nil)
	if _, err := r.Rewrite(context.Background(), testArticle(), ""); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestRewritePropagatesOracleError(t *testing.T) {
	t.Parallel()

	r := NewRewriter(&fakeOracle{err: errors.New("quota")}, testRegion(), nil, nil)
	if _, err := r.Rewrite(context.Background(), testArticle(), ""); err == nil {
		t.Fatal("expected error from failing oracle")
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	raw, err := ExtractJSON("noise before {\"a\": {\"b\": 1}} noise after")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if raw != `{"a": {"b": 1}}` {
		t.Fatalf("unexpected extraction: %q", raw)
	}

	if _, err := ExtractJSON("no braces here"); err == nil {
		t.Fatal("expected error without JSON object")
	}
}
