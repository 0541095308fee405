package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

const descriptionExcerpt = 300

// Similarity asks the oracle whether two records describe the same story.
// One attempt per pair; an oracle failure reads as "distinct" so transient
// errors never silently discard content.
type Similarity struct {
	oracle ports.Oracle
	logger *slog.Logger
}

var _ ports.SimilarityJudge = (*Similarity)(nil)

// NewSimilarity wires the oracle.
func NewSimilarity(oracle ports.Oracle, logger *slog.Logger) *Similarity {
	return &Similarity{oracle: oracle, logger: logger}
}

// AreSameStory reports whether a and b cover the same real-world story.
func (s *Similarity) AreSameStory(ctx context.Context, a, b domain.RawArticle) bool {
	if s.oracle == nil {
		return false
	}

	answer, err := s.oracle.Generate(ctx, similarityPrompt(a, b))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("similarity check failed, treating as distinct", "a", a.ID, "b", b.ID, "error", err)
		}
		return false
	}

	return strings.Contains(strings.ToUpper(answer), "SAME")
}

func similarityPrompt(a, b domain.RawArticle) string {
	return fmt.Sprintf(`Are these two articles about the SAME story/event?

ARTICLE 1:
Title: %s
Source: %s
Description: %s

ARTICLE 2:
Title: %s
Source: %s
Description: %s

Consider them the SAME if they:
- Report the same specific event or incident
- Are about the same person doing the same thing
- Cover the same announcement or development

Consider them DIFFERENT if they:
- Are about different events (even in same category)
- Cover different aspects of a broader topic
- Are general news vs specific incidents

Respond with ONLY "SAME" or "DIFFERENT"`,
		a.Title, a.Source, excerpt(a.Description, descriptionExcerpt),
		b.Title, b.Source, excerpt(b.Description, descriptionExcerpt))
}

// excerpt truncates to limit runes so multi-byte text is never cut
// mid-sequence.
func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
