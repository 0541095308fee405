package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdigest/internal/config"
	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

// Relevance asks the oracle whether a record has any connection to the
// configured region. An oracle failure reads as "relevant": the cost of an
// extra rewrite is cheaper than losing a story.
type Relevance struct {
	oracle      ports.Oracle
	region      string
	connections []string
	logger      *slog.Logger
}

var _ ports.RelevanceJudge = (*Relevance)(nil)

// NewRelevance wires the oracle with the region definition.
func NewRelevance(oracle ports.Oracle, region config.RegionConfig, logger *slog.Logger) *Relevance {
	return &Relevance{
		oracle:      oracle,
		region:      region.Name,
		connections: region.Connections,
		logger:      logger,
	}
}

// IsRelevant reports whether the record satisfies the regional filter.
func (r *Relevance) IsRelevant(ctx context.Context, article domain.RawArticle, fullText string) bool {
	if r.oracle == nil {
		return true
	}

	answer, err := r.oracle.Generate(ctx, r.prompt(article, fullText))
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("relevance check failed, keeping article", "id", article.ID, "error", err)
		}
		return true
	}

	return strings.Contains(strings.ToUpper(answer), "YES")
}

func (r *Relevance) prompt(article domain.RawArticle, fullText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Does this article have ANY connection to %s?\n\n", r.region)

	if len(r.connections) > 0 {
		b.WriteString("Consider connections to:\n")
		for _, c := range r.connections {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Article: %s\n", article.Title)
	fmt.Fprintf(&b, "Source: %s\n", article.Source)
	fmt.Fprintf(&b, "Description: %s\n", excerpt(article.Description, 500))
	if fullText != "" {
		fmt.Fprintf(&b, "Content: %s\n", excerpt(fullText, 1000))
	}

	b.WriteString("\nRespond with ONLY \"YES\" or \"NO\"")
	return b.String()
}
