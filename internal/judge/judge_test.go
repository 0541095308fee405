package judge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"newsdigest/internal/config"
	"newsdigest/internal/domain"
)

type fakeOracle struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeOracle) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func testArticle(id, title string) domain.RawArticle {
	return domain.RawArticle{
		ID:          id,
		Title:       title,
		Source:      "test",
		Description: "Some description long enough to matter for the prompts.",
	}
}

func testRegion() config.RegionConfig {
	return config.RegionConfig{
		Name:        "Limerick, Ireland",
		Connections: []string{"Limerick city or county", "Munster"},
	}
}

func TestAreSameStory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		answer string
		want   bool
	}{
		{"plain same", "SAME", true},
		{"plain different", "DIFFERENT", false},
		{"same with extra text", "The answer is: SAME, clearly.", true},
		{"lowercase same", "same", true},
		{"unrelated text", "cannot decide", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := NewSimilarity(&fakeOracle{answer: tc.answer}, nil)
			got := s.AreSameStory(context.Background(), testArticle("a", "A"), testArticle("b", "B"))
			if got != tc.want {
				t.Fatalf("answer %q: got %v, want %v", tc.answer, got, tc.want)
			}
		})
	}
}

func TestAreSameStoryDefaultsToDistinctOnError(t *testing.T) {
	t.Parallel()

	s := NewSimilarity(&fakeOracle{err: errors.New("no connection")}, nil)
	if s.AreSameStory(context.Background(), testArticle("a", "A"), testArticle("b", "B")) {
		t.Fatal("oracle failure must read as distinct")
	}
}

func TestSimilarityPromptContainsBothArticles(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{answer: "DIFFERENT"}
	s := NewSimilarity(oracle, nil)
	s.AreSameStory(context.Background(), testArticle("a", "Council votes"), testArticle("b", "Rugby preview"))

	if len(oracle.prompts) != 1 {
		t.Fatalf("expected 1 oracle call, got %d", len(oracle.prompts))
	}
	prompt := oracle.prompts[0]
	if !strings.Contains(prompt, "Council votes") || !strings.Contains(prompt, "Rugby preview") {
		t.Fatalf("prompt missing article titles: %s", prompt)
	}
}

func TestExcerptKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Páirc Uí Chaoimh ", 40)
	got := excerpt(long, 300)

	if !utf8.ValidString(got) {
		t.Fatalf("excerpt produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 300 {
		t.Fatalf("excerpt length = %d runes, want 300", n)
	}

	short := "Sráid Uí Chonaill"
	if got := excerpt(short, 300); got != short {
		t.Fatalf("short text altered: %q", got)
	}
}

func TestIsRelevant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		answer string
		want   bool
	}{
		{"yes", "YES", true},
		{"no", "NO", false},
		{"yes with extra text", "My answer: YES.", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewRelevance(&fakeOracle{answer: tc.answer}, testRegion(), nil)
			got := r.IsRelevant(context.Background(), testArticle("a", "A"), "")
			if got != tc.want {
				t.Fatalf("answer %q: got %v, want %v", tc.answer, got, tc.want)
			}
		})
	}
}

func TestIsRelevantDefaultsToKeepOnError(t *testing.T) {
	t.Parallel()

	r := NewRelevance(&fakeOracle{err: errors.New("no connection")}, testRegion(), nil)
	if !r.IsRelevant(context.Background(), testArticle("a", "A"), "") {
		t.Fatal("oracle failure must read as relevant")
	}
}

func TestRelevancePromptIncludesRegionAndFullText(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{answer: "YES"}
	r := NewRelevance(oracle, testRegion(), nil)
	r.IsRelevant(context.Background(), testArticle("a", "A"), "Full fetched body text")

	prompt := oracle.prompts[0]
	if !strings.Contains(prompt, "Limerick, Ireland") {
		t.Fatalf("prompt missing region: %s", prompt)
	}
	if !strings.Contains(prompt, "Full fetched body text") {
		t.Fatalf("prompt missing full text: %s", prompt)
	}
}
