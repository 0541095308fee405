package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"newsdigest/internal/domain"
)

type fakeSource struct {
	name     string
	articles []domain.RawArticle
	err      error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context) ([]domain.RawArticle, error) {
	return f.articles, f.err
}

func article(id, desc string) domain.RawArticle {
	return domain.RawArticle{
		ID:          id,
		Title:       "Title " + id,
		Link:        id,
		Description: desc,
		PubDate:     time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC),
		Source:      "test",
	}
}

func TestFetchAllIsolatesFailingSource(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 150)

	reg := NewRegistry()
	reg.Register(&fakeSource{name: "broken", err: errors.New("timeout")})
	reg.Register(&fakeSource{name: "working", articles: []domain.RawArticle{article("a", long)}})

	f := NewFetcher(reg, 100, nil)
	batch := f.FetchAll(context.Background())

	if len(batch) != 1 {
		t.Fatalf("expected 1 article, got %d", len(batch))
	}
	if batch[0].ID != "a" {
		t.Fatalf("unexpected article id: %s", batch[0].ID)
	}
}

func TestFetchAllDropsShortAndDuplicateRecords(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 150)

	reg := NewRegistry()
	reg.Register(&fakeSource{name: "one", articles: []domain.RawArticle{
		article("a", long),
		article("short", "too short"),
		article("", long),
	}})
	reg.Register(&fakeSource{name: "two", articles: []domain.RawArticle{
		article("a", long), // same identifier from a second source
		article("b", long),
	}})

	f := NewFetcher(reg, 100, nil)
	batch := f.FetchAll(context.Background())

	if len(batch) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(batch))
	}
	if batch[0].ID != "a" || batch[1].ID != "b" {
		t.Fatalf("unexpected batch: %v, %v", batch[0].ID, batch[1].ID)
	}
}
