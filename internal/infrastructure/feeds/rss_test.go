package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <link>https://example.ie</link>
    <item>
      <guid>https://example.ie/story-1</guid>
      <title>Council votes on housing</title>
      <link>https://example.ie/story-1</link>
      <description><![CDATA[<p>The council held a <b>vote</b> on the new housing plan.</p>]]></description>
      <pubDate>Sun, 30 Aug 2026 09:30:00 GMT</pubDate>
      <author>jane@example.ie (Jane Murphy)</author>
    </item>
    <item>
      <title>No GUID story</title>
      <link>https://example.ie/story-2</link>
      <description>A second story without a guid element at all here.</description>
    </item>
  </channel>
</rss>`

func TestRSSFetchNormalizes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	fixed := time.Date(2026, time.September, 1, 6, 0, 0, 0, time.UTC)
	src := NewRSSSource(server.URL+"/feed.xml", func() time.Time { return fixed })

	articles, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.ID != "https://example.ie/story-1" {
		t.Fatalf("unexpected id: %s", first.ID)
	}
	if first.Title != "Council votes on housing" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Description != "The council held a vote on the new housing plan." {
		t.Fatalf("html not stripped: %q", first.Description)
	}
	if first.PubDate.UTC() != time.Date(2026, time.August, 30, 9, 30, 0, 0, time.UTC) {
		t.Fatalf("unexpected pub date: %v", first.PubDate)
	}
	if first.ScrapedAt != fixed {
		t.Fatalf("unexpected scraped-at: %v", first.ScrapedAt)
	}

	// GUID falls back to the link; missing dates fall back to the clock.
	second := articles[1]
	if second.ID != "https://example.ie/story-2" {
		t.Fatalf("unexpected fallback id: %s", second.ID)
	}
	if second.PubDate != fixed {
		t.Fatalf("unexpected fallback pub date: %v", second.PubDate)
	}
}

func TestRSSFetchFailsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	src := NewRSSSource(server.URL, nil)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx feed response")
	}
}

func TestSourceNameFromURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.rte.ie/news/rss":   "rte",
		"https://limerickleader.ie/rss": "limerickleader",
		"not a url":                     "unknown",
	}

	for raw, want := range cases {
		if got := sourceNameFromURL(raw); got != want {
			t.Fatalf("sourceNameFromURL(%q) = %q, want %q", raw, got, want)
		}
	}
}
