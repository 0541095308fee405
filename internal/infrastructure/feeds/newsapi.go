package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newsdigest/internal/config"
	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

// NewsAPISource queries the NewsAPI "everything" endpoint once per region
// keyword. A failing keyword query is logged and contributes nothing.
type NewsAPISource struct {
	endpoint   string
	apiKey     string
	keywords   []string
	pageSize   int
	windowDays int
	client     *http.Client
	now        func() time.Time
	logger     *slog.Logger
}

var _ ports.ArticleSource = (*NewsAPISource)(nil)

// NewNewsAPISource builds the adapter from configuration. A nil clock
// defaults to time.Now.
func NewNewsAPISource(cfg config.NewsAPIConfig, keywords []string, now func() time.Time, logger *slog.Logger) *NewsAPISource {
	if now == nil {
		now = time.Now
	}
	return &NewsAPISource{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		keywords:   keywords,
		pageSize:   cfg.PageSize,
		windowDays: cfg.WindowDays,
		client:     &http.Client{Timeout: 15 * time.Second},
		now:        now,
		logger:     logger,
	}
}

// Name identifies the source inside the registry.
func (s *NewsAPISource) Name() string {
	return "newsapi"
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

// Fetch issues one search per keyword and normalizes the combined results.
func (s *NewsAPISource) Fetch(ctx context.Context) ([]domain.RawArticle, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("newsapi key is not configured")
	}

	var articles []domain.RawArticle
	for _, keyword := range s.keywords {
		results, err := s.search(ctx, keyword)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("newsapi keyword failed", "keyword", keyword, "error", err)
			}
			continue
		}
		articles = append(articles, results...)
	}

	return articles, nil
}

func (s *NewsAPISource) search(ctx context.Context, keyword string) ([]domain.RawArticle, error) {
	query := url.Values{}
	query.Set("q", keyword)
	query.Set("language", "en")
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", strconv.Itoa(s.pageSize))
	query.Set("from", s.now().AddDate(0, 0, -s.windowDays).Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/everything?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned %s", resp.Status)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %s: %s", payload.Status, payload.Message)
	}

	articles := make([]domain.RawArticle, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		articles = append(articles, s.normalize(item))
	}

	return articles, nil
}

func (s *NewsAPISource) normalize(item newsAPIArticle) domain.RawArticle {
	description := item.Description
	if description == "" {
		description = item.Content
	}

	author := item.Author
	if author == "" {
		author = item.Source.Name
	}
	if author == "" {
		author = "Unknown"
	}

	sourceName := item.Source.Name
	if sourceName == "" {
		sourceName = "NewsAPI"
	}

	pubDate := item.PublishedAt
	if pubDate.IsZero() {
		pubDate = s.now()
	}

	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	return domain.RawArticle{
		ID:          item.URL,
		Title:       title,
		Link:        item.URL,
		Description: StripHTML(description),
		PubDate:     pubDate,
		Author:      author,
		Source:      sourceName,
		ImageURL:    item.URLToImage,
		ScrapedAt:   s.now(),
	}
}
