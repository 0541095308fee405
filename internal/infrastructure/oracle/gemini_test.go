package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsdigest/internal/config"
)

func testOracleConfig(endpoint string) config.OracleConfig {
	return config.OracleConfig{
		Endpoint: endpoint,
		Model:    "gemini-2.0-flash-lite",
		APIKey:   "test-key",
	}
}

func TestGenerateReturnsCandidateText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash-lite:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "SAME"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(testOracleConfig(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	text, err := client.Generate(context.Background(), "Are these the same story?")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "SAME" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestGenerateErrorsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewGeminiClient(testOracleConfig(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestGenerateErrorsOnEmptyCandidates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(testOracleConfig(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	t.Parallel()

	cfg := testOracleConfig("https://example.invalid")
	cfg.APIKey = ""

	if _, err := NewGeminiClient(cfg); err == nil {
		t.Fatal("expected constructor error without api key")
	}
}
