package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/summarizely/pdf-summarizer/internal/common"
	"github.com/summarizely/pdf-summarizer/internal/llm"
)

func TestSummarize(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"  the summary  "}]}`))
	}))
	defer srv.Close()

	c := NewClient(llm.Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"}, nil)
	got, err := c.Summarize(context.Background(), "document body", "summarize this")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "the summary" {
		t.Errorf("Summarize() = %q, want trimmed text block", got)
	}

	if gotPath != "/v1/messages" {
		t.Errorf("request path = %q, want /v1/messages", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != apiVersion {
		t.Errorf("anthropic-version = %q, want %q", gotVersion, apiVersion)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	content, _ := msgs[0].(map[string]any)["content"].(string)
	if !strings.Contains(content, "document body") || !strings.Contains(content, "summarize this") {
		t.Error("prompt should embed both instructions and document text")
	}
}

func TestSummarize_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(llm.Config{BaseURL: srv.URL}, nil)
	_, err := c.Summarize(context.Background(), "text", "prompt")
	var pe *common.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a ProviderError", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestSummarize_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := NewClient(llm.Config{BaseURL: srv.URL}, nil)
	_, err := c.Summarize(context.Background(), "text", "prompt")
	var pe *common.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a ProviderError", err)
	}
}

func TestSummarize_APIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	c := NewClient(llm.Config{BaseURL: srv.URL}, nil)
	_, err := c.Summarize(context.Background(), "text", "prompt")
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error = %v, want the API error message", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(llm.Config{}, nil)
	if c.cfg.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.cfg.BaseURL, defaultBaseURL)
	}
	if c.cfg.Model != defaultModel {
		t.Errorf("Model = %q, want %q", c.cfg.Model, defaultModel)
	}
	if c.Name() != "anthropic" {
		t.Errorf("Name() = %q", c.Name())
	}
}
