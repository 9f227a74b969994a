package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arxivreco/internal/core"
)

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/embeddings" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", got)
		}

		var req openAIEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("Unexpected model %q", req.Model)
		}
		if len(req.Input) != 2 {
			t.Errorf("Expected 2 inputs, got %d", len(req.Input))
		}

		// Deliberately out of order; the provider must place by index.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0,1]},
			{"index":0,"embedding":[1,0]}
		],"model":"text-embedding-3-small"}`))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}

	vectors, err := p.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("Vectors not placed by index: %v", vectors)
	}
	if p.ModelName() != DefaultOpenAIModel {
		t.Errorf("Unexpected model name %s", p.ModelName())
	}
}

func TestOpenAIProvider_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("k", WithBaseURL(server.URL))
	_, err := p.Embed(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		t.Errorf("Expected status 429 error, got %v", err)
	}
}

func TestOpenAIProvider_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "too few", body: `{"data":[{"index":0,"embedding":[1]}]}`},
		{name: "duplicate index", body: `{"data":[{"index":0,"embedding":[1]},{"index":0,"embedding":[2]}]}`},
		{name: "index out of range", body: `{"data":[{"index":0,"embedding":[1]},{"index":5,"embedding":[2]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, _ := NewOpenAIProvider("k", WithBaseURL(server.URL))
			_, err := p.Embed(context.Background(), []string{"a", "b"})
			if !errors.Is(err, core.ErrMalformedEmbedding) {
				t.Errorf("Expected ErrMalformedEmbedding, got %v", err)
			}
		})
	}
}

func TestNew_OpenAIOptions(t *testing.T) {
	e, err := New(context.Background(), Options{
		Provider: "OpenAI",
		APIKey:   "k",
		Model:    "text-embedding-3-large",
		BaseURL:  "http://localhost:1234/v1/",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p, ok := e.(*OpenAIProvider)
	if !ok {
		t.Fatalf("Expected *OpenAIProvider, got %T", e)
	}
	if p.model != "text-embedding-3-large" || p.baseURL != "http://localhost:1234/v1" {
		t.Errorf("Options not applied: model=%s baseURL=%s", p.model, p.baseURL)
	}
}
