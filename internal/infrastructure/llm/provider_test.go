package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AINewsBrief/internal/retry"
)

func TestParseProvider(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Provider{
		"anthropic": ProviderAnthropic,
		" OpenAI ":  ProviderOpenAI,
		"google":    ProviderGoogle,
		"zhipu":     ProviderZhipu,
	} {
		got, err := ParseProvider(name)
		if err != nil || got != want {
			t.Fatalf("ParseProvider(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseProvider("cohere"); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}

func TestProviderParameterNames(t *testing.T) {
	t.Parallel()

	if ProviderGoogle.MaxTokensParam() != "maxOutputTokens" {
		t.Fatalf("unexpected google param: %s", ProviderGoogle.MaxTokensParam())
	}
	if ProviderAnthropic.MaxTokensParam() != "max_tokens" || ProviderZhipu.MaxTokensParam() != "max_tokens" {
		t.Fatalf("unexpected max tokens params")
	}
	if ProviderGoogle.APIKeyEnv() != "GOOGLE_API_KEY" || ProviderZhipu.APIKeyEnv() != "ZHIPU_API_KEY" {
		t.Fatalf("unexpected api key env names")
	}
}

func TestNewCompleterRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewCompleter(ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o"}, nil)
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestNewCompleterSelectsClient(t *testing.T) {
	t.Parallel()

	cases := map[Provider]string{
		ProviderAnthropic: "*llm.AnthropicClient",
		ProviderOpenAI:    "*llm.OpenAIClient",
		ProviderZhipu:     "*llm.OpenAIClient",
		ProviderGoogle:    "*llm.GoogleClient",
	}
	for p, want := range cases {
		c, err := NewCompleter(ProviderConfig{Provider: p, Model: "m", APIKey: "k"}, nil)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if got := typeName(c); got != want {
			t.Fatalf("%s: got %s, want %s", p, got, want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *AnthropicClient:
		return "*llm.AnthropicClient"
	case *OpenAIClient:
		return "*llm.OpenAIClient"
	case *GoogleClient:
		return "*llm.GoogleClient"
	default:
		return "unknown"
	}
}

func TestAnthropicComplete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" || r.Header.Get("anthropic-version") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}]}`))
	}))
	defer server.Close()

	c, err := NewCompleter(ProviderConfig{Provider: ProviderAnthropic, Model: "claude", APIKey: "secret", Endpoint: server.URL, MaxTokens: 99}, server.Client())
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	text, err := c.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text: %q", text)
	}
	if got["system"] != "sys" || got["max_tokens"] != float64(99) {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestOpenAICompleteRateLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	c, err := NewCompleter(ProviderConfig{Provider: ProviderZhipu, Model: "glm-4", APIKey: "k", Endpoint: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	_, err = c.Complete(context.Background(), "sys", "user")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !retry.IsRateLimit(err) {
		t.Fatalf("429 should be detected as rate limit: %v", err)
	}
}

func TestOpenAIComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	c, _ := NewCompleter(ProviderConfig{Provider: ProviderOpenAI, Model: "gpt", APIKey: "k", Endpoint: server.URL}, server.Client())
	text, err := c.Complete(context.Background(), "sys", "user")
	if err != nil || text != `{"ok":true}` {
		t.Fatalf("unexpected result %q, %v", text, err)
	}
}

func TestGoogleComplete(t *testing.T) {
	t.Parallel()

	var path string
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"gemini says hi"}]}}]}`))
	}))
	defer server.Close()

	c, _ := NewCompleter(ProviderConfig{Provider: ProviderGoogle, Model: "gemini-2.0-flash", APIKey: "k", Endpoint: server.URL + "/v1beta/models", MaxTokens: 10}, server.Client())
	text, err := c.Complete(context.Background(), "sys", "user")
	if err != nil || text != "gemini says hi" {
		t.Fatalf("unexpected result %q, %v", text, err)
	}
	if path != "/v1beta/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path: %s", path)
	}
	gen, _ := got["generationConfig"].(map[string]any)
	if gen["maxOutputTokens"] != float64(10) {
		t.Fatalf("expected maxOutputTokens in generationConfig, got %v", got)
	}
}
