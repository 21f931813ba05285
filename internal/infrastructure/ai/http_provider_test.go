package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/pkg/logger"
	"github.com/Bardin08/docify/internal/ports"
)

func newOpenAIProvider(t *testing.T, handler http.HandlerFunc) (ports.Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	def := domain.ProviderDefinition{
		Name:       "test-openai",
		Endpoint:   server.URL,
		AuthEnvVar: "TEST_KEY",
		ModelID:    "gpt-4o-mini",
	}
	creds := stubCreds{values: map[string]string{"TEST_KEY": "secret"}}
	return newHTTPProvider(def.Name, def, server.Client(), openaiAdapter(), creds, logger.NewStd(false)), server
}

func chatCompletionReply(content string, tokens int) []byte {
	reply := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{"total_tokens": tokens},
	}
	data, _ := json.Marshal(reply)
	return data
}

func TestGenerateParsesChatCompletion(t *testing.T) {
	var gotAuth string
	provider, _ := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("authorization")
		w.Write(chatCompletionReply("  <summary>Adds two numbers.</summary>  ", 321))
	})

	resp, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "document Add"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "<summary>Adds two numbers.</summary>" {
		t.Fatalf("text not trimmed: %q", resp.Text)
	}
	if resp.TokensUsed != 321 || resp.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected accounting: %+v", resp)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
}

func TestGenerateAuthRejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	provider, _ := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("authentication failures must not be retried, got %d calls", calls.Load())
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	provider, _ := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(chatCompletionReply("<summary>Second try.</summary>", 10))
	})

	resp, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected a retry after 503, got %d calls", calls.Load())
	}
	if resp.Text != "<summary>Second try.</summary>" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}

func TestGenerateExhaustedRetriesSurfaceProviderError(t *testing.T) {
	var calls atomic.Int64
	provider, _ := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if calls.Load() != retryAttempts {
		t.Fatalf("expected %d attempts, got %d", retryAttempts, calls.Load())
	}
}

func TestGenerateClientErrorFailsImmediately(t *testing.T) {
	var calls atomic.Int64
	provider, _ := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls.Load())
	}
}

func TestGenerateMissingCredentialShortCircuits(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	def := domain.ProviderDefinition{Name: "test", Endpoint: server.URL, AuthEnvVar: "ABSENT_KEY"}
	provider := newHTTPProvider(def.Name, def, server.Client(), openaiAdapter(), stubCreds{values: map[string]string{}}, logger.NewStd(false))

	_, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("no request may be sent without a credential")
	}
}

func TestAnthropicAdapterWireFormat(t *testing.T) {
	var gotVersion, gotKey string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		reply := map[string]interface{}{
			"content": []map[string]string{{"text": "<summary>Drafted.</summary>"}},
			"usage":   map[string]int{"input_tokens": 100, "output_tokens": 20},
		}
		_ = json.NewEncoder(w).Encode(reply)
	}))
	defer server.Close()

	def := domain.ProviderDefinition{
		Name:       "claude",
		Endpoint:   server.URL,
		AuthEnvVar: "ANTHROPIC_API_KEY",
		ModelID:    "claude-3-5-sonnet-20240620",
		MaxTokens:  512,
	}
	creds := stubCreds{values: map[string]string{"ANTHROPIC_API_KEY": "ak"}}
	provider := newHTTPProvider(def.Name, def, server.Client(), anthropicAdapter(), creds, logger.NewStd(false))

	resp, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "document Add"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotKey != "ak" || gotVersion != "2023-06-01" {
		t.Fatalf("headers key=%q version=%q", gotKey, gotVersion)
	}
	if gotBody["model"] != "claude-3-5-sonnet-20240620" || gotBody["max_tokens"] != float64(512) {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
	if resp.Text != "<summary>Drafted.</summary>" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if resp.TokensUsed != 120 {
		t.Fatalf("token usage = %d, want input+output = 120", resp.TokensUsed)
	}
}

func TestOllamaNeedsNoCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "" {
			t.Error("local backend must not send an authorization header")
		}
		w.Write(chatCompletionReply("<summary>Local.</summary>", 5))
	}))
	defer server.Close()

	def := domain.ProviderDefinition{Name: "ollama", Endpoint: server.URL, ModelID: "llama3.1"}
	provider := newHTTPProvider(def.Name, def, server.Client(), ollamaAdapter(), stubCreds{values: map[string]string{}}, logger.NewStd(false))

	if !provider.IsAvailable() {
		t.Fatal("a backend without auth_env_var must always be available")
	}
	resp, err := provider.Generate(context.Background(), ports.ProviderRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "<summary>Local.</summary>" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}
