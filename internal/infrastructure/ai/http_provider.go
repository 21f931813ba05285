package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 300 * time.Millisecond
)

// providerAdapter captures the request/response shaping that differs
// between HTTP backends. Everything else is shared.
type providerAdapter struct {
	buildRequest  func(domain.ProviderDefinition, string) ([]byte, error)
	parseResponse func([]byte) (string, int, error)
	setHeaders    func(*http.Request, domain.ProviderDefinition, string)
}

type httpProvider struct {
	name       string
	def        domain.ProviderDefinition
	httpClient *http.Client
	adapter    providerAdapter
	creds      ports.CredentialStore
	log        ports.Logger
}

func newHTTPProvider(name string, def domain.ProviderDefinition, client *http.Client, adapter providerAdapter, creds ports.CredentialStore, log ports.Logger) ports.Provider {
	return &httpProvider{
		name:       name,
		def:        def,
		httpClient: client,
		adapter:    adapter,
		creds:      creds,
		log:        log,
	}
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) IsAvailable() bool {
	if p.def.AuthEnvVar == "" {
		// Local backends (ollama) need no credential.
		return true
	}
	return p.creds.Credential(p.def.AuthEnvVar) != ""
}

func (p *httpProvider) EstimateCost(apiCtx domain.APIContext) float64 {
	return estimateCost(p.def, apiCtx.TokenEstimate)
}

// Generate posts the prompt to the backend, retrying transient failures with
// exponential backoff before surfacing an error. Authentication failures are
// classified as domain.ErrAuthentication and never retried.
func (p *httpProvider) Generate(ctx context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	apiKey := ""
	if p.def.AuthEnvVar != "" {
		apiKey = p.creds.Credential(p.def.AuthEnvVar)
		if apiKey == "" {
			return ports.ProviderResponse{}, fmt.Errorf("%w: %s has no API key (set %s)", domain.ErrAuthentication, p.name, p.def.AuthEnvVar)
		}
	}

	body, err := p.adapter.buildRequest(p.def, req.Prompt)
	if err != nil {
		return ports.ProviderResponse{}, fmt.Errorf("%w: build request: %v", domain.ErrProvider, err)
	}

	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ports.ProviderResponse{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		text, tokens, err := p.doRequest(ctx, body, apiKey)
		if err == nil {
			return ports.ProviderResponse{
				Text:          text,
				Provider:      p.name,
				Model:         p.def.ModelID,
				TokensUsed:    tokens,
				EstimatedCost: estimateCost(p.def, tokens),
			}, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, domain.ErrAuthentication) {
			return ports.ProviderResponse{}, err
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
		p.log.Debug("provider call failed, retrying", map[string]interface{}{
			"provider": p.name, "attempt": attempt + 1, "error": err.Error(),
		})
	}
	return ports.ProviderResponse{}, fmt.Errorf("%w: %s: %v", domain.ErrProvider, p.name, lastErr)
}

// transientError marks failures worth another attempt (429, 5xx, transport).
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func (p *httpProvider) doRequest(ctx context.Context, body []byte, apiKey string) (string, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.def.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	httpReq.Header.Set("content-type", "application/json")
	p.adapter.setHeaders(httpReq, p.def, apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		return "", 0, &transientError{err: err}
	}
	defer resp.Body.Close()

	var responseBody bytes.Buffer
	if _, err := responseBody.ReadFrom(resp.Body); err != nil {
		return "", 0, &transientError{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", 0, fmt.Errorf("%w: %s rejected the credential (%s)", domain.ErrAuthentication, p.name, resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", 0, &transientError{err: fmt.Errorf("%s: %s", p.name, resp.Status)}
	case resp.StatusCode >= 400:
		return "", 0, fmt.Errorf("%s: %s", p.name, resp.Status)
	}

	return p.adapter.parseResponse(responseBody.Bytes())
}

// ------------------------------------------------------------------------
// Anthropic adapter
// ------------------------------------------------------------------------

func anthropicAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildAnthropicRequest,
		parseResponse: parseAnthropicResponse,
		setHeaders:    setAnthropicHeaders,
	}
}

func buildAnthropicRequest(def domain.ProviderDefinition, prompt string) ([]byte, error) {
	request := map[string]interface{}{
		"model":      defaultString(def.ModelID, "claude-3-5-sonnet-20240620"),
		"max_tokens": defaultInt(def.MaxTokens, 1024),
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{"type": "text", "text": prompt},
				},
			},
		},
	}
	return json.Marshal(request)
}

func parseAnthropicResponse(body []byte) (string, int, error) {
	var response struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", 0, err
	}
	if len(response.Content) == 0 {
		return "", 0, errors.New("anthropic: empty response content")
	}
	tokens := response.Usage.InputTokens + response.Usage.OutputTokens
	return strings.TrimSpace(response.Content[0].Text), tokens, nil
}

func setAnthropicHeaders(req *http.Request, _ domain.ProviderDefinition, apiKey string) {
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
}

// ------------------------------------------------------------------------
// OpenAI-compatible adapter (openai, ollama)
// ------------------------------------------------------------------------

func openaiAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    setOpenAIHeaders,
	}
}

func ollamaAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    func(*http.Request, domain.ProviderDefinition, string) {},
	}
}

func buildChatCompletionRequest(def domain.ProviderDefinition, prompt string) ([]byte, error) {
	request := map[string]interface{}{
		"model": def.ModelID,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if def.MaxTokens > 0 {
		request["max_tokens"] = def.MaxTokens
	}
	return json.Marshal(request)
}

func parseChatCompletionResponse(body []byte) (string, int, error) {
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", 0, err
	}
	if len(response.Choices) == 0 {
		return "", 0, errors.New("chat completion: empty choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), response.Usage.TotalTokens, nil
}

func setOpenAIHeaders(req *http.Request, def domain.ProviderDefinition, apiKey string) {
	req.Header.Set("authorization", "Bearer "+apiKey)
	if def.OrgEnvVar != "" {
		if org := os.Getenv(def.OrgEnvVar); org != "" {
			req.Header.Set("OpenAI-Organization", org)
		}
	}
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
