package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	genai "google.golang.org/genai"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

// geminiProvider wraps the official genai client. The client is built
// lazily on first use so the factory stays free of network setup.
type geminiProvider struct {
	def   domain.ProviderDefinition
	creds ports.CredentialStore
	log   ports.Logger

	once    sync.Once
	cli     *genai.Client
	initErr error
}

func newGeminiProvider(def domain.ProviderDefinition, creds ports.CredentialStore, log ports.Logger) ports.Provider {
	return &geminiProvider{def: def, creds: creds, log: log}
}

func (p *geminiProvider) Name() string {
	return defaultString(p.def.Name, "gemini")
}

func (p *geminiProvider) IsAvailable() bool {
	return p.creds.Credential(p.def.AuthEnvVar) != ""
}

func (p *geminiProvider) EstimateCost(apiCtx domain.APIContext) float64 {
	return estimateCost(p.def, apiCtx.TokenEstimate)
}

func (p *geminiProvider) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	p.once.Do(func() {
		p.cli, p.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return p.cli, p.initErr
}

func (p *geminiProvider) Generate(ctx context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	apiKey := p.creds.Credential(p.def.AuthEnvVar)
	if apiKey == "" {
		return ports.ProviderResponse{}, fmt.Errorf("%w: gemini has no API key (set %s)", domain.ErrAuthentication, p.def.AuthEnvVar)
	}

	cli, err := p.client(ctx, apiKey)
	if err != nil {
		return ports.ProviderResponse{}, fmt.Errorf("%w: gemini client: %v", domain.ErrProvider, err)
	}

	model := defaultString(p.def.ModelID, "gemini-2.0-flash")
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

		resp, err := cli.Models.GenerateContent(ctx, model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
			nil,
		)
		if err != nil {
			if ctx.Err() != nil {
				return ports.ProviderResponse{}, ctx.Err()
			}
			if isGeminiAuthError(err) {
				return ports.ProviderResponse{}, fmt.Errorf("%w: gemini rejected the credential: %v", domain.ErrAuthentication, err)
			}
			lastErr = err
			continue
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = errors.New("gemini: empty candidates")
			continue
		}

		text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
		tokens := 0
		if resp.UsageMetadata != nil {
			tokens = int(resp.UsageMetadata.TotalTokenCount)
		}
		return ports.ProviderResponse{
			Text:          text,
			Provider:      p.Name(),
			Model:         model,
			TokensUsed:    tokens,
			EstimatedCost: estimateCost(p.def, tokens),
		}, nil
	}
	return ports.ProviderResponse{}, fmt.Errorf("%w: gemini: %v", domain.ErrProvider, lastErr)
}

// isGeminiAuthError classifies credential rejections by the API's error
// surface; the SDK does not expose a typed sentinel for them.
func isGeminiAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "API key") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "PERMISSION_DENIED") ||
		strings.Contains(msg, "UNAUTHENTICATED")
}
