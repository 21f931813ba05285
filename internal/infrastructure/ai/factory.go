// Package ai provides the LLM provider factory and provider implementations.
//
// The factory tracks per-provider consecutive-failure counts for the
// lifetime of the process. Once the primary provider reaches the failure
// threshold, switching to a configured fallback requires confirmation
// through the injected ports.Confirmer; the factory itself never prompts.
package ai

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

const (
	httpClientTimeout = 120 * time.Second

	// fallbackThreshold is how many consecutive failures the primary
	// provider may accumulate before fallback is required.
	fallbackThreshold = 5
)

type providerKind string

const (
	kindAnthropic providerKind = "anthropic"
	kindOpenAI    providerKind = "openai"
	kindOllama    providerKind = "ollama"
	kindGemini    providerKind = "gemini"
)

// Factory builds the active provider instance and drives fallback.
type Factory struct {
	httpClient *http.Client
	creds      ports.CredentialStore
	confirm    ports.Confirmer
	log        ports.Logger

	mu            sync.Mutex
	failures      map[string]int
	active        ports.Provider
	activeDef     domain.ProviderDefinition
	usingFallback bool
}

// NewFactory creates a provider factory with a shared HTTP client.
func NewFactory(creds ports.CredentialStore, confirm ports.Confirmer, log ports.Logger) *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: httpClientTimeout},
		creds:      creds,
		confirm:    confirm,
		log:        log,
		failures:   map[string]int{},
	}
}

// GetProvider returns the active provider for the requested configuration.
// The instance is rebuilt (and counters cleared) whenever the configuration
// changes. Fallback-related failures here are batch-fatal and surface before
// any generation work begins.
func (f *Factory) GetProvider(cfg domain.Config, override string) (ports.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := override
	if name == "" {
		name = cfg.Generation.Provider
	}
	if name == "" && len(cfg.Providers) > 0 {
		name = cfg.Providers[0].Name
	}
	def, ok := cfg.ProviderByName(name)
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}

	if f.active == nil || def != f.activeDef {
		f.active = f.build(def)
		f.activeDef = def
		f.usingFallback = false
		f.failures = map[string]int{}
	}

	if !f.usingFallback && f.failures[def.Name] >= fallbackThreshold {
		if err := f.switchToFallback(cfg, def); err != nil {
			return nil, err
		}
	}

	if !f.active.IsAvailable() {
		return nil, fmt.Errorf("%w: credential missing for provider %q (set %s)",
			domain.ErrAuthentication, f.activeDef.Name, f.activeDef.AuthEnvVar)
	}
	return f.active, nil
}

func (f *Factory) switchToFallback(cfg domain.Config, primary domain.ProviderDefinition) error {
	fallbackName := cfg.Generation.FallbackProvider
	if fallbackName == "" || fallbackName == primary.Name {
		return fmt.Errorf("provider %q unavailable after %d consecutive failures, no fallback configured",
			primary.Name, fallbackThreshold)
	}
	fallbackDef, ok := cfg.ProviderByName(fallbackName)
	if !ok {
		return fmt.Errorf("fallback provider %q not configured", fallbackName)
	}

	confirmed, err := f.confirm.ConfirmFallback(primary.Name, fallbackName)
	if err != nil {
		return fmt.Errorf("fallback confirmation: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("primary provider %q unavailable, fallback to %q declined", primary.Name, fallbackName)
	}

	f.log.Info("switching to fallback provider", map[string]interface{}{
		"from": primary.Name, "to": fallbackName,
	})
	f.active = f.build(fallbackDef)
	f.activeDef = fallbackDef
	f.usingFallback = true
	f.failures = map[string]int{}
	return nil
}

// RecordSuccess resets the consecutive-failure counter for a provider.
func (f *Factory) RecordSuccess(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name] = 0
}

// RecordFailure increments the consecutive-failure counter for a provider.
func (f *Factory) RecordFailure(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name]++
}

// ConsecutiveFailures reports the current counter for a provider.
func (f *Factory) ConsecutiveFailures(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[name]
}

func (f *Factory) build(def domain.ProviderDefinition) ports.Provider {
	switch inferProviderKind(def) {
	case kindAnthropic:
		return newHTTPProvider(def.Name, def, f.httpClient, anthropicAdapter(), f.creds, f.log)
	case kindGemini:
		return newGeminiProvider(def, f.creds, f.log)
	case kindOllama:
		return newHTTPProvider(def.Name, def, f.httpClient, ollamaAdapter(), f.creds, f.log)
	default:
		return newHTTPProvider(def.Name, def, f.httpClient, openaiAdapter(), f.creds, f.log)
	}
}

func inferProviderKind(def domain.ProviderDefinition) providerKind {
	nameLower := strings.ToLower(def.Name)
	modelLower := strings.ToLower(def.ModelID)

	switch {
	case strings.Contains(def.Endpoint, "anthropic.com"), strings.HasPrefix(modelLower, "claude"):
		return kindAnthropic
	case strings.Contains(def.Endpoint, "googleapis.com"), strings.HasPrefix(modelLower, "gemini"):
		return kindGemini
	case strings.Contains(nameLower, "ollama"), strings.Contains(def.Endpoint, "11434"), strings.Contains(def.Endpoint, "localhost"):
		return kindOllama
	default:
		return kindOpenAI
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
