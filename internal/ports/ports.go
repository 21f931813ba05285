// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces allow the generation pipeline to
// remain independent of specific implementations like the semantic analysis
// engine, LLM HTTP clients, or CLI frameworks.
package ports

import (
	"context"
	"time"

	"github.com/Bardin08/docify/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.docify/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Analyzer is the semantic analysis collaborator. It resolves symbols to
// signatures, references, documentation and implementation text. The core
// pipeline never depends on analysis-engine-specific types.
type Analyzer interface {
	// ResolveSymbol maps a fully-qualified name to a symbol id.
	// Returns an error wrapping domain.ErrNotFound when unresolvable.
	ResolveSymbol(ctx context.Context, fullName string) (string, error)
	SignatureParts(ctx context.Context, symbolID string) (domain.SignatureParts, error)
	FindReferences(ctx context.Context, symbolID string) ([]domain.ReferenceLocation, error)
	DocumentationText(ctx context.Context, symbolID string) (string, error)
	ImplementationText(ctx context.Context, symbolID string) (string, error)
	// CalledSymbols lists symbols invoked from within the implementation,
	// restricted to the same compilation unit.
	CalledSymbols(ctx context.Context, symbolID string) ([]domain.APISymbol, error)
	// FileLines returns the full line list of a source file, used for
	// call-site context extraction.
	FileLines(ctx context.Context, filePath string) ([]string, error)
}

// SymbolSource enumerates candidate API symbols for a project.
type SymbolSource interface {
	Symbols(ctx context.Context) ([]domain.APISymbol, error)
}

// StalenessChecker is the optional documentation-freshness collaborator.
// A nil checker is a valid configuration: everything is treated as fresh.
type StalenessChecker interface {
	IsStale(ctx context.Context, symbol domain.APISymbol) (domain.StalenessResult, error)
}

// CredentialStore resolves provider credentials. Implementations typically
// read environment variables; secret persistence is out of scope.
type CredentialStore interface {
	Credential(envVar string) string
}

// ContextCollector assembles the evidence bundle for one API symbol.
type ContextCollector interface {
	Collect(ctx context.Context, symbol domain.APISymbol) (domain.APIContext, error)
}

// PromptBuilder renders an APIContext into a single LLM request prompt.
type PromptBuilder interface {
	Build(symbol domain.APISymbol, apiCtx domain.APIContext) (string, error)
}

// OutputValidator checks a raw LLM response against the API's required-tag
// contract and attempts structural repair before rejecting.
type OutputValidator interface {
	Validate(raw string, apiCtx domain.APIContext) domain.ValidationResult
}

// ProviderRequest contains everything a provider needs to draft one comment.
type ProviderRequest struct {
	Prompt  string
	Context domain.APIContext
}

// ProviderResponse is the provider's draft plus accounting metadata.
type ProviderResponse struct {
	Text          string
	Provider      string
	Model         string
	TokensUsed    int
	EstimatedCost float64
}

// Provider wraps one LLM backend behind a uniform contract. Implementations
// retry transient failures internally and classify authentication failures
// as domain.ErrAuthentication.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req ProviderRequest) (ProviderResponse, error)
	EstimateCost(apiCtx domain.APIContext) float64
	IsAvailable() bool
}

// ProviderFactory builds the active provider and tracks per-provider
// consecutive-failure counts to drive fallback.
type ProviderFactory interface {
	GetProvider(cfg domain.Config, override string) (Provider, error)
	RecordSuccess(name string)
	RecordFailure(name string)
}

// Confirmer decides whether to switch to a fallback provider. The CLI
// supplies an interactive implementation; tests supply a deterministic one.
type Confirmer interface {
	ConfirmFallback(from, to string) (bool, error)
}

// DryRunStore persists and retrieves previously generated drafts per project.
type DryRunStore interface {
	Load(projectID string) (*domain.DryRunCache, error)
	Save(projectID string, entry domain.DryRunCacheEntry) error
	Clear(projectID string) error
	IsExpired(cachedAt time.Time) bool
	PathFor(projectID string) string
}

// DocWriter receives accepted drafts. Physical insertion into source files
// belongs to the writer collaborator, not the core.
type DocWriter interface {
	Write(ctx context.Context, docs []domain.GeneratedDocumentation) error
}

// HistoryStore records completed generation runs.
type HistoryStore interface {
	Save(record domain.RunRecord) error
	Recent(limit int) ([]domain.RunRecord, error)
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
