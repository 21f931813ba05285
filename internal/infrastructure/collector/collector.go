// Package collector assembles the evidence bundle (APIContext) the prompt
// builder needs for one API symbol: signature parts, diverse call-site
// samples, a possibly truncated implementation body, and fresh documentation
// harvested from internally-called methods.
package collector

import (
	"context"
	"fmt"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

const (
	defaultMaxExamples  = 5
	defaultContextLines = 3

	// Implementation bodies estimated above this many tokens are truncated.
	implementationTokenLimit = 500
	implementationCharLimit  = 2000
	truncationMarker         = "\n// ... (implementation truncated)"
)

// Collector builds APIContext values. Deterministic given identical inputs;
// never mutates the symbol.
type Collector struct {
	analyzer     ports.Analyzer
	staleness    ports.StalenessChecker // nil means fresh-by-default
	logger       ports.Logger
	maxExamples  int
	contextLines int
}

// Option adjusts collector tunables.
type Option func(*Collector)

// WithSampling overrides the call-site sampling bounds.
func WithSampling(maxExamples, contextLines int) Option {
	return func(c *Collector) {
		if maxExamples > 0 {
			c.maxExamples = maxExamples
		}
		if contextLines > 0 {
			c.contextLines = contextLines
		}
	}
}

// New creates a Collector. The staleness checker may be nil; in that
// degraded mode every called-method doc is treated as fresh.
func New(analyzer ports.Analyzer, staleness ports.StalenessChecker, log ports.Logger, opts ...Option) *Collector {
	c := &Collector{
		analyzer:     analyzer,
		staleness:    staleness,
		logger:       log,
		maxExamples:  defaultMaxExamples,
		contextLines: defaultContextLines,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect implements ports.ContextCollector.
func (c *Collector) Collect(ctx context.Context, symbol domain.APISymbol) (domain.APIContext, error) {
	symbolID, err := c.analyzer.ResolveSymbol(ctx, symbol.FullName)
	if err != nil {
		return domain.APIContext{}, fmt.Errorf("resolve %s: %w", symbol.FullName, err)
	}

	parts, err := c.analyzer.SignatureParts(ctx, symbolID)
	if err != nil {
		return domain.APIContext{}, fmt.Errorf("signature parts for %s: %w", symbol.FullName, err)
	}

	refs, err := c.analyzer.FindReferences(ctx, symbolID)
	if err != nil {
		// Missing references degrade to "no usage examples", not a failure.
		c.logger.Debug("reference lookup failed", map[string]interface{}{
			"symbol": symbol.FullName, "error": err.Error(),
		})
		refs = nil
	}
	callSites := SampleCallSites(ctx, c.analyzer, refs, c.maxExamples, c.contextLines)

	implementation, truncated := c.implementationBody(ctx, symbolID)
	calledDocs := c.calledMethodDocs(ctx, symbolID)

	apiCtx := domain.APIContext{
		Parameters:              parts.Parameters,
		ReturnType:              parts.ReturnType,
		Inheritance:             parts.Inheritance,
		RelatedTypes:            parts.RelatedTypes,
		InheritedDoc:            parts.InheritedDoc,
		CallSites:               callSites,
		Implementation:          implementation,
		ImplementationTruncated: truncated,
		CalledMethodDocs:        calledDocs,
	}
	apiCtx.TokenEstimate = estimateTokens(symbol, apiCtx)
	return apiCtx, nil
}

// implementationBody fetches the implementation text verbatim, truncating
// when the token estimate exceeds the limit.
func (c *Collector) implementationBody(ctx context.Context, symbolID string) (string, bool) {
	body, err := c.analyzer.ImplementationText(ctx, symbolID)
	if err != nil || body == "" {
		return "", false
	}
	if len(body)/4 <= implementationTokenLimit {
		return body, false
	}
	return body[:implementationCharLimit] + truncationMarker, true
}

// calledMethodDocs harvests documentation from same-compilation methods the
// implementation invokes, keeping only fresh, non-empty entries.
func (c *Collector) calledMethodDocs(ctx context.Context, symbolID string) []domain.CalledMethodDoc {
	called, err := c.analyzer.CalledSymbols(ctx, symbolID)
	if err != nil || len(called) == 0 {
		return nil
	}

	if c.staleness == nil {
		c.logger.Debug("no staleness checker configured, treating called-method docs as fresh", nil)
	}

	var docs []domain.CalledMethodDoc
	for _, sym := range called {
		calledID, err := c.analyzer.ResolveSymbol(ctx, sym.FullName)
		if err != nil {
			continue
		}
		text, err := c.analyzer.DocumentationText(ctx, calledID)
		if err != nil || text == "" {
			continue
		}
		if c.staleness != nil {
			verdict, err := c.staleness.IsStale(ctx, sym)
			if err != nil {
				// Staleness failures degrade to fresh-by-default.
				c.logger.Debug("staleness check failed", map[string]interface{}{
					"symbol": sym.FullName, "error": err.Error(),
				})
			} else if verdict.IsStale {
				continue
			}
		}
		docs = append(docs, domain.CalledMethodDoc{
			MethodName:    sym.FullName,
			Documentation: text,
			IsFresh:       true,
		})
	}
	return docs
}

// estimateTokens sums the character lengths of all evidence sections and
// divides by four, the pipeline's token heuristic.
func estimateTokens(symbol domain.APISymbol, apiCtx domain.APIContext) int {
	chars := len(symbol.Signature)
	for _, p := range apiCtx.Parameters {
		chars += len(p.Name) + len(p.Type)
	}
	chars += len(apiCtx.ReturnType)
	for _, h := range apiCtx.Inheritance {
		chars += len(h)
	}
	for _, r := range apiCtx.RelatedTypes {
		chars += len(r)
	}
	chars += len(apiCtx.InheritedDoc)
	for _, site := range apiCtx.CallSites {
		chars += len(site.CallLine)
		for _, line := range site.Before {
			chars += len(line)
		}
		for _, line := range site.After {
			chars += len(line)
		}
	}
	chars += len(apiCtx.Implementation)
	for _, doc := range apiCtx.CalledMethodDocs {
		chars += len(doc.MethodName) + len(doc.Documentation)
	}
	return chars / 4
}

var _ ports.ContextCollector = (*Collector)(nil)
