// Package generate contains the parallel generation orchestrator. For a
// batch of API symbols it schedules bounded-concurrency generation, consults
// the dry-run cache, runs the collect -> prompt -> generate -> validate
// pipeline per API, aggregates results, and enforces authentication-failure
// short-circuiting.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

const (
	minParallelism = 1
	maxParallelism = 10
)

// Service orchestrates one generation run end-to-end.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Collector      ports.ContextCollector
	Prompter       ports.PromptBuilder
	Validator      ports.OutputValidator
	Factory        ports.ProviderFactory
	Cache          ports.DryRunStore
	History        ports.HistoryStore // optional
	Logger         ports.Logger

	// Progress, when set, is called after each API settles with the count
	// of settled APIs and the batch total. Best-effort, interleaved.
	Progress func(done, total int)
}

// Generate processes a batch of API symbols with bounded concurrency.
// Per-API errors are contained; an authentication failure aborts the batch
// and is surfaced once, aggregated, instead of a partial result.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationReport, error) {
	if s.ConfigProvider == nil || s.Collector == nil || s.Prompter == nil ||
		s.Validator == nil || s.Factory == nil || s.Cache == nil || s.Logger == nil {
		return domain.GenerationReport{}, errors.New("generate.Service dependencies not satisfied")
	}

	started := time.Now()

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.GenerationReport{}, fmt.Errorf("load config: %w", err)
	}

	// Factory failures (no fallback, fallback declined, credential missing)
	// are batch-fatal and raised before any generation work begins.
	provider, err := s.Factory.GetProvider(cfg, req.Provider)
	if err != nil {
		return domain.GenerationReport{}, err
	}

	parallelism := clampParallelism(req.Parallelism, cfg.Generation.Parallelism)

	cached, err := s.Cache.Load(req.ProjectID)
	if err != nil {
		// Cache corruption must never abort the pipeline.
		s.Logger.Warn("dry-run cache load failed", map[string]interface{}{
			"project": req.ProjectID, "error": err.Error(),
		})
		cached = nil
	}

	state := newRunState()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	total := len(req.Symbols)

	for _, symbol := range req.Symbols {
		wg.Add(1)
		go func(sym domain.APISymbol) {
			defer wg.Done()
			s.processOne(runCtx, cancel, provider, req, sym, cached, state, sem, total)
		}(symbol)
	}
	wg.Wait()

	report := domain.GenerationReport{
		Docs:        state.results(),
		Attempted:   total,
		CacheHits:   int(state.cacheHits.Load()),
		CacheMisses: int(state.cacheMisses.Load()),
		Duration:    time.Since(started),
	}
	report.Succeeded = len(report.Docs)

	if msg, failed := state.authFailure(); failed {
		return domain.GenerationReport{}, fmt.Errorf("%w: batch aborted: %s", domain.ErrAuthentication, msg)
	}

	s.recordHistory(req, provider.Name(), report)
	return report, nil
}

// processOne runs the full pipeline for a single API inside its semaphore
// slot. Cancellation is cooperative and never an error.
func (s *Service) processOne(
	ctx context.Context,
	cancelRun context.CancelFunc,
	provider ports.Provider,
	req domain.GenerationRequest,
	sym domain.APISymbol,
	cached *domain.DryRunCache,
	state *runState,
	sem chan struct{},
	total int,
) {
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-sem }()

	if ctx.Err() != nil {
		return
	}

	defer func() {
		done := state.completed.Add(1)
		if s.Progress != nil {
			s.Progress(int(done), total)
		}
	}()

	if entry, ok := cached.Lookup(sym.ID); ok && !s.Cache.IsExpired(entry.CachedAt) {
		state.cacheHits.Add(1)
		state.append(domain.GeneratedDocumentation{
			Symbol:        sym,
			Documentation: entry.GeneratedText,
			FilePath:      sym.FilePath,
		})
		return
	}
	state.cacheMisses.Add(1)

	apiCtx, err := s.Collector.Collect(ctx, sym)
	if err != nil {
		s.reportError(state, sym, "context collection failed", err)
		return
	}

	promptText, err := s.Prompter.Build(sym, apiCtx)
	if err != nil {
		s.reportError(state, sym, "prompt build failed", err)
		return
	}

	resp, err := provider.Generate(ctx, ports.ProviderRequest{Prompt: promptText, Context: apiCtx})
	if err != nil {
		s.handleProviderError(ctx, cancelRun, provider, state, sym, err)
		return
	}
	s.Factory.RecordSuccess(provider.Name())

	verdict := s.Validator.Validate(resp.Text, apiCtx)
	if !verdict.IsValid {
		s.reportError(state, sym, "validation failed", fmt.Errorf("%w: %v", domain.ErrValidation, verdict.Issues))
		return
	}
	text := resp.Text
	if verdict.CleanedText != "" {
		text = verdict.CleanedText
	}

	state.append(domain.GeneratedDocumentation{
		Symbol:        sym,
		Documentation: text,
		FilePath:      sym.FilePath,
	})

	if req.DryRun {
		entry := domain.DryRunCacheEntry{
			APISymbolID:   sym.ID,
			GeneratedText: text,
			CachedAt:      time.Now(),
			Provider:      resp.Provider,
			Model:         resp.Model,
		}
		if err := s.Cache.Save(req.ProjectID, entry); err != nil {
			s.Logger.Warn("dry-run cache save failed", map[string]interface{}{
				"symbol": sym.FullName, "error": err.Error(),
			})
		}
	}
}

// handleProviderError applies the per-task error policy: cancellation is
// absorbed silently; an authentication failure claims the one-shot flag and
// cancels the siblings; anything else is logged and the API omitted.
func (s *Service) handleProviderError(
	ctx context.Context,
	cancelRun context.CancelFunc,
	provider ports.Provider,
	state *runState,
	sym domain.APISymbol,
	err error,
) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return
	}
	s.Factory.RecordFailure(provider.Name())

	if errors.Is(err, domain.ErrAuthentication) {
		if state.claimAuthFailure(err.Error()) {
			s.Logger.Error("authentication failure, cancelling batch", err, map[string]interface{}{
				"provider": provider.Name(), "symbol": sym.FullName,
			})
			cancelRun()
		}
		return
	}
	s.reportError(state, sym, "generation failed", err)
}

// reportError logs a contained per-API failure. Logging is suppressed once
// an authentication failure has been claimed, to avoid noise.
func (s *Service) reportError(state *runState, sym domain.APISymbol, msg string, err error) {
	if _, failed := state.authFailure(); failed {
		return
	}
	s.Logger.Error(msg, err, map[string]interface{}{"symbol": sym.FullName})
}

func (s *Service) recordHistory(req domain.GenerationRequest, providerName string, report domain.GenerationReport) {
	if s.History == nil {
		return
	}
	record := domain.RunRecord{
		Timestamp:   time.Now(),
		ProjectID:   req.ProjectID,
		Provider:    providerName,
		Attempted:   report.Attempted,
		Succeeded:   report.Succeeded,
		CacheHits:   report.CacheHits,
		CacheMisses: report.CacheMisses,
		DryRun:      req.DryRun,
		DurationMS:  report.Duration.Milliseconds(),
	}
	if err := s.History.Save(record); err != nil {
		s.Logger.Warn("history save failed", map[string]interface{}{"error": err.Error()})
	}
}

func clampParallelism(requested, configured int) int {
	n := requested
	if n == 0 {
		n = configured
	}
	if n < minParallelism {
		n = minParallelism
	}
	if n > maxParallelism {
		n = maxParallelism
	}
	return n
}
