package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

type stubConfig struct {
	cfg domain.Config
	err error
}

func (s stubConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type stubCollector struct {
	err error
}

// Collect threads the symbol id through Implementation so the scripted
// provider and validator stubs can key their behavior per symbol.
func (s stubCollector) Collect(_ context.Context, sym domain.APISymbol) (domain.APIContext, error) {
	if s.err != nil {
		return domain.APIContext{}, s.err
	}
	return domain.APIContext{Implementation: sym.ID}, nil
}

type stubPrompter struct{}

func (stubPrompter) Build(sym domain.APISymbol, _ domain.APIContext) (string, error) {
	return "document " + sym.FullName, nil
}

type stubValidator struct {
	rejectIDs map[string]bool
	cleaned   string
}

func (s stubValidator) Validate(raw string, apiCtx domain.APIContext) domain.ValidationResult {
	if s.rejectIDs[apiCtx.Implementation] {
		return domain.ValidationResult{Issues: []string{"missing <summary> tag"}}
	}
	return domain.ValidationResult{IsValid: true, CleanedText: s.cleaned}
}

// stubProvider instruments concurrency and scripts per-symbol outcomes.
type stubProvider struct {
	name    string
	delay   time.Duration
	failIDs map[string]error

	mu        sync.Mutex
	inFlight  int
	peak      int
	callCount atomic.Int64
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(ctx context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	p.callCount.Add(1)
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ports.ProviderResponse{}, ctx.Err()
		}
	}
	if err, ok := p.failIDs[req.Context.Implementation]; ok {
		return ports.ProviderResponse{}, err
	}
	return ports.ProviderResponse{
		Text:     "<summary>Draft for " + req.Context.Implementation + "</summary>",
		Provider: p.name,
		Model:    "stub-model",
	}, nil
}

func (p *stubProvider) EstimateCost(domain.APIContext) float64 { return 0 }
func (p *stubProvider) IsAvailable() bool                      { return true }

func (p *stubProvider) peakConcurrency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

type stubFactory struct {
	provider ports.Provider
	err      error

	mu        sync.Mutex
	successes int
	failures  int
}

func (f *stubFactory) GetProvider(domain.Config, string) (ports.Provider, error) {
	return f.provider, f.err
}

func (f *stubFactory) RecordSuccess(string) {
	f.mu.Lock()
	f.successes++
	f.mu.Unlock()
}

func (f *stubFactory) RecordFailure(string) {
	f.mu.Lock()
	f.failures++
	f.mu.Unlock()
}

func (f *stubFactory) counters() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successes, f.failures
}

// memoryCache is an in-memory ports.DryRunStore for orchestrator tests.
type memoryCache struct {
	mu      sync.Mutex
	caches  map[string]*domain.DryRunCache
	loadErr error
	now     time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{caches: map[string]*domain.DryRunCache{}, now: time.Now()}
}

func (m *memoryCache) Load(projectID string) (*domain.DryRunCache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.caches[projectID], nil
}

func (m *memoryCache) Save(projectID string, entry domain.DryRunCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cache := m.caches[projectID]
	if cache == nil {
		cache = &domain.DryRunCache{ProjectHash: projectID, CreatedAt: m.now}
		m.caches[projectID] = cache
	}
	cache.Entries = append(cache.Entries, entry)
	return nil
}

func (m *memoryCache) Clear(projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.caches, projectID)
	return nil
}

func (m *memoryCache) IsExpired(cachedAt time.Time) bool {
	return m.now.Sub(cachedAt) > domain.DryRunCacheTTL
}

func (m *memoryCache) PathFor(projectID string) string { return projectID }

func (m *memoryCache) entryCount(projectID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.caches[projectID] == nil {
		return 0
	}
	return len(m.caches[projectID].Entries)
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

func symbols(n int) []domain.APISymbol {
	out := make([]domain.APISymbol, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.APISymbol{
			ID:       fmt.Sprintf("sym-%d", i),
			FullName: fmt.Sprintf("Acme.Widgets.Frobnicate%d", i),
			FilePath: "src/Widgets.cs",
			Kind:     domain.KindMethod,
		})
	}
	return out
}

func newTestService(provider ports.Provider, cache ports.DryRunStore) (*Service, *stubFactory) {
	factory := &stubFactory{provider: provider}
	svc := &Service{
		ConfigProvider: stubConfig{cfg: domain.Config{Generation: domain.GenerationSettings{Parallelism: 4}}},
		Collector:      stubCollector{},
		Prompter:       stubPrompter{},
		Validator:      stubValidator{},
		Factory:        factory,
		Cache:          cache,
		Logger:         nopLogger{},
	}
	return svc, factory
}

func TestGenerateProcessesAllSymbols(t *testing.T) {
	provider := &stubProvider{name: "stub"}
	svc, factory := newTestService(provider, newMemoryCache())

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   symbols(6),
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if report.Attempted != 6 || report.Succeeded != 6 {
		t.Fatalf("attempted=%d succeeded=%d, want 6/6", report.Attempted, report.Succeeded)
	}
	if report.CacheMisses != 6 || report.CacheHits != 0 {
		t.Fatalf("hits=%d misses=%d, want 0/6", report.CacheHits, report.CacheMisses)
	}
	successes, _ := factory.counters()
	if successes != 6 {
		t.Fatalf("expected 6 success records, got %d", successes)
	}
}

func TestGenerateBoundsConcurrency(t *testing.T) {
	provider := &stubProvider{name: "stub", delay: 20 * time.Millisecond}
	svc, _ := newTestService(provider, newMemoryCache())

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID:   "proj",
		Symbols:     symbols(12),
		Parallelism: 3,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if peak := provider.peakConcurrency(); peak > 3 {
		t.Fatalf("observed %d concurrent generations, limit is 3", peak)
	}
	if provider.callCount.Load() != 12 {
		t.Fatalf("expected 12 provider calls, got %d", provider.callCount.Load())
	}
}

func TestGenerateClampsParallelism(t *testing.T) {
	cases := []struct {
		requested, configured, want int
	}{
		{0, 4, 4},
		{0, 0, 1},
		{-2, 4, 1},
		{7, 4, 7},
		{25, 4, 10},
	}
	for _, tc := range cases {
		if got := clampParallelism(tc.requested, tc.configured); got != tc.want {
			t.Errorf("clampParallelism(%d, %d) = %d, want %d", tc.requested, tc.configured, got, tc.want)
		}
	}
}

func TestGenerateAuthFailureAbortsBatch(t *testing.T) {
	syms := symbols(10)
	provider := &stubProvider{
		name:  "stub",
		delay: 5 * time.Millisecond,
		failIDs: map[string]error{
			"sym-2": fmt.Errorf("%w: invalid api key", domain.ErrAuthentication),
		},
	}
	svc, factory := newTestService(provider, newMemoryCache())

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID:   "proj",
		Symbols:     syms,
		Parallelism: 2,
	})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if !strings.Contains(err.Error(), "batch aborted") {
		t.Fatalf("expected an aggregated batch error, got %v", err)
	}
	if len(report.Docs) != 0 {
		t.Fatalf("an aborted batch must not return partial docs, got %d", len(report.Docs))
	}
	if _, failures := factory.counters(); failures != 1 {
		t.Fatalf("expected exactly one failure record, got %d", failures)
	}
}

func TestGenerateCacheHitSkipsProvider(t *testing.T) {
	syms := symbols(3)
	cache := newMemoryCache()
	for _, sym := range syms[:2] {
		if err := cache.Save("proj", domain.DryRunCacheEntry{
			APISymbolID:   sym.ID,
			GeneratedText: "<summary>Cached draft.</summary>",
			CachedAt:      cache.now.Add(-time.Hour),
		}); err != nil {
			t.Fatalf("seed cache: %v", err)
		}
	}

	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, cache)

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   syms,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if report.CacheHits != 2 || report.CacheMisses != 1 {
		t.Fatalf("hits=%d misses=%d, want 2/1", report.CacheHits, report.CacheMisses)
	}
	if provider.callCount.Load() != 1 {
		t.Fatalf("cached symbols must not reach the provider, got %d calls", provider.callCount.Load())
	}
	if report.Succeeded != 3 {
		t.Fatalf("succeeded=%d, want 3", report.Succeeded)
	}
}

func TestGenerateExpiredCacheEntryRegenerates(t *testing.T) {
	syms := symbols(1)
	cache := newMemoryCache()
	if err := cache.Save("proj", domain.DryRunCacheEntry{
		APISymbolID:   syms[0].ID,
		GeneratedText: "<summary>Old draft.</summary>",
		CachedAt:      cache.now.Add(-domain.DryRunCacheTTL - time.Minute),
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, cache)

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   syms,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if report.CacheHits != 0 || report.CacheMisses != 1 {
		t.Fatalf("hits=%d misses=%d, want 0/1", report.CacheHits, report.CacheMisses)
	}
	if provider.callCount.Load() != 1 {
		t.Fatal("an expired entry must be regenerated")
	}
}

func TestGenerateValidationFailureIsContained(t *testing.T) {
	syms := symbols(4)
	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, newMemoryCache())
	svc.Validator = stubValidator{rejectIDs: map[string]bool{"sym-1": true}}

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   syms,
	})
	if err != nil {
		t.Fatalf("a contained failure must not fail the batch: %v", err)
	}
	if report.Succeeded != 3 {
		t.Fatalf("succeeded=%d, want 3", report.Succeeded)
	}
	for _, doc := range report.Docs {
		if doc.Symbol.ID == "sym-1" {
			t.Fatal("the rejected symbol must be omitted from the results")
		}
	}
}

func TestGenerateDryRunPopulatesCache(t *testing.T) {
	cache := newMemoryCache()
	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, cache)

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   symbols(5),
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if report.Succeeded != 5 {
		t.Fatalf("succeeded=%d, want 5", report.Succeeded)
	}
	if got := cache.entryCount("proj"); got != 5 {
		t.Fatalf("dry-run must cache every draft, got %d entries", got)
	}
}

func TestGenerateNonDryRunDoesNotCache(t *testing.T) {
	cache := newMemoryCache()
	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, cache)

	if _, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   symbols(3),
	}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got := cache.entryCount("proj"); got != 0 {
		t.Fatalf("non-dry-run must not write the cache, got %d entries", got)
	}
}

func TestGenerateCacheLoadFailureIsNonFatal(t *testing.T) {
	cache := newMemoryCache()
	cache.loadErr = errors.New("disk on fire")
	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, cache)

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   symbols(2),
	})
	if err != nil {
		t.Fatalf("cache corruption must not abort the pipeline: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("succeeded=%d, want 2", report.Succeeded)
	}
}

func TestGenerateFactoryErrorIsBatchFatal(t *testing.T) {
	provider := &stubProvider{name: "stub"}
	svc, factory := newTestService(provider, newMemoryCache())
	factory.err = fmt.Errorf("%w: credential missing for provider %q", domain.ErrAuthentication, "stub")

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   symbols(2),
	})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected the factory error to surface, got %v", err)
	}
	if provider.callCount.Load() != 0 {
		t.Fatal("no generation work may start when the factory fails")
	}
}

func TestGenerateValidatorCleanedTextPreferred(t *testing.T) {
	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, newMemoryCache())
	svc.Validator = stubValidator{cleaned: "<summary>Repaired.</summary>"}

	report, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   symbols(1),
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(report.Docs) != 1 || report.Docs[0].Documentation != "<summary>Repaired.</summary>" {
		t.Fatalf("expected the repaired text to win, got %+v", report.Docs)
	}
}

func TestGenerateReportsProgress(t *testing.T) {
	provider := &stubProvider{name: "stub"}
	svc, _ := newTestService(provider, newMemoryCache())

	var calls atomic.Int64
	var sawTotal atomic.Int64
	svc.Progress = func(done, total int) {
		calls.Add(1)
		sawTotal.Store(int64(total))
	}

	if _, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ProjectID: "proj",
		Symbols:   symbols(4),
	}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if calls.Load() != 4 {
		t.Fatalf("expected 4 progress callbacks, got %d", calls.Load())
	}
	if sawTotal.Load() != 4 {
		t.Fatalf("progress total=%d, want 4", sawTotal.Load())
	}
}
