package domain

import "time"

// GenerationRequest is the orchestrator's single entry point payload.
type GenerationRequest struct {
	ProjectID   string
	Symbols     []APISymbol
	Provider    string // overrides the configured default when set
	Parallelism int    // clamped to [1,10]
	DryRun      bool
}

// GenerationReport aggregates the outcome of one orchestrator run.
type GenerationReport struct {
	Docs        []GeneratedDocumentation
	Attempted   int
	Succeeded   int
	CacheHits   int
	CacheMisses int
	Duration    time.Duration
}

// RunRecord is one persisted line of generation history.
type RunRecord struct {
	Timestamp   time.Time
	ProjectID   string
	Provider    string
	Model       string
	Attempted   int
	Succeeded   int
	CacheHits   int
	CacheMisses int
	DryRun      bool
	DurationMS  int64
}

// ValidationResult is the output validator's verdict on a raw response.
type ValidationResult struct {
	IsValid     bool
	Issues      []string
	CleanedText string // set when structural repair extracted a fragment
}
