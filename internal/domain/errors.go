package domain

import "errors"

// Error taxonomy for the generation pipeline. Callers classify failures with
// errors.Is; every error surfaced by the pipeline wraps one of these.
var (
	// ErrNotFound: the analysis collaborator cannot resolve a symbol.
	// Fatal for that API only.
	ErrNotFound = errors.New("symbol not found")

	// ErrValidation: provider output is missing required structure.
	// That API's generation fails and is excluded from results.
	ErrValidation = errors.New("documentation validation failed")

	// ErrProvider: a provider call failed after internal retries.
	ErrProvider = errors.New("provider request failed")

	// ErrAuthentication: credentials missing or rejected. Distinct from
	// ErrProvider; short-circuits the whole batch.
	ErrAuthentication = errors.New("provider authentication failed")

	// ErrCache: dry-run cache I/O failed. Always non-fatal.
	ErrCache = errors.New("dry-run cache failure")
)
