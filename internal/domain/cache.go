package domain

import "time"

// DryRunCacheTTL is how long a cached draft stays valid. Entries older than
// this are treated as absent on lookup but remain on disk until Clear.
const DryRunCacheTTL = 24 * time.Hour

// DryRunCache is the persistent record of drafts generated in dry-run mode
// for one project. Invariant: at most one entry per API symbol id.
type DryRunCache struct {
	ProjectHash string             `json:"projectHash"`
	Entries     []DryRunCacheEntry `json:"entries"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// DryRunCacheEntry holds one cached draft.
type DryRunCacheEntry struct {
	APISymbolID   string    `json:"apiSymbolId"`
	GeneratedText string    `json:"generatedText"`
	CachedAt      time.Time `json:"cachedAt"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
}

// Lookup returns the entry for the given API symbol id, if present.
func (c *DryRunCache) Lookup(apiSymbolID string) (DryRunCacheEntry, bool) {
	if c == nil {
		return DryRunCacheEntry{}, false
	}
	for _, entry := range c.Entries {
		if entry.APISymbolID == apiSymbolID {
			return entry, true
		}
	}
	return DryRunCacheEntry{}, false
}
