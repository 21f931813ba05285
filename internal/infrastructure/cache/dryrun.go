// Package cache persists dry-run drafts as one JSON document per project,
// replaced atomically so no partial or corrupt cache is ever observable.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/pkg/filesystem"
	"github.com/Bardin08/docify/internal/ports"
)

// DryRunStore stores generated drafts keyed by project identity under a
// fixed per-user cache root. All failures are non-fatal to the pipeline:
// callers log and treat the cache as absent.
type DryRunStore struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
	log  ports.Logger
}

// NewDryRunStore returns a store rooted under <user cache dir>/docify/dryrun.
func NewDryRunStore(log ports.Logger) *DryRunStore {
	return &DryRunStore{
		root: filepath.Join(filesystem.UserCacheDir(), "docify", "dryrun"),
		now:  time.Now,
		log:  log,
	}
}

// NewDryRunStoreAt returns a store rooted at an explicit directory.
func NewDryRunStoreAt(root string, log ports.Logger) *DryRunStore {
	return &DryRunStore{root: root, now: time.Now, log: log}
}

// PathFor derives the deterministic cache file path for a project.
// The name is identical regardless of platform.
func (s *DryRunStore) PathFor(projectID string) string {
	return filepath.Join(s.root, projectHash(projectID)+".json")
}

// Load reads the cache for a project. A missing or malformed file yields a
// nil cache and no error.
func (s *DryRunStore) Load(projectID string) (*domain.DryRunCache, error) {
	data, err := os.ReadFile(s.PathFor(projectID))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("dry-run cache unreadable, treating as empty", map[string]interface{}{
				"project": projectID, "error": err.Error(),
			})
		}
		return nil, nil
	}
	var cache domain.DryRunCache
	if err := json.Unmarshal(data, &cache); err != nil {
		s.log.Warn("dry-run cache malformed, treating as empty", map[string]interface{}{
			"project": projectID, "error": err.Error(),
		})
		return nil, nil
	}
	return &cache, nil
}

// Save loads the existing cache (or creates an empty one stamped with the
// current time), replaces any entry sharing the same API id, then writes the
// whole structure to a sibling temp file and atomically renames it over the
// target. Last writer wins.
func (s *DryRunStore) Save(projectID string, entry domain.DryRunCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, _ := s.Load(projectID)
	if cache == nil {
		cache = &domain.DryRunCache{
			ProjectHash: projectHash(projectID),
			CreatedAt:   s.now(),
		}
	}

	replaced := false
	for i := range cache.Entries {
		if cache.Entries[i].APISymbolID == entry.APISymbolID {
			cache.Entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		cache.Entries = append(cache.Entries, entry)
	}

	path := s.PathFor(projectID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	return nil
}

// Clear removes the cache file for a project. Called after a successful
// non-dry-run write.
func (s *DryRunStore) Clear(projectID string) error {
	err := os.Remove(s.PathFor(projectID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrCache, err)
	}
	return nil
}

// IsExpired reports whether a cached timestamp is past the expiry window.
// Expired entries are treated as a miss but stay on disk until Clear.
func (s *DryRunStore) IsExpired(cachedAt time.Time) bool {
	return s.now().Sub(cachedAt) > domain.DryRunCacheTTL
}

func projectHash(projectID string) string {
	h := fnv.New64a()
	h.Write([]byte(projectID))
	return fmt.Sprintf("%016x", h.Sum64())
}

var _ ports.DryRunStore = (*DryRunStore)(nil)
