// Package history persists generation-run records in a SQLite database.
package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/pkg/filesystem"
	"github.com/Bardin08/docify/internal/ports"
)

// SQLiteStore records completed runs in ~/.docify/history/runs.db.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore creates (or opens) the runs database. Failures yield a
// no-op store; history is never worth failing a run over.
func NewSQLiteStore() *SQLiteStore {
	path := filepath.Join(filesystem.UserHomeDir(), ".docify", "history", "runs.db")
	return NewSQLiteStoreAt(path)
}

// NewSQLiteStoreAt opens a runs database at an explicit path.
func NewSQLiteStoreAt(path string) *SQLiteStore {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{}
	}
	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		return &SQLiteStore{}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		project TEXT,
		provider TEXT,
		model TEXT,
		attempted INTEGER,
		succeeded INTEGER,
		cache_hits INTEGER,
		cache_misses INTEGER,
		dry_run INTEGER,
		duration_ms INTEGER
	);`)
	return err
}

// Save inserts a new run record.
func (s *SQLiteStore) Save(record domain.RunRecord) error {
	if s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO runs
		(timestamp, project, provider, model, attempted, succeeded, cache_hits, cache_misses, dry_run, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.Format(time.RFC3339),
		record.ProjectID,
		record.Provider,
		record.Model,
		record.Attempted,
		record.Succeeded,
		record.CacheHits,
		record.CacheMisses,
		boolToInt(record.DryRun),
		record.DurationMS,
	)
	return err
}

// Recent returns the most recent run records, newest first.
func (s *SQLiteStore) Recent(limit int) ([]domain.RunRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT timestamp, project, provider, model, attempted, succeeded,
		cache_hits, cache_misses, dry_run, duration_ms
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var ts string
		var dryRun int
		if err := rows.Scan(&ts, &rec.ProjectID, &rec.Provider, &rec.Model, &rec.Attempted,
			&rec.Succeeded, &rec.CacheHits, &rec.CacheMisses, &dryRun, &rec.DurationMS); err != nil {
			return nil, err
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339, ts)
		rec.DryRun = dryRun != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryStore = (*SQLiteStore)(nil)
