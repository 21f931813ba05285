// Package index reads the symbol index database produced by the semantic
// analysis toolchain and exposes it through the analysis ports. Records are
// JSON blobs in bbolt buckets; hot symbol lookups go through an LRU cache.
package index

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.etcd.io/bbolt"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

var (
	bucketSymbols = []byte("symbols")
	bucketNames   = []byte("names")
	bucketFiles   = []byte("files")
)

const symbolCacheSize = 1024

// SymbolRecord is the per-symbol payload stored in the index.
type SymbolRecord struct {
	Symbol         domain.APISymbol           `json:"symbol"`
	Signature      domain.SignatureParts      `json:"signature"`
	Documentation  string                     `json:"documentation"`
	Implementation string                     `json:"implementation"`
	CalledIDs      []string                   `json:"calledIds"` // same-compilation only
	References     []domain.ReferenceLocation `json:"references"`
}

// Store is a read-mostly view over the analyzer-produced index.
type Store struct {
	db    *bbolt.DB
	cache *lru.Cache[string, SymbolRecord]
}

// Open opens (or creates) an index database.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketSymbols, bucketNames, bucketFiles} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	cache, err := lru.New[string, SymbolRecord](symbolCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutSymbol writes one symbol record. Used by index producers and tests.
func (s *Store) PutSymbol(record SymbolRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSymbols).Put([]byte(record.Symbol.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketNames).Put([]byte(record.Symbol.FullName), []byte(record.Symbol.ID))
	})
	if err != nil {
		return err
	}
	s.cache.Remove(record.Symbol.ID)
	return nil
}

// PutFile stores the line list of a source file.
func (s *Store) PutFile(path string, lines []string) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(path), data)
	})
}

func (s *Store) record(symbolID string) (SymbolRecord, error) {
	if rec, ok := s.cache.Get(symbolID); ok {
		return rec, nil
	}
	var rec SymbolRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSymbols).Get([]byte(symbolID))
		if data == nil {
			return fmt.Errorf("%w: symbol id %q", domain.ErrNotFound, symbolID)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return SymbolRecord{}, err
	}
	s.cache.Add(symbolID, rec)
	return rec, nil
}

// ResolveSymbol implements ports.Analyzer.
func (s *Store) ResolveSymbol(_ context.Context, fullName string) (string, error) {
	var id string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketNames).Get([]byte(fullName))
		if data == nil {
			return fmt.Errorf("%w: %q", domain.ErrNotFound, fullName)
		}
		id = string(data)
		return nil
	})
	return id, err
}

// SignatureParts implements ports.Analyzer.
func (s *Store) SignatureParts(_ context.Context, symbolID string) (domain.SignatureParts, error) {
	rec, err := s.record(symbolID)
	if err != nil {
		return domain.SignatureParts{}, err
	}
	return rec.Signature, nil
}

// FindReferences implements ports.Analyzer.
func (s *Store) FindReferences(_ context.Context, symbolID string) ([]domain.ReferenceLocation, error) {
	rec, err := s.record(symbolID)
	if err != nil {
		return nil, err
	}
	return rec.References, nil
}

// DocumentationText implements ports.Analyzer.
func (s *Store) DocumentationText(_ context.Context, symbolID string) (string, error) {
	rec, err := s.record(symbolID)
	if err != nil {
		return "", err
	}
	return rec.Documentation, nil
}

// ImplementationText implements ports.Analyzer.
func (s *Store) ImplementationText(_ context.Context, symbolID string) (string, error) {
	rec, err := s.record(symbolID)
	if err != nil {
		return "", err
	}
	return rec.Implementation, nil
}

// CalledSymbols implements ports.Analyzer.
func (s *Store) CalledSymbols(_ context.Context, symbolID string) ([]domain.APISymbol, error) {
	rec, err := s.record(symbolID)
	if err != nil {
		return nil, err
	}
	symbols := make([]domain.APISymbol, 0, len(rec.CalledIDs))
	for _, id := range rec.CalledIDs {
		called, err := s.record(id)
		if err != nil {
			continue
		}
		symbols = append(symbols, called.Symbol)
	}
	return symbols, nil
}

// FileLines implements ports.Analyzer.
func (s *Store) FileLines(_ context.Context, filePath string) ([]string, error) {
	var lines []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(filePath))
		if data == nil {
			return fmt.Errorf("%w: file %q not indexed", domain.ErrNotFound, filePath)
		}
		return json.Unmarshal(data, &lines)
	})
	return lines, err
}

// Symbols implements ports.SymbolSource, enumerating every indexed symbol.
func (s *Store) Symbols(_ context.Context) ([]domain.APISymbol, error) {
	var symbols []domain.APISymbol
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSymbols).ForEach(func(_, data []byte) error {
			var rec SymbolRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			symbols = append(symbols, rec.Symbol)
			return nil
		})
	})
	return symbols, err
}

// IsStale implements ports.StalenessChecker using the doc status the
// analyzer recorded at index time.
func (s *Store) IsStale(_ context.Context, symbol domain.APISymbol) (domain.StalenessResult, error) {
	rec, err := s.record(symbol.ID)
	if err != nil {
		return domain.StalenessResult{}, err
	}
	if rec.Symbol.DocStatus == domain.DocStatusStale {
		return domain.StalenessResult{IsStale: true, Severity: "stale"}, nil
	}
	return domain.StalenessResult{}, nil
}

var (
	_ ports.Analyzer         = (*Store)(nil)
	_ ports.SymbolSource     = (*Store)(nil)
	_ ports.StalenessChecker = (*Store)(nil)
)
