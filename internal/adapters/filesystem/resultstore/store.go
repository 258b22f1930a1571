// Package resultstore persists result documents as JSON files in one directory.
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
)

// File names read by the report renderer and the results API.
const (
	OperationsFile = "operation.results.json"
	SearchFile     = "search.results.json"
)

// Store writes each document by replacing its file atomically.
type Store struct {
	dir string
}

func NewStore(dir string) *Store { return &Store{dir: dir} }

var _ resultstore.Store = (*Store)(nil)

func (s *Store) Dir() string { return s.dir }

func (s *Store) SaveOperations(ctx context.Context, doc resultstore.OperationResults) error {
	return s.save(ctx, OperationsFile, doc)
}

func (s *Store) SaveSearch(ctx context.Context, doc resultstore.SearchResults) error {
	return s.save(ctx, SearchFile, doc)
}

func (s *Store) LoadOperations(ctx context.Context) (resultstore.OperationResults, bool, error) {
	var doc resultstore.OperationResults
	ok, err := s.load(ctx, OperationsFile, &doc)
	return doc, ok, err
}

func (s *Store) LoadSearch(ctx context.Context) (resultstore.SearchResults, bool, error) {
	var doc resultstore.SearchResults
	ok, err := s.load(ctx, SearchFile, &doc)
	return doc, ok, err
}

func (s *Store) save(ctx context.Context, name string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, name string, into any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, into); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}
