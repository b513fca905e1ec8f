// Package store implements the whole-document JSON persistence contract.
// Every logical store is one UTF-8 JSON file rewritten in full on save;
// writes go through a temp file and rename so readers never observe a
// partial document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrPersistence wraps any load/save failure. Callers are expected to log
// it and keep their in-memory state authoritative for the process lifetime.
var ErrPersistence = errors.New("store: persistence failed")

// Document is a single JSON-persisted value of type T.
type Document[T any] struct {
	path string
}

// NewDocument creates a document handle for the given file path.
func NewDocument[T any](path string) *Document[T] {
	return &Document[T]{path: path}
}

// Path returns the backing file path.
func (d *Document[T]) Path() string {
	return d.path
}

// Exists reports whether the backing file is present.
func (d *Document[T]) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// Load reads and decodes the whole document. A missing file returns
// os.ErrNotExist wrapped in ErrPersistence so callers can fall back to
// defaults.
func (d *Document[T]) Load() (T, error) {
	var value T
	raw, err := os.ReadFile(d.path)
	if err != nil {
		return value, fmt.Errorf("%w: read %s: %w", ErrPersistence, d.path, err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("%w: decode %s: %w", ErrPersistence, d.path, err)
	}
	return value, nil
}

// Save encodes the value and rewrites the document wholesale.
func (d *Document[T]) Save(value T) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, d.path, err)
	}
	if err := writeAtomic(d.path, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// IsNotExist reports whether err stems from a missing document file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", path, err)
	}
	return nil
}
