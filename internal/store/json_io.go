package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ciphera/internal/domain"
)

// readJSON best-effort reads path into out; a missing file is not an error
// and leaves out untouched.
func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: read %s: %w", path, domain.ErrStoreIO)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("store: decode %s: %w", path, domain.ErrStoreIO)
	}
	return nil
}

// readJSONRequired reads path into out, treating a missing file as an error
// (unlike readJSON), for callers where "nothing on disk yet" must not be
// silently treated as an empty result.
func readJSONRequired(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: %s: %w", path, domain.ErrStoreIO)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("store: decode %s: %w", path, domain.ErrStoreIO)
	}
	return nil
}

// writeJSON marshals v and writes it to path atomically: a temp file in the
// same directory is written and fsynced, then renamed over the target, so a
// crash mid-write never leaves a torn file in place.
func writeJSON(path string, v any, mode os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, domain.ErrStoreIO)
	}
	return writeFileAtomic(path, b, mode)
}

func writeFileAtomic(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp for %s: %w", path, domain.ErrStoreIO)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("store: write temp for %s: %w", path, domain.ErrStoreIO)
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return fmt.Errorf("store: chmod temp for %s: %w", path, domain.ErrStoreIO)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("store: sync temp for %s: %w", path, domain.ErrStoreIO)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: close temp for %s: %w", path, domain.ErrStoreIO)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: rename into %s: %w", path, domain.ErrStoreIO)
	}
	return nil
}
