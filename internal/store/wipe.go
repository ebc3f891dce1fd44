package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ciphera/internal/domain"
)

// WipeAll removes every store file under dir: the identity, prekey, bundle
// cache, account profile, and ratchet conversation stores. Files that were
// never created are not an error. If multiple files fail to remove, the
// first error is returned, but every file is still attempted.
func WipeAll(dir string) error {
	files := []string{
		identityFilename,
		spkFile,
		opkFile,
		prekeyMetaFile,
		bundleFile,
		accountsFile,
		convFile,
	}

	var firstErr error
	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("store: wipe %s: %w", path, domain.ErrStoreIO)
			}
		}
	}
	return firstErr
}
