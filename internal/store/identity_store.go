package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ciphera/internal/domain"
)

const identityFilename = "identity.json.enc"

// IdentityFileStore persists the long-term identity at rest, encrypted under
// an Argon2id-derived key-encryption key.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir}
}

func (s *IdentityFileStore) path() string { return filepath.Join(s.dir, identityFilename) }

type identityOnDisk struct {
	XPub   []byte `json:"x_pub"`
	XPriv  []byte `json:"x_priv"`
	EdPub  []byte `json:"ed_pub"`
	EdPriv []byte `json:"ed_priv"`
}

// SaveIdentity encrypts and writes id to disk. It refuses to overwrite an
// existing identity file, since that would silently orphan a prior key the
// user may still need to decrypt old conversations.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path()); err == nil {
		return fmt.Errorf("store: identity already exists at %s: %w", s.path(), domain.ErrStoreIO)
	}

	raw, err := json.Marshal(identityOnDisk{
		XPub:   id.XPub.Slice(),
		XPriv:  id.XPriv.Slice(),
		EdPub:  id.EdPub.Slice(),
		EdPriv: id.EdPriv.Slice(),
	})
	if err != nil {
		return fmt.Errorf("store: marshal identity: %w", domain.ErrStoreIO)
	}

	blob, err := sealWithPassphrase(argon2KEK, passphrase, raw)
	if err != nil {
		return err
	}
	return writeJSON(s.path(), blob, 0o600)
}

// LoadIdentity reads and decrypts the identity file.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob sealedBlob
	if err := readJSONRequired(s.path(), &blob); err != nil {
		return domain.Identity{}, err
	}

	raw, err := openWithPassphrase(argon2KEK, passphrase, blob)
	if err != nil {
		return domain.Identity{}, err
	}

	var onDisk identityOnDisk
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		return domain.Identity{}, fmt.Errorf("store: decode identity: %w", domain.ErrStoreIO)
	}

	return domain.Identity{
		XPub:   domain.MustX25519Public(onDisk.XPub),
		XPriv:  domain.MustX25519Private(onDisk.XPriv),
		EdPub:  domain.MustEd25519Public(onDisk.EdPub),
		EdPriv: domain.MustEd25519Private(onDisk.EdPriv),
	}, nil
}

var _ domain.IdentityStore = (*IdentityFileStore)(nil)
