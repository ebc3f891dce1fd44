package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"ciphera/internal/domain"
)

const (
	spkFile        = "spk_pairs.json.enc"
	opkFile        = "opk_pairs.json.enc"
	prekeyMetaFile = "prekey_meta.json"
)

// PreKeyFileStore persists signed and one-time prekey pairs to disk. Private
// key material is encrypted with a scrypt-derived key under the caller's
// passphrase; SetCurrentSignedPreKeyID/CurrentSignedPreKeyID only ever
// record an identifier, so that small metadata file is left unencrypted.
type PreKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPreKeyFileStore returns a PreKeyFileStore rooted at dir.
func NewPreKeyFileStore(dir string) *PreKeyFileStore {
	return &PreKeyFileStore{dir: dir}
}

type spkRecord struct {
	Pub         []byte `json:"pub"`
	Priv        []byte `json:"priv"`
	Signature   []byte `json:"signature"`
	CreatedUnix int64  `json:"created_unix"`
}

type opkRecord struct {
	Pub  []byte `json:"pub"`
	Priv []byte `json:"priv"`
}

type prekeyMeta struct {
	CurrentSignedPreKeyID string `json:"current_spk_id"`
}

func (s *PreKeyFileStore) spkPath() string  { return filepath.Join(s.dir, spkFile) }
func (s *PreKeyFileStore) opkPath() string  { return filepath.Join(s.dir, opkFile) }
func (s *PreKeyFileStore) metaPath() string { return filepath.Join(s.dir, prekeyMetaFile) }

func (s *PreKeyFileStore) loadSPKs(passphrase string) (map[string]spkRecord, error) {
	var blob sealedBlob
	if err := readJSON(s.spkPath(), &blob); err != nil {
		return nil, err
	}
	if len(blob.Ciphertext) == 0 {
		return map[string]spkRecord{}, nil
	}
	raw, err := openWithPassphrase(scryptKEK, passphrase, blob)
	if err != nil {
		return nil, err
	}
	m := map[string]spkRecord{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: decode signed prekeys: %w", domain.ErrStoreIO)
	}
	return m, nil
}

func (s *PreKeyFileStore) saveSPKs(passphrase string, m map[string]spkRecord) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("store: encode signed prekeys: %w", domain.ErrStoreIO)
	}
	blob, err := sealWithPassphrase(scryptKEK, passphrase, raw)
	if err != nil {
		return err
	}
	return writeJSON(s.spkPath(), blob, 0o600)
}

func (s *PreKeyFileStore) loadOPKs(passphrase string) (map[string]opkRecord, error) {
	var blob sealedBlob
	if err := readJSON(s.opkPath(), &blob); err != nil {
		return nil, err
	}
	if len(blob.Ciphertext) == 0 {
		return map[string]opkRecord{}, nil
	}
	raw, err := openWithPassphrase(scryptKEK, passphrase, blob)
	if err != nil {
		return nil, err
	}
	m := map[string]opkRecord{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: decode one-time prekeys: %w", domain.ErrStoreIO)
	}
	return m, nil
}

func (s *PreKeyFileStore) saveOPKs(passphrase string, m map[string]opkRecord) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("store: encode one-time prekeys: %w", domain.ErrStoreIO)
	}
	blob, err := sealWithPassphrase(scryptKEK, passphrase, raw)
	if err != nil {
		return err
	}
	return writeJSON(s.opkPath(), blob, 0o600)
}

// SaveSignedPreKey stores a signed prekey pair under id.
func (s *PreKeyFileStore) SaveSignedPreKey(
	passphrase string,
	id domain.SignedPreKeyID,
	priv domain.X25519Private,
	pub domain.X25519Public,
	sig []byte,
	createdUnix int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadSPKs(passphrase)
	if err != nil {
		return err
	}
	m[string(id)] = spkRecord{Pub: pub.Slice(), Priv: priv.Slice(), Signature: sig, CreatedUnix: createdUnix}
	return s.saveSPKs(passphrase, m)
}

// LoadSignedPreKey retrieves a signed prekey pair by id.
func (s *PreKeyFileStore) LoadSignedPreKey(
	passphrase string,
	id domain.SignedPreKeyID,
) (priv domain.X25519Private, pub domain.X25519Public, sig []byte, createdUnix int64, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadSPKs(passphrase)
	if err != nil {
		return priv, pub, nil, 0, false, err
	}
	rec, ok := m[string(id)]
	if !ok {
		return priv, pub, nil, 0, false, nil
	}
	return domain.MustX25519Private(rec.Priv), domain.MustX25519Public(rec.Pub), rec.Signature, rec.CreatedUnix, true, nil
}

// SaveOneTimePreKeys merges pairs into the one-time prekey store.
func (s *PreKeyFileStore) SaveOneTimePreKeys(passphrase string, pairs []domain.OneTimePreKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadOPKs(passphrase)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		m[string(p.ID)] = opkRecord{Pub: p.Pub.Slice(), Priv: p.Priv.Slice()}
	}
	return s.saveOPKs(passphrase, m)
}

// PeekOneTimePreKeyPublic returns the public half of the one-time prekey
// with the lowest id without consuming it, so pop order is deterministic
// across runs rather than following Go's randomized map iteration.
func (s *PreKeyFileStore) PeekOneTimePreKeyPublic(passphrase string) (
	pub domain.OneTimePreKeyPublic, ok bool, err error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadOPKs(passphrase)
	if err != nil {
		return pub, false, err
	}
	if len(m) == 0 {
		return pub, false, nil
	}

	ids := make([]string, 0, len(m))
	for k := range m {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	chosen := ids[0]
	rec := m[chosen]
	return domain.OneTimePreKeyPublic{ID: domain.OneTimePreKeyID(chosen), Pub: domain.MustX25519Public(rec.Pub)}, true, nil
}

// ConsumeOneTimePreKeyByID removes and returns the private half of the
// named one-time prekey. Once removed, a second call for the same id
// returns ok=false: at-most-once consumption.
func (s *PreKeyFileStore) ConsumeOneTimePreKeyByID(passphrase string, id domain.OneTimePreKeyID) (
	priv domain.X25519Private, pub domain.X25519Public, ok bool, err error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadOPKs(passphrase)
	if err != nil {
		return priv, pub, false, err
	}
	rec, ok := m[string(id)]
	if !ok {
		return priv, pub, false, nil
	}
	delete(m, string(id))
	if err := s.saveOPKs(passphrase, m); err != nil {
		return priv, pub, false, err
	}
	return domain.MustX25519Private(rec.Priv), domain.MustX25519Public(rec.Pub), true, nil
}

// ListOneTimePreKeyPublics returns the public half of every stored one-time
// prekey, for assembling a bundle.
func (s *PreKeyFileStore) ListOneTimePreKeyPublics(passphrase string) ([]domain.OneTimePreKeyPublic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadOPKs(passphrase)
	if err != nil {
		return nil, err
	}
	out := make([]domain.OneTimePreKeyPublic, 0, len(m))
	for id, rec := range m {
		out = append(out, domain.OneTimePreKeyPublic{ID: domain.OneTimePreKeyID(id), Pub: domain.MustX25519Public(rec.Pub)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetCurrentSignedPreKeyID records which signed prekey id is current.
func (s *PreKeyFileStore) SetCurrentSignedPreKeyID(id domain.SignedPreKeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.metaPath(), prekeyMeta{CurrentSignedPreKeyID: string(id)}, 0o600)
}

// CurrentSignedPreKeyID returns the recorded current signed prekey id.
func (s *PreKeyFileStore) CurrentSignedPreKeyID() (domain.SignedPreKeyID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var meta prekeyMeta
	if err := readJSON(s.metaPath(), &meta); err != nil {
		return "", false, err
	}
	if meta.CurrentSignedPreKeyID == "" {
		return "", false, nil
	}
	return domain.SignedPreKeyID(meta.CurrentSignedPreKeyID), true, nil
}

var _ domain.PreKeyStore = (*PreKeyFileStore)(nil)
