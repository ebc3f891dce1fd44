package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"ciphera/internal/domain"
)

const convFile = "conversations.json.enc"

// RatchetFileStore persists per-peer Double Ratchet conversation state.
// Root keys, chain keys, and every cached skipped-message key are
// encrypted at rest with a scrypt-derived key under the caller's
// passphrase, the same KDF and AEAD wrapping used by PreKeyFileStore:
// conversations are unlocked on every send and receive, so the lighter
// scrypt cost keeps routine operations responsive.
type RatchetFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewRatchetFileStore returns a RatchetFileStore rooted at dir.
func NewRatchetFileStore(dir string) *RatchetFileStore { return &RatchetFileStore{dir: dir} }

func (s *RatchetFileStore) path() string { return filepath.Join(s.dir, convFile) }

func (s *RatchetFileStore) load(passphrase string) (map[domain.ConversationID]domain.Conversation, error) {
	var blob sealedBlob
	if err := readJSON(s.path(), &blob); err != nil {
		return nil, err
	}
	if len(blob.Ciphertext) == 0 {
		return map[domain.ConversationID]domain.Conversation{}, nil
	}
	raw, err := openWithPassphrase(scryptKEK, passphrase, blob)
	if err != nil {
		return nil, err
	}
	m := map[domain.ConversationID]domain.Conversation{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: decode conversations: %w", domain.ErrStoreIO)
	}
	return m, nil
}

func (s *RatchetFileStore) save(passphrase string, m map[domain.ConversationID]domain.Conversation) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("store: encode conversations: %w", domain.ErrStoreIO)
	}
	blob, err := sealWithPassphrase(scryptKEK, passphrase, raw)
	if err != nil {
		return err
	}
	return writeJSON(s.path(), blob, 0o600)
}

// SaveConversation stores or updates the conversation under id.
func (s *RatchetFileStore) SaveConversation(
	passphrase string,
	id domain.ConversationID,
	conversation domain.Conversation,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(passphrase)
	if err != nil {
		return err
	}
	m[id] = conversation
	return s.save(passphrase, m)
}

// LoadConversation retrieves the conversation stored under id.
func (s *RatchetFileStore) LoadConversation(
	passphrase string,
	id domain.ConversationID,
) (domain.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(passphrase)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	c, ok := m[id]
	return c, ok, nil
}

// DeleteConversation removes the conversation stored under id, if any.
func (s *RatchetFileStore) DeleteConversation(passphrase string, id domain.ConversationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(passphrase)
	if err != nil {
		return err
	}
	if _, ok := m[id]; !ok {
		return nil
	}
	delete(m, id)
	return s.save(passphrase, m)
}

// ListConversationIDs returns every conversation id currently stored.
func (s *RatchetFileStore) ListConversationIDs(passphrase string) ([]domain.ConversationID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(passphrase)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.ConversationID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ domain.RatchetStore = (*RatchetFileStore)(nil)
