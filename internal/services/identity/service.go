package identity

import (
	"fmt"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
)

// Service implements domain.IdentityService against an underlying
// domain.IdentityStore.
type Service struct {
	store domain.IdentityStore
}

// New returns a Service backed by s.
func New(s domain.IdentityStore) *Service {
	return &Service{store: s}
}

var _ domain.IdentityService = (*Service)(nil)

// GenerateIdentity creates a fresh X25519/Ed25519 identity, persists it
// under passphrase, and returns it along with its fingerprint.
func (s *Service) GenerateIdentity(passphrase string) (domain.Identity, domain.Fingerprint, error) {
	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("identity: generate x25519: %w", err)
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("identity: generate ed25519: %w", err)
	}

	id := domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}

	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", fmt.Errorf("identity: save: %w", err)
	}

	return id, crypto.Fingerprint(id.XPub.Slice()), nil
}

// LoadIdentity decrypts and returns the stored identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity: load: %w", err)
	}
	return id, nil
}

// FingerprintIdentity returns the fingerprint of the stored identity's
// X25519 public key, for out-of-band verification with a peer.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(id.XPub.Slice()), nil
}
