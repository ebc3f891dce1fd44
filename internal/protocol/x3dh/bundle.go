package x3dh

import (
	"encoding/binary"
	"fmt"
	"time"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
)

// SignedPreKeyTTL is how long a signed prekey remains valid after creation
// before VerifyBundle rejects it.
const SignedPreKeyTTL = 90 * 24 * time.Hour

// CanonicalBundle serializes the signable fields of a bundle in a fixed
// order, for both producing and verifying BundleSignature. ServerURL and
// Canary are deliberately excluded: they are relay bookkeeping, not part of
// the cryptographic identity the bundle asserts.
func CanonicalBundle(bundle domain.PreKeyBundle) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, []byte(bundle.Username)...)
	buf = append(buf, bundle.IdentityKey[:]...)
	buf = append(buf, bundle.SigningKey[:]...)
	buf = append(buf, []byte(bundle.SignedPreKey.ID)...)
	buf = append(buf, bundle.SignedPreKey.Pub[:]...)

	var created [8]byte
	binary.BigEndian.PutUint64(created[:], uint64(bundle.SignedPreKey.CreatedUnix))
	buf = append(buf, created[:]...)
	buf = append(buf, bundle.SignedPreKey.Signature...)

	if bundle.OneTimePreKey != nil {
		buf = append(buf, []byte(bundle.OneTimePreKey.ID)...)
		buf = append(buf, bundle.OneTimePreKey.Pub[:]...)
	}
	return buf
}

// BuildBundle signs spk with identity's Ed25519 key and assembles a
// PreKeyBundle, computing the overall BundleSignature.
func BuildBundle(
	identity domain.Identity,
	username domain.Username,
	spk domain.SignedPreKey,
	otp *domain.OneTimePreKeyPublic,
) domain.PreKeyBundle {
	bundle := domain.PreKeyBundle{
		Username:      username,
		IdentityKey:   identity.XPub,
		SigningKey:    identity.EdPub,
		SignedPreKey:  spk,
		OneTimePreKey: otp,
	}
	bundle.BundleSignature = crypto.SignEd25519(identity.EdPriv, CanonicalBundle(bundle))
	return bundle
}

// VerifyBundle checks a received bundle's signed-prekey signature, its
// overall bundle signature, and its expiry.
func VerifyBundle(bundle domain.PreKeyBundle) error {
	if len(bundle.SignedPreKey.Signature) == 0 || len(bundle.BundleSignature) == 0 {
		return fmt.Errorf("x3dh: missing signature: %w", domain.ErrBadBundle)
	}

	if !crypto.VerifyEd25519(bundle.SigningKey, bundle.SignedPreKey.Pub.Slice(), bundle.SignedPreKey.Signature) {
		return fmt.Errorf("x3dh: signed prekey signature invalid: %w", domain.ErrBadBundle)
	}

	unsigned := bundle
	sig := bundle.BundleSignature
	unsigned.BundleSignature = nil
	if !crypto.VerifyEd25519(bundle.SigningKey, CanonicalBundle(unsigned), sig) {
		return fmt.Errorf("x3dh: bundle signature invalid: %w", domain.ErrBadBundle)
	}

	createdAt := time.Unix(bundle.SignedPreKey.CreatedUnix, 0)
	if time.Since(createdAt) > SignedPreKeyTTL {
		return fmt.Errorf("x3dh: signed prekey created %s: %w", createdAt, domain.ErrBundleExpired)
	}

	return nil
}
