package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"ciphera/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key, suitable for
// side-channel verification between two users (safety-number-style). It
// hashes with SHA-256 and truncates to 10 bytes (20 hex characters).
func Fingerprint(pub []byte) domain.Fingerprint {
	sum := sha256.Sum256(pub)
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}
