package crypto

import (
	"crypto/rand"
	"fmt"

	"ciphera/internal/domain"
)

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("random: %w", domain.ErrEntropyFail)
	}
	return b, nil
}
