package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"ciphera/internal/domain"
)

// Seal encrypts plaintext with ChaCha20-Poly1305 under key, binding
// associatedData into the authentication tag. It generates a fresh random
// nonce and prepends it to the returned ciphertext.
func Seal(key [32]byte, associatedData, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("aead: new cipher: %w", domain.ErrBadKey)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("aead: nonce: %w", domain.ErrEntropyFail)
	}

	sealed := aead.Seal(nil, nonce, plaintext, associatedData)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open decrypts a buffer produced by Seal, verifying the same
// associatedData was bound at encryption time.
func Open(key [32]byte, associatedData, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("aead: new cipher: %w", domain.ErrBadKey)
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("aead: ciphertext too short: %w", domain.ErrAuthFail)
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, associatedData)
	if err != nil {
		return nil, fmt.Errorf("aead: open: %w", domain.ErrAuthFail)
	}
	return plaintext, nil
}
