// Package crypto exposes the primitives the rest of Ciphera's core builds
// on: X25519 key generation and Diffie-Hellman, Ed25519 signing, HKDF-SHA256
// derivation, ChaCha20-Poly1305 AEAD sealing, constant-time comparison, and
// best-effort secret zeroization.
//
// # Identity bridging
//
// An identity could convert a single Ed25519 key pair to X25519 for
// Diffie-Hellman, or carry two independent key pairs. This package takes
// the latter: GenerateX25519 and GenerateEd25519 are called separately by
// the identity service (internal/services/identity), and no function in this package
// converts between the two curves. Montgomery/Edwards conversion is a
// well-known source of subtle bugs when the two uses of a key (signing vs.
// DH) are not meant to share key material.
package crypto
