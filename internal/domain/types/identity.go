package types

// Identity holds a local user's long-term key material: an X25519 pair for
// Diffie-Hellman agreement and an Ed25519 pair for signing. The two pairs
// are generated independently rather than one derived from the other (see
// internal/crypto's package doc).
type Identity struct {
	XPub   X25519Public
	XPriv  X25519Private
	EdPub  Ed25519Public
	EdPriv Ed25519Private
}
