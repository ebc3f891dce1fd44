package types

// SignedPreKey is a medium-lived X25519 key pair's public record, signed by
// the owning identity's Ed25519 key.
type SignedPreKey struct {
	ID          SignedPreKeyID
	Pub         X25519Public
	Signature   []byte
	CreatedUnix int64
}

// OneTimePreKeyPair is the full (private+public) one-time prekey stored
// locally. Its private half is deleted as soon as it is consumed by X3DH.
type OneTimePreKeyPair struct {
	ID   OneTimePreKeyID
	Priv X25519Private
	Pub  X25519Public
}

// OneTimePreKeyPublic is only the public half, as published in a bundle.
type OneTimePreKeyPublic struct {
	ID  OneTimePreKeyID
	Pub X25519Public
}

// PreKeyBundle is the shareable record a responder publishes so initiators
// can start a session asynchronously.
//
// BundleSignature covers the canonical serialization of every other field
// (see internal/protocol/x3dh.CanonicalBundle) using IdentityKey's paired
// Ed25519 key (SigningKey). The bundle is immutable once emitted.
type PreKeyBundle struct {
	Username        Username
	IdentityKey     X25519Public
	SigningKey      Ed25519Public
	SignedPreKey    SignedPreKey
	OneTimePreKey   *OneTimePreKeyPublic
	BundleSignature []byte

	// ServerURL and Canary are relay-directory bookkeeping, not part of the
	// cryptographic bundle content or its signature.
	ServerURL string
	Canary    string
}

// PreKeyMessage carries the X3DH handshake parameters needed for a responder
// to derive the same root key as the initiator. It travels inline in the
// first Envelope of a fresh conversation.
type PreKeyMessage struct {
	InitiatorIdentityKey X25519Public
	EphemeralKey         X25519Public
	SignedPreKeyID       SignedPreKeyID
	OneTimePreKeyID      OneTimePreKeyID // empty if no OPK was consumed
}
