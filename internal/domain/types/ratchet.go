package types

// SkippedKey is a single cached message key for a message that arrived out
// of order, indexed by the DH public key in effect when it was derived and
// the chain counter it corresponds to.
type SkippedKey struct {
	DHPub      X25519Public
	Counter    uint32
	MessageKey [32]byte
	StoredUnix int64
}

// RatchetState is the full persisted state of one Double Ratchet session
// with a single peer. Field names follow the Signal-style algorithm
// description rather than abbreviations, so the ratchet package reads like
// the algorithm it implements.
type RatchetState struct {
	DHSelfPriv X25519Private
	DHSelfPub  X25519Public
	DHRemote   *X25519Public // nil until the first message from the peer

	RootKey [32]byte

	ChainKeySend *[32]byte
	ChainKeyRecv *[32]byte

	SendCounter         uint32 // Ns
	RecvCounter         uint32 // Nr
	PreviousChainLength uint32 // PN

	SkippedKeys []SkippedKey

	// Initiator records which side opened the session. Read only when a
	// newly received envelope carries its own PreKeyMessage against a
	// conversation that is already Initiator here too: that's both sides
	// initiating at once, and message.Service resolves it by username.
	Initiator bool
}
