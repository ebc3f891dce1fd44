package types

// Header is the Double Ratchet message header: the sender's current DH
// public key, the length of the previous sending chain, and the sender's
// counter in its current sending chain. Its canonical serialization is the
// associated data bound into the message's AEAD tag.
type Header struct {
	DHPub               X25519Public
	PreviousChainLength uint32
	Counter             uint32
}

// Envelope is the wire message exchanged between clients via the relay. It
// carries an encrypted Double Ratchet payload plus, on the first message of
// a conversation, the inline PreKeyMessage an initiator needs to hand a
// responder so it can complete X3DH.
type Envelope struct {
	Version    uint8
	Sender     Username
	Recipient  Username
	Header     Header
	Ciphertext []byte

	// PreKeyMessage is non-nil only on the first Envelope of a conversation
	// an initiator sends before any reply has been received.
	PreKeyMessage *PreKeyMessage

	// TimestampUnixMilli is informational only; it is not part of the AEAD
	// associated data and the relay may reject envelopes too far in the
	// future, but it never gates decryption.
	TimestampUnixMilli int64
}

// PlaintextMessage is the decrypted payload application code works with.
type PlaintextMessage struct {
	Sender Username
	Body   []byte
}
