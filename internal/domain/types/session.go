package types

// Conversation bundles a peer's Double Ratchet state with the bookkeeping
// needed to know whether X3DH has already run for this peer.
type Conversation struct {
	ID          ConversationID
	Peer        Username
	Ratchet     RatchetState
	CreatedUnix int64

	// PendingPreKeyMessage carries the X3DH handshake parameters the
	// initiator must attach to its first outbound envelope so the peer can
	// derive the same root key. It is set when a conversation is created on
	// the initiating side, and cleared once that first envelope has been
	// sent. Responders never set it: they learn the handshake parameters
	// from the inbound envelope itself.
	PendingPreKeyMessage *PreKeyMessage
}
