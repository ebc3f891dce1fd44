package interfaces

import domaintypes "ciphera/internal/domain/types"

// IdentityStore persists the long-term identity key pair at rest, encrypted
// under a passphrase-derived key.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// PreKeyStore manages signed and one-time prekeys on disk. Private key
// material is encrypted at rest under the same passphrase as the identity
// store, though with a different KDF (see internal/store's package doc).
type PreKeyStore interface {
	SaveSignedPreKey(
		passphrase string,
		id domaintypes.SignedPreKeyID,
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		sig []byte,
		createdUnix int64,
	) error
	LoadSignedPreKey(
		passphrase string,
		id domaintypes.SignedPreKeyID,
	) (
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		sig []byte,
		createdUnix int64,
		ok bool,
		err error,
	)

	SaveOneTimePreKeys(passphrase string, pairs []domaintypes.OneTimePreKeyPair) error

	// PeekOneTimePreKeyPublic returns the public half of the one-time
	// prekey with the lowest id, without consuming it. Bundle publication
	// uses this, since consumption is only recorded once a bundle is
	// actually used to complete a handshake, not when it is merely emitted.
	PeekOneTimePreKeyPublic(passphrase string) (pub domaintypes.OneTimePreKeyPublic, ok bool, err error)

	// ConsumeOneTimePreKeyByID removes and returns the private half of the
	// named one-time prekey. Called by a responder completing X3DH against
	// the specific prekey an initiator's PreKeyMessage names, guaranteeing
	// at-most-once use: a second call for the same id returns ok=false.
	ConsumeOneTimePreKeyByID(passphrase string, id domaintypes.OneTimePreKeyID) (
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		ok bool,
		err error,
	)
	ListOneTimePreKeyPublics(passphrase string) ([]domaintypes.OneTimePreKeyPublic, error)

	SetCurrentSignedPreKeyID(id domaintypes.SignedPreKeyID) error
	CurrentSignedPreKeyID() (domaintypes.SignedPreKeyID, bool, error)
}

// PreKeyBundleStore caches the last bundle registered with a relay. Bundles
// carry only public material, so no passphrase is needed.
type PreKeyBundleStore interface {
	SavePreKeyBundle(bundle domaintypes.PreKeyBundle) error
	LoadPreKeyBundle(username domaintypes.Username) (domaintypes.PreKeyBundle, bool, error)
}

// RatchetStore persists per-peer Double Ratchet conversations, encrypted at
// rest under the caller's passphrase like PreKeyStore.
type RatchetStore interface {
	SaveConversation(passphrase string, id domaintypes.ConversationID, conversation domaintypes.Conversation) error
	LoadConversation(passphrase string, id domaintypes.ConversationID) (domaintypes.Conversation, bool, error)

	// DeleteConversation removes a single peer's conversation, destroying
	// its ratchet state. A missing conversation is not an error.
	DeleteConversation(passphrase string, id domaintypes.ConversationID) error

	// ListConversationIDs returns every conversation currently stored.
	ListConversationIDs(passphrase string) ([]domaintypes.ConversationID, error)
}
