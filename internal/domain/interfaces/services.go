package interfaces

import (
	"context"

	domaintypes "ciphera/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// PreKeyService generates and assembles prekey bundles, and publishes them
// to a relay.
type PreKeyService interface {
	GenerateAndStorePreKeys(passphrase string, count int) (
		signedPub domaintypes.X25519Public,
		oneTimePubs []domaintypes.X25519Public,
		err error,
	)
	PublishBundle(
		ctx context.Context,
		passphrase string,
		me domaintypes.Username,
	) (domaintypes.PreKeyBundle, error)
}

// SessionService establishes or retrieves an X3DH-derived conversation.
type SessionService interface {
	InitiateSession(
		ctx context.Context,
		passphrase string,
		me domaintypes.Username,
		peer domaintypes.Username,
	) (domaintypes.Conversation, error)
	GetConversation(passphrase string, peer domaintypes.Username) (domaintypes.Conversation, bool, error)

	// DeleteSession destroys the conversation held with peer, if any.
	DeleteSession(passphrase string, peer domaintypes.Username) error

	// ListSessions returns every peer a conversation is currently held with.
	ListSessions(passphrase string) ([]domaintypes.Username, error)
}

// MessageService encrypts, sends, fetches, and decrypts messages.
type MessageService interface {
	SendMessage(
		ctx context.Context,
		passphrase string,
		from domaintypes.Username,
		to domaintypes.Username,
		plaintext []byte,
	) error
	ReceiveMessages(
		ctx context.Context,
		passphrase string,
		me domaintypes.Username,
		limit int,
	) ([]domaintypes.PlaintextMessage, error)
}
