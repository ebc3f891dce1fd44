// Package domain defines the shared vocabulary of the Ciphera core: the
// sentinel errors every layer compares against, and type aliases onto
// internal/domain/types and internal/domain/interfaces so callers outside
// the domain tree can write domain.Identity instead of reaching into the
// types subpackage directly.
package domain

import (
	domaininterfaces "ciphera/internal/domain/interfaces"
	domaintypes "ciphera/internal/domain/types"
)

type (
	Username             = domaintypes.Username
	Fingerprint          = domaintypes.Fingerprint
	SignedPreKeyID       = domaintypes.SignedPreKeyID
	OneTimePreKeyID      = domaintypes.OneTimePreKeyID
	ConversationID       = domaintypes.ConversationID
	X25519Public         = domaintypes.X25519Public
	X25519Private        = domaintypes.X25519Private
	Ed25519Public        = domaintypes.Ed25519Public
	Ed25519Private       = domaintypes.Ed25519Private
	Identity             = domaintypes.Identity
	SignedPreKey         = domaintypes.SignedPreKey
	OneTimePreKeyPair    = domaintypes.OneTimePreKeyPair
	OneTimePreKeyPublic  = domaintypes.OneTimePreKeyPublic
	PreKeyBundle         = domaintypes.PreKeyBundle
	PreKeyMessage        = domaintypes.PreKeyMessage
	SkippedKey           = domaintypes.SkippedKey
	RatchetState         = domaintypes.RatchetState
	Conversation         = domaintypes.Conversation
	Header               = domaintypes.Header
	Envelope             = domaintypes.Envelope
	PlaintextMessage     = domaintypes.PlaintextMessage
	AccountProfile       = domaintypes.AccountProfile

	AccountStore        = domaininterfaces.AccountStore
	RelayClient          = domaininterfaces.RelayClient
	IdentityStore        = domaininterfaces.IdentityStore
	PreKeyStore          = domaininterfaces.PreKeyStore
	PreKeyBundleStore    = domaininterfaces.PreKeyBundleStore
	RatchetStore         = domaininterfaces.RatchetStore
	IdentityService      = domaininterfaces.IdentityService
	PreKeyService        = domaininterfaces.PreKeyService
	SessionService       = domaininterfaces.SessionService
	MessageService       = domaininterfaces.MessageService
)

var (
	MustX25519Public   = domaintypes.MustX25519Public
	MustX25519Private  = domaintypes.MustX25519Private
	MustEd25519Public  = domaintypes.MustEd25519Public
	MustEd25519Private = domaintypes.MustEd25519Private
)
