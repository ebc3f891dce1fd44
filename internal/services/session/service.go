package session

import (
	"context"
	"fmt"
	"time"

	"ciphera/internal/domain"
	"ciphera/internal/protocol/ratchet"
	"ciphera/internal/protocol/x3dh"
)

// Service runs X3DH initiation and seeds Double Ratchet conversations.
//
// This service handles:
//   - Retrieving our own identity keys.
//   - Fetching the peer's prekey bundle from the relay.
//   - Running the X3DH key agreement as the initiator.
//   - Seeding the Double Ratchet from the derived root key.
//   - Persisting the resulting conversation for later message exchange.
type Service struct {
	idStore      domain.IdentityStore
	ratchetStore domain.RatchetStore
	relayClient  domain.RelayClient
}

// New constructs a Service with the given stores and relay client.
func New(
	idStore domain.IdentityStore,
	ratchetStore domain.RatchetStore,
	relayClient domain.RelayClient,
) *Service {
	return &Service{
		idStore:      idStore,
		ratchetStore: ratchetStore,
		relayClient:  relayClient,
	}
}

// InitiateSession runs X3DH against the peer's prekey bundle, seeds a fresh
// Double Ratchet conversation from the derived root key, and persists it,
// replacing any conversation already held with peer. The returned
// conversation carries a PendingPreKeyMessage: the caller's first envelope
// to peer must include it so the peer can bootstrap the same root key on
// its side. If the peer independently initiated at the same time, the
// collision is resolved later, when message.Service.ReceiveMessages sees
// an inbound PreKeyMessage against a conversation this side also
// initiated.
func (s *Service) InitiateSession(
	ctx context.Context,
	passphrase string,
	me domain.Username,
	peer domain.Username,
) (domain.Conversation, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("session: load identity: %w", err)
	}

	bundle, err := s.relayClient.FetchPreKeyBundle(ctx, peer)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("session: fetch bundle: %w", err)
	}

	rootKey, spkID, opkID, ephPriv, ephPub, err := x3dh.InitiatorRoot(id, bundle)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("session: x3dh: %w", err)
	}

	ratchetState, err := ratchet.InitAsInitiator(rootKey, ephPriv, ephPub, bundle.SignedPreKey.Pub)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("session: init ratchet: %w", err)
	}

	conversationID := domain.ConversationID(peer.String())
	conversation := domain.Conversation{
		ID:          conversationID,
		Peer:        peer,
		Ratchet:     ratchetState,
		CreatedUnix: time.Now().Unix(),
		PendingPreKeyMessage: &domain.PreKeyMessage{
			InitiatorIdentityKey: id.XPub,
			EphemeralKey:         ephPub,
			SignedPreKeyID:       spkID,
			OneTimePreKeyID:      opkID,
		},
	}

	if err := s.ratchetStore.SaveConversation(passphrase, conversationID, conversation); err != nil {
		return domain.Conversation{}, fmt.Errorf("session: save conversation: %w", err)
	}

	return conversation, nil
}

// GetConversation retrieves a stored conversation for peer.
func (s *Service) GetConversation(passphrase string, peer domain.Username) (domain.Conversation, bool, error) {
	return s.ratchetStore.LoadConversation(passphrase, domain.ConversationID(peer.String()))
}

// DeleteSession destroys the conversation held with peer, if any.
func (s *Service) DeleteSession(passphrase string, peer domain.Username) error {
	return s.ratchetStore.DeleteConversation(passphrase, domain.ConversationID(peer.String()))
}

// ListSessions returns every peer a conversation is currently held with.
func (s *Service) ListSessions(passphrase string) ([]domain.Username, error) {
	ids, err := s.ratchetStore.ListConversationIDs(passphrase)
	if err != nil {
		return nil, err
	}
	peers := make([]domain.Username, 0, len(ids))
	for _, id := range ids {
		peers = append(peers, domain.Username(id.String()))
	}
	return peers, nil
}

var _ domain.SessionService = (*Service)(nil)
