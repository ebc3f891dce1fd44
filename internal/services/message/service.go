package message

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"ciphera/internal/domain"
	"ciphera/internal/protocol/ratchet"
	"ciphera/internal/protocol/x3dh"
)

// Service sends and receives messages over the relay using Double Ratchet.
//
// High-level flow:
//   - Send: if no conversation exists yet, the session service runs X3DH as
//     initiator and seeds a fresh Double Ratchet; the resulting
//     PendingPreKeyMessage is attached to the first outbound envelope so the
//     peer can bootstrap its side, then cleared once sent.
//   - Receive: fetch envelopes, bootstrap a conversation as responder when an
//     inbound envelope carries a PreKeyMessage and none exists yet, decrypt
//     in order, persist ratchet state, then ack processed messages.
type Service struct {
	idStore        domain.IdentityStore
	prekeyStore    domain.PreKeyStore
	ratchetStore   domain.RatchetStore
	sessionService domain.SessionService
	relayClient    domain.RelayClient
	accountStore   domain.AccountStore
	serverURL      *url.URL
}

// New constructs a Service with the given stores, services, and relay
// client. serverURL identifies which registered account profile to check
// the canary of before sending; with an empty or unparsable value,
// SendMessage fails with a configuration error.
func New(
	idStore domain.IdentityStore,
	prekeyStore domain.PreKeyStore,
	ratchetStore domain.RatchetStore,
	sessionService domain.SessionService,
	relayClient domain.RelayClient,
	accountStore domain.AccountStore,
	serverURL string,
) *Service {
	var parsed *url.URL
	if serverURL != "" {
		if u, err := url.Parse(serverURL); err == nil && u.Scheme != "" && u.Host != "" {
			parsed = u
		}
	}

	return &Service{
		idStore:        idStore,
		prekeyStore:    prekeyStore,
		ratchetStore:   ratchetStore,
		sessionService: sessionService,
		relayClient:    relayClient,
		accountStore:   accountStore,
		serverURL:      parsed,
	}
}

var _ domain.MessageService = (*Service)(nil)

// SendMessage encrypts and posts plaintext to the peer named by to.
//
// Before sending, it compares the relay's current canary for from against
// the one recorded at registration time: a mismatch means the relay's
// record of this account was reset (or is being impersonated) and the send
// is refused rather than silently handed to a stranger.
func (s *Service) SendMessage(
	ctx context.Context,
	passphrase string,
	from domain.Username,
	to domain.Username,
	plaintext []byte,
) error {
	if s.serverURL == nil {
		return fmt.Errorf("message: relay url is not configured or invalid")
	}

	profile, found, err := s.accountStore.LoadAccountProfile(s.serverURL.String(), from)
	if err != nil {
		return fmt.Errorf("message: load account profile: %w", err)
	}
	if !found {
		return fmt.Errorf("message: no account profile for %s on %s; run register first", from, s.serverURL)
	}

	canary, err := s.relayClient.FetchAccountCanary(ctx, from)
	if err != nil {
		return fmt.Errorf("message: fetch account canary: %w", err)
	}
	if canary != profile.Canary {
		return fmt.Errorf("message: relay canary mismatch for %s: expected %q got %q", from, profile.Canary, canary)
	}

	conversationID := domain.ConversationID(to.String())
	conversation, found, err := s.ratchetStore.LoadConversation(passphrase, conversationID)
	if err != nil {
		return fmt.Errorf("message: load conversation: %w", err)
	}
	if !found {
		conversation, err = s.sessionService.InitiateSession(ctx, passphrase, from, to)
		if err != nil {
			return fmt.Errorf("message: initiate session: %w", err)
		}
	}

	// PendingPreKeyMessage is attached to every envelope we send on a
	// freshly-initiated conversation until one has been accepted by the
	// relay, then cleared so every later envelope omits it.
	preKeyMessage := conversation.PendingPreKeyMessage

	header, ciphertext, err := ratchet.Encrypt(&conversation.Ratchet, nil, plaintext)
	if err != nil {
		return fmt.Errorf("message: encrypt: %w", err)
	}

	if err := s.ratchetStore.SaveConversation(passphrase, conversationID, conversation); err != nil {
		return fmt.Errorf("message: save conversation: %w", err)
	}

	envelope := domain.Envelope{
		Version:            1,
		Sender:             from,
		Recipient:          to,
		Header:             header,
		Ciphertext:         ciphertext,
		PreKeyMessage:      preKeyMessage,
		TimestampUnixMilli: time.Now().UnixMilli(),
	}
	if err := s.relayClient.SendMessage(ctx, envelope); err != nil {
		return fmt.Errorf("message: send: %w", err)
	}
	if preKeyMessage != nil {
		conversation.PendingPreKeyMessage = nil
		if err := s.ratchetStore.SaveConversation(passphrase, conversationID, conversation); err != nil {
			return fmt.Errorf("message: save conversation: %w", err)
		}
	}
	return nil
}

// ReceiveMessages fetches up to limit pending envelopes for me, decrypts
// each in order, and acks only the prefix that decrypted successfully, so a
// mid-stream failure leaves the rest queued for a future call rather than
// silently discarding them. An inbound envelope carrying its own
// PreKeyMessage against a conversation this side already initiated is a
// simultaneous-initiation collision, resolved by username comparison.
func (s *Service) ReceiveMessages(
	ctx context.Context,
	passphrase string,
	me domain.Username,
	limit int,
) (messages []domain.PlaintextMessage, err error) {
	envelopes, err := s.relayClient.FetchMessages(ctx, me, limit)
	if err != nil {
		return nil, fmt.Errorf("message: fetch messages: %w", err)
	}

	messages = make([]domain.PlaintextMessage, 0, len(envelopes))
	processed := 0
	defer func() {
		if processed == 0 {
			return
		}
		if ackErr := s.relayClient.AckMessages(ctx, me, processed); ackErr != nil && err == nil {
			err = fmt.Errorf("message: ack %d messages: %w", processed, ackErr)
		}
	}()

	for _, envelope := range envelopes {
		if envelope.Version != 1 {
			return messages, fmt.Errorf("message: envelope from %s: %w", envelope.Sender, domain.ErrUnsupportedVersion)
		}

		conversationID := domain.ConversationID(envelope.Sender.String())
		conversation, found, err := s.ratchetStore.LoadConversation(passphrase, conversationID)
		if err != nil {
			return messages, fmt.Errorf("message: load conversation: %w", err)
		}

		switch {
		case !found:
			if envelope.PreKeyMessage == nil {
				return messages, fmt.Errorf("message: first envelope from %s has no prekey message: %w", envelope.Sender, domain.ErrSessionNotFound)
			}
			conversation, err = s.bootstrapResponder(passphrase, conversationID, envelope.Sender, *envelope.PreKeyMessage, envelope.Header.DHPub)
			if err != nil {
				return messages, err
			}

		case envelope.PreKeyMessage != nil && conversation.Ratchet.Initiator:
			// Both sides initiated a session with each other at once. The
			// side whose username sorts first is the canonical initiator
			// and keeps its own session; the other discards its session
			// and adopts the peer's handshake instead, so both ends
			// converge on a single winner.
			if me.String() < envelope.Sender.String() {
				// We are canonical; this colliding envelope is dropped.
				// The peer converges once it processes our own
				// PendingPreKeyMessage.
				processed++
				continue
			}
			conversation, err = s.bootstrapResponder(passphrase, conversationID, envelope.Sender, *envelope.PreKeyMessage, envelope.Header.DHPub)
			if err != nil {
				return messages, err
			}
		}

		plaintext, err := ratchet.Decrypt(&conversation.Ratchet, nil, envelope.Header, envelope.Ciphertext)
		if err != nil {
			return messages, fmt.Errorf("message: decrypt from %s: %w", envelope.Sender, err)
		}

		if err := s.ratchetStore.SaveConversation(passphrase, conversationID, conversation); err != nil {
			return messages, fmt.Errorf("message: save conversation: %w", err)
		}

		messages = append(messages, domain.PlaintextMessage{Sender: envelope.Sender, Body: plaintext})
		processed++
	}

	return messages, nil
}

// bootstrapResponder runs X3DH as responder against an inbound
// PreKeyMessage and seeds a fresh Double Ratchet conversation, consuming
// the named one-time prekey if any.
func (s *Service) bootstrapResponder(
	passphrase string,
	conversationID domain.ConversationID,
	peer domain.Username,
	pm domain.PreKeyMessage,
	senderDHPub domain.X25519Public,
) (domain.Conversation, error) {
	identity, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("message: load identity: %w", err)
	}

	spkPriv, spkPub, _, _, ok, err := s.prekeyStore.LoadSignedPreKey(passphrase, pm.SignedPreKeyID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("message: load signed prekey: %w", err)
	}
	if !ok {
		return domain.Conversation{}, fmt.Errorf("message: signed prekey %s not found: %w", pm.SignedPreKeyID, domain.ErrBadBundle)
	}

	var otpPriv *domain.X25519Private
	if pm.OneTimePreKeyID != "" {
		priv, _, ok, err := s.prekeyStore.ConsumeOneTimePreKeyByID(passphrase, pm.OneTimePreKeyID)
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("message: consume one-time prekey: %w", err)
		}
		if ok {
			otpPriv = &priv
		}
	}

	rootKey, err := x3dh.ResponderRoot(identity, spkPriv, otpPriv, pm)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("message: x3dh responder root: %w", err)
	}

	ratchetState, err := ratchet.InitAsResponder(rootKey, spkPriv, spkPub, senderDHPub)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("message: init ratchet: %w", err)
	}

	return domain.Conversation{
		ID:          conversationID,
		Peer:        peer,
		Ratchet:     ratchetState,
		CreatedUnix: time.Now().Unix(),
	}, nil
}
