package prekey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
	"ciphera/internal/protocol/x3dh"
)

// Service implements domain.PreKeyService, generating and publishing
// signed and one-time prekeys on behalf of a local identity.
type Service struct {
	idStore      domain.IdentityStore
	pkStore      domain.PreKeyStore
	relay        domain.RelayClient
	accountStore domain.AccountStore
	bundleCache  domain.PreKeyBundleStore
	serverURL    string
}

// New returns a Service backed by the given stores and relay client.
// serverURL identifies the relay being published to; it is stamped into
// every bundle this Service publishes and recorded in the local account
// profile alongside the canary generated for that bundle. bundleCache keeps a local
// copy of the last bundle published, so fingerprint and diagnostic tooling
// can inspect it without a round trip to the relay.
func New(
	idStore domain.IdentityStore,
	pkStore domain.PreKeyStore,
	relay domain.RelayClient,
	accountStore domain.AccountStore,
	bundleCache domain.PreKeyBundleStore,
	serverURL string,
) *Service {
	return &Service{
		idStore:      idStore,
		pkStore:      pkStore,
		relay:        relay,
		accountStore: accountStore,
		bundleCache:  bundleCache,
		serverURL:    serverURL,
	}
}

var _ domain.PreKeyService = (*Service)(nil)

// GenerateAndStorePreKeys rotates the signed prekey and tops up the
// one-time prekey pool with count fresh keys, persisting all of it under
// passphrase and marking the new signed prekey current.
func (s *Service) GenerateAndStorePreKeys(passphrase string, count int) (
	signedPub domain.X25519Public,
	oneTimePubs []domain.X25519Public,
	err error,
) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return signedPub, nil, fmt.Errorf("prekey: load identity: %w", err)
	}

	spkID := domain.SignedPreKeyID(uuid.NewString())
	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		return signedPub, nil, fmt.Errorf("prekey: generate signed prekey: %w", err)
	}
	sig := crypto.SignEd25519(id.EdPriv, spkPub.Slice())
	createdUnix := time.Now().Unix()

	if err := s.pkStore.SaveSignedPreKey(passphrase, spkID, spkPriv, spkPub, sig, createdUnix); err != nil {
		return signedPub, nil, fmt.Errorf("prekey: save signed prekey: %w", err)
	}
	if err := s.pkStore.SetCurrentSignedPreKeyID(spkID); err != nil {
		return signedPub, nil, fmt.Errorf("prekey: set current signed prekey: %w", err)
	}

	pairs := make([]domain.OneTimePreKeyPair, 0, count)
	pubs := make([]domain.X25519Public, 0, count)
	for i := 0; i < count; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return signedPub, nil, fmt.Errorf("prekey: generate one-time prekey: %w", err)
		}
		pairs = append(pairs, domain.OneTimePreKeyPair{
			ID:   domain.OneTimePreKeyID(uuid.NewString()),
			Priv: priv,
			Pub:  pub,
		})
		pubs = append(pubs, pub)
	}
	if len(pairs) > 0 {
		if err := s.pkStore.SaveOneTimePreKeys(passphrase, pairs); err != nil {
			return signedPub, nil, fmt.Errorf("prekey: save one-time prekeys: %w", err)
		}
	}

	return spkPub, pubs, nil
}

// PublishBundle assembles the current signed prekey and one unused
// one-time prekey into a signed PreKeyBundle and registers it with the
// relay.
func (s *Service) PublishBundle(ctx context.Context, passphrase string, me domain.Username) (domain.PreKeyBundle, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: load identity: %w", err)
	}

	spkID, ok, err := s.pkStore.CurrentSignedPreKeyID()
	if err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: current signed prekey: %w", err)
	}
	if !ok {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: no signed prekey provisioned: %w", domain.ErrBadBundle)
	}

	_, spkPub, sig, createdUnix, ok, err := s.pkStore.LoadSignedPreKey(passphrase, spkID)
	if err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: load signed prekey: %w", err)
	}
	if !ok {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: signed prekey %s missing: %w", spkID, domain.ErrBadBundle)
	}

	var otp *domain.OneTimePreKeyPublic
	if peeked, ok, err := s.pkStore.PeekOneTimePreKeyPublic(passphrase); err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: peek one-time prekey: %w", err)
	} else if ok {
		otp = &peeked
	}

	bundle := x3dh.BuildBundle(id, me, domain.SignedPreKey{
		ID:          spkID,
		Pub:         spkPub,
		Signature:   sig,
		CreatedUnix: createdUnix,
	}, otp)

	// ServerURL and Canary are relay bookkeeping, excluded from the bundle's
	// own signature; stamp them on after BuildBundle rather than before.
	canary := uuid.NewString()
	bundle.ServerURL = s.serverURL
	bundle.Canary = canary

	if err := s.relay.RegisterPreKeyBundle(ctx, bundle); err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: register bundle: %w", err)
	}

	if err := s.accountStore.SaveAccountProfile(domain.AccountProfile{
		ServerURL: s.serverURL,
		Username:  me,
		Canary:    canary,
	}); err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: save account profile: %w", err)
	}

	if err := s.bundleCache.SavePreKeyBundle(bundle); err != nil {
		return domain.PreKeyBundle{}, fmt.Errorf("prekey: cache bundle: %w", err)
	}

	return bundle, nil
}
