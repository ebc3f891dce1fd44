package x3dh_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
	"ciphera/internal/protocol/x3dh"
)

func makeIdentity(t *testing.T) domain.Identity {
	t.Helper()
	xPriv, xPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	edPriv, edPub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	return domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}
}

func makeSignedPreKey(t *testing.T, identity domain.Identity, id string) (domain.X25519Private, domain.SignedPreKey) {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	sig := crypto.SignEd25519(identity.EdPriv, pub.Slice())
	return priv, domain.SignedPreKey{
		ID:          domain.SignedPreKeyID(id),
		Pub:         pub,
		Signature:   sig,
		CreatedUnix: time.Now().Unix(),
	}
}

func TestInitiatorAndResponderRoot_NoOPK(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)

	spkPriv, spk := makeSignedPreKey(t, bob, "spk-1")
	bundle := x3dh.BuildBundle(bob, "bob", spk, nil)
	require.NoError(t, x3dh.VerifyBundle(bundle))

	rkA, spkID, opkID, _, ephPub, err := x3dh.InitiatorRoot(alice, bundle)
	require.NoError(t, err)
	require.Equal(t, domain.SignedPreKeyID("spk-1"), spkID)
	require.Empty(t, opkID)

	pm := domain.PreKeyMessage{
		InitiatorIdentityKey: alice.XPub,
		EphemeralKey:         ephPub,
		SignedPreKeyID:       spkID,
	}

	rkB, err := x3dh.ResponderRoot(bob, spkPriv, nil, pm)
	require.NoError(t, err)
	require.Equal(t, rkA, rkB)
}

func TestInitiatorAndResponderRoot_WithOPK(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)

	spkPriv, spk := makeSignedPreKey(t, bob, "spk-1")
	otpPriv, otpPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	otp := &domain.OneTimePreKeyPublic{ID: "opk-1", Pub: otpPub}

	bundle := x3dh.BuildBundle(bob, "bob", spk, otp)

	rkA, spkID, opkID, _, ephPub, err := x3dh.InitiatorRoot(alice, bundle)
	require.NoError(t, err)
	require.Equal(t, domain.OneTimePreKeyID("opk-1"), opkID)

	pm := domain.PreKeyMessage{
		InitiatorIdentityKey: alice.XPub,
		EphemeralKey:         ephPub,
		SignedPreKeyID:       spkID,
		OneTimePreKeyID:      opkID,
	}

	rkB, err := x3dh.ResponderRoot(bob, spkPriv, &otpPriv, pm)
	require.NoError(t, err)
	require.Equal(t, rkA, rkB)
}

func TestVerifyBundle_RejectsTamperedSignature(t *testing.T) {
	bob := makeIdentity(t)
	_, spk := makeSignedPreKey(t, bob, "spk-1")
	bundle := x3dh.BuildBundle(bob, "bob", spk, nil)

	bundle.SignedPreKey.Pub[0] ^= 0xFF
	require.ErrorIs(t, x3dh.VerifyBundle(bundle), domain.ErrBadBundle)
}

func TestVerifyBundle_RejectsExpired(t *testing.T) {
	bob := makeIdentity(t)
	_, spk := makeSignedPreKey(t, bob, "spk-1")
	spk.CreatedUnix = time.Now().Add(-x3dh.SignedPreKeyTTL - time.Hour).Unix()
	spk.Signature = crypto.SignEd25519(bob.EdPriv, spk.Pub.Slice())

	bundle := x3dh.BuildBundle(bob, "bob", spk, nil)
	require.ErrorIs(t, x3dh.VerifyBundle(bundle), domain.ErrBundleExpired)
}
