package ratchet_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
	"ciphera/internal/protocol/ratchet"
)

func genKeyPair(t *testing.T) (domain.X25519Private, domain.X25519Public) {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	return priv, pub
}

func establishPair(t *testing.T) (alice, bob domain.RatchetState) {
	t.Helper()
	var rootKey [32]byte
	for i := range rootKey {
		rootKey[i] = 0x42
	}

	aliceEphPriv, aliceEphPub := genKeyPair(t)
	bobSPKPriv, bobSPKPub := genKeyPair(t)

	alice, err := ratchet.InitAsInitiator(rootKey, aliceEphPriv, aliceEphPub, bobSPKPub)
	require.NoError(t, err)

	bob, err = ratchet.InitAsResponder(rootKey, bobSPKPriv, bobSPKPub, aliceEphPub)
	require.NoError(t, err)

	return alice, bob
}

func TestRoundTrip_SingleMessage(t *testing.T) {
	alice, bob := establishPair(t)

	header, ct, err := ratchet.Encrypt(&alice, nil, []byte("hi"))
	require.NoError(t, err)

	pt, err := ratchet.Decrypt(&bob, nil, header, ct)
	require.NoError(t, err)
	require.Equal(t, "hi", string(pt))
}

func TestRoundTrip_ManyMessagesInOrder(t *testing.T) {
	alice, bob := establishPair(t)

	for i := 0; i < 10; i++ {
		header, ct, err := ratchet.Encrypt(&alice, nil, []byte("msg"))
		require.NoError(t, err)
		pt, err := ratchet.Decrypt(&bob, nil, header, ct)
		require.NoError(t, err)
		require.Equal(t, "msg", string(pt))
	}
}

func TestOutOfOrder_WithinSingleChain(t *testing.T) {
	alice, bob := establishPair(t)

	type sent struct {
		header domain.Header
		ct     []byte
	}
	var msgs []sent
	for i := 0; i < 5; i++ {
		h, ct, err := ratchet.Encrypt(&alice, nil, []byte{byte(i)})
		require.NoError(t, err)
		msgs = append(msgs, sent{h, ct})
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		pt, err := ratchet.Decrypt(&bob, nil, msgs[i].header, msgs[i].ct)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, pt)
	}
}

func TestDHRatchetInterleave(t *testing.T) {
	alice, bob := establishPair(t)

	h1, ct1, err := ratchet.Encrypt(&alice, nil, []byte("a1"))
	require.NoError(t, err)
	pt1, err := ratchet.Decrypt(&bob, nil, h1, ct1)
	require.NoError(t, err)
	require.Equal(t, "a1", string(pt1))

	h2, ct2, err := ratchet.Encrypt(&bob, nil, []byte("b1"))
	require.NoError(t, err)
	pt2, err := ratchet.Decrypt(&alice, nil, h2, ct2)
	require.NoError(t, err)
	require.Equal(t, "b1", string(pt2))

	h3, ct3, err := ratchet.Encrypt(&alice, nil, []byte("a2"))
	require.NoError(t, err)
	pt3, err := ratchet.Decrypt(&bob, nil, h3, ct3)
	require.NoError(t, err)
	require.Equal(t, "a2", string(pt3))
}

func TestTamperedCiphertext_FailsAuth(t *testing.T) {
	alice, bob := establishPair(t)

	header, ct, err := ratchet.Encrypt(&alice, nil, []byte("hi"))
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xFF

	_, err = ratchet.Decrypt(&bob, nil, header, ct)
	require.ErrorIs(t, err, domain.ErrAuthFail)
}

func TestReplayedMessage_Rejected(t *testing.T) {
	alice, bob := establishPair(t)

	header, ct, err := ratchet.Encrypt(&alice, nil, []byte("hi"))
	require.NoError(t, err)

	_, err = ratchet.Decrypt(&bob, nil, header, ct)
	require.NoError(t, err)

	_, err = ratchet.Decrypt(&bob, nil, header, ct)
	require.ErrorIs(t, err, domain.ErrReplay)
}

func TestTooManySkipped_Rejected(t *testing.T) {
	alice, bob := establishPair(t)

	var last domain.Header
	var lastCT []byte
	for i := 0; i < 1002; i++ {
		h, ct, err := ratchet.Encrypt(&alice, nil, []byte{byte(i)})
		require.NoError(t, err)
		last, lastCT = h, ct
	}

	_, err := ratchet.Decrypt(&bob, nil, last, lastCT)
	require.ErrorIs(t, err, domain.ErrTooManySkipped)
}
