package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/domain"
	"ciphera/internal/store"
)

func TestPreKeyStore_SignedPreKey_RoundTrip(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	priv := domain.X25519Private{9}
	pub := domain.X25519Public{10}
	sig := []byte("signature-bytes")

	require.NoError(t, s.SaveSignedPreKey("pw", "spk-1", priv, pub, sig, 1_700_000_000))

	gotPriv, gotPub, gotSig, createdUnix, ok, err := s.LoadSignedPreKey("pw", "spk-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, priv, gotPriv)
	require.Equal(t, pub, gotPub)
	require.Equal(t, sig, gotSig)
	require.Equal(t, int64(1_700_000_000), createdUnix)
}

func TestPreKeyStore_SignedPreKey_NotFound(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	_, _, _, _, ok, err := s.LoadSignedPreKey("pw", "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPreKeyStore_SignedPreKey_WrongPassphraseFails(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	require.NoError(t, s.SaveSignedPreKey("right", "spk-1", domain.X25519Private{1}, domain.X25519Public{2}, nil, 0))

	_, _, _, _, _, err := s.LoadSignedPreKey("wrong", "spk-1")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrStoreAuthFail)
}

func TestPreKeyStore_PeekOneTimePreKeyPublic_LowestIDNonDestructive(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	pairs := []domain.OneTimePreKeyPair{
		{ID: "opk-003", Priv: domain.X25519Private{3}, Pub: domain.X25519Public{3}},
		{ID: "opk-001", Priv: domain.X25519Private{1}, Pub: domain.X25519Public{1}},
		{ID: "opk-002", Priv: domain.X25519Private{2}, Pub: domain.X25519Public{2}},
	}
	require.NoError(t, s.SaveOneTimePreKeys("pw", pairs))

	pub, ok, err := s.PeekOneTimePreKeyPublic("pw")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.OneTimePreKeyID("opk-001"), pub.ID)
	require.Equal(t, domain.X25519Public{1}, pub.Pub)

	pub, ok, err = s.PeekOneTimePreKeyPublic("pw")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.OneTimePreKeyID("opk-001"), pub.ID)
}

func TestPreKeyStore_ConsumeOneTimePreKeyByID_AtMostOnce(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	require.NoError(t, s.SaveOneTimePreKeys("pw", []domain.OneTimePreKeyPair{
		{ID: "opk-001", Priv: domain.X25519Private{1}, Pub: domain.X25519Public{1}},
	}))

	priv, pub, ok, err := s.ConsumeOneTimePreKeyByID("pw", "opk-001")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.X25519Private{1}, priv)
	require.Equal(t, domain.X25519Public{1}, pub)

	_, _, ok, err = s.ConsumeOneTimePreKeyByID("pw", "opk-001")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPreKeyStore_ConsumeOneTimePreKeyByID_UnknownIDNotFound(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	_, _, ok, err := s.ConsumeOneTimePreKeyByID("pw", "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPreKeyStore_ListOneTimePreKeyPublics_SortedByID(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	require.NoError(t, s.SaveOneTimePreKeys("pw", []domain.OneTimePreKeyPair{
		{ID: "opk-003", Priv: domain.X25519Private{3}, Pub: domain.X25519Public{3}},
		{ID: "opk-001", Priv: domain.X25519Private{1}, Pub: domain.X25519Public{1}},
	}))

	list, err := s.ListOneTimePreKeyPublics("pw")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, domain.OneTimePreKeyID("opk-001"), list[0].ID)
	require.Equal(t, domain.OneTimePreKeyID("opk-003"), list[1].ID)
}

func TestPreKeyStore_CurrentSignedPreKeyID_RoundTrip(t *testing.T) {
	home := t.TempDir()
	s := store.NewPreKeyFileStore(home)

	_, ok, err := s.CurrentSignedPreKeyID()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SetCurrentSignedPreKeyID("spk-7"))

	id, ok, err := s.CurrentSignedPreKeyID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.SignedPreKeyID("spk-7"), id)
}
