package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/domain"
	"ciphera/internal/store"
)

func TestBundleStore_SaveLoad_RoundTrip(t *testing.T) {
	home := t.TempDir()
	s := store.NewBundleFileStore(home)

	bundle := domain.PreKeyBundle{
		Username:    "alice",
		IdentityKey: domain.X25519Public{1},
		SigningKey:  domain.Ed25519Public{2},
		SignedPreKey: domain.SignedPreKey{
			ID:  "spk-1",
			Pub: domain.X25519Public{3},
		},
		BundleSignature: []byte("sig"),
	}
	require.NoError(t, s.SavePreKeyBundle(bundle))

	got, ok, err := s.LoadPreKeyBundle("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bundle, got)
}

func TestBundleStore_LoadMissing_NotFound(t *testing.T) {
	home := t.TempDir()
	s := store.NewBundleFileStore(home)

	_, ok, err := s.LoadPreKeyBundle("anyone")
	require.NoError(t, err)
	require.False(t, ok)
}
