package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/domain"
	"ciphera/internal/store"
)

func TestIdentityStore_SaveLoad_RoundTrip(t *testing.T) {
	home := t.TempDir()
	s := store.NewIdentityFileStore(home)

	id := domain.Identity{
		XPub:   domain.X25519Public{1},
		XPriv:  domain.X25519Private{2},
		EdPub:  domain.Ed25519Public{3},
		EdPriv: domain.Ed25519Private{4},
	}

	require.NoError(t, s.SaveIdentity("correct horse", id))

	got, err := s.LoadIdentity("correct horse")
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestIdentityStore_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	s := store.NewIdentityFileStore(home)

	id := domain.Identity{XPub: domain.X25519Public{1}, XPriv: domain.X25519Private{2}}
	require.NoError(t, s.SaveIdentity("correct", id))

	_, err := s.LoadIdentity("wrong")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrStoreAuthFail)
}

func TestIdentityStore_RefusesOverwrite(t *testing.T) {
	home := t.TempDir()
	s := store.NewIdentityFileStore(home)

	id := domain.Identity{XPub: domain.X25519Public{1}, XPriv: domain.X25519Private{2}}
	require.NoError(t, s.SaveIdentity("pass", id))

	err := s.SaveIdentity("pass", id)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrStoreIO)
}

func TestIdentityStore_MissingFile_Fails(t *testing.T) {
	home := t.TempDir()
	s := store.NewIdentityFileStore(home)

	_, err := s.LoadIdentity("anything")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrStoreIO)
}
