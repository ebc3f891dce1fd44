package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/domain"
	"ciphera/internal/store"
)

func TestAccountStore_SaveLoad_RoundTrip(t *testing.T) {
	home := t.TempDir()
	s := store.NewAccountFileStore(home)

	profile := domain.AccountProfile{
		ServerURL: "https://relay.example",
		Username:  "alice",
		Canary:    "canary-1",
	}
	require.NoError(t, s.SaveAccountProfile(profile))

	got, ok, err := s.LoadAccountProfile("https://relay.example", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, profile, got)
}

func TestAccountStore_DistinctServers_DoNotCollide(t *testing.T) {
	home := t.TempDir()
	s := store.NewAccountFileStore(home)

	p1 := domain.AccountProfile{ServerURL: "https://a.example", Username: "alice", Canary: "c1"}
	p2 := domain.AccountProfile{ServerURL: "https://b.example", Username: "alice", Canary: "c2"}
	require.NoError(t, s.SaveAccountProfile(p1))
	require.NoError(t, s.SaveAccountProfile(p2))

	got1, ok, err := s.LoadAccountProfile("https://a.example", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c1", got1.Canary)

	got2, ok, err := s.LoadAccountProfile("https://b.example", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c2", got2.Canary)
}

func TestAccountStore_LoadMissing_NotFound(t *testing.T) {
	home := t.TempDir()
	s := store.NewAccountFileStore(home)

	_, ok, err := s.LoadAccountProfile("https://relay.example", "ghost")
	require.NoError(t, err)
	require.False(t, ok)
}
