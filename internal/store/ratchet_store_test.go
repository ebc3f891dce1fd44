package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/domain"
	"ciphera/internal/store"
)

func TestRatchetStore_SaveLoad_RoundTrip(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	conv := domain.Conversation{
		ID:          "alice",
		Peer:        "alice",
		CreatedUnix: 1_700_000_000,
		Ratchet: domain.RatchetState{
			DHSelfPub: domain.X25519Public{1},
			RootKey:   [32]byte{2},
		},
	}

	require.NoError(t, s.SaveConversation("pw", conv.ID, conv))

	got, ok, err := s.LoadConversation("pw", conv.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, conv, got)
}

func TestRatchetStore_LoadMissing_NotFound(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	_, ok, err := s.LoadConversation("pw", "nobody")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRatchetStore_WrongPassphraseFails(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	conv := domain.Conversation{ID: "alice", Peer: "alice"}
	require.NoError(t, s.SaveConversation("right", conv.ID, conv))

	_, _, err := s.LoadConversation("wrong", conv.ID)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrStoreAuthFail)
}

func TestRatchetStore_OnDiskFileIsNotPlaintextJSON(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	conv := domain.Conversation{
		ID:   "alice",
		Peer: "alice",
		Ratchet: domain.RatchetState{
			RootKey: [32]byte{0xAA, 0xBB, 0xCC, 0xDD},
		},
	}
	require.NoError(t, s.SaveConversation("pw", conv.ID, conv))

	raw, err := os.ReadFile(filepath.Join(home, "conversations.json.enc"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "alice")
}

func TestRatchetStore_MultiplePeersIndependent(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	a := domain.Conversation{ID: "alice", Peer: "alice"}
	b := domain.Conversation{ID: "bob", Peer: "bob"}

	require.NoError(t, s.SaveConversation("pw", a.ID, a))
	require.NoError(t, s.SaveConversation("pw", b.ID, b))

	gotA, ok, err := s.LoadConversation("pw", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a, gotA)

	gotB, ok, err := s.LoadConversation("pw", "bob")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b, gotB)
}

func TestRatchetStore_DeleteConversation(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	a := domain.Conversation{ID: "alice", Peer: "alice"}
	b := domain.Conversation{ID: "bob", Peer: "bob"}
	require.NoError(t, s.SaveConversation("pw", a.ID, a))
	require.NoError(t, s.SaveConversation("pw", b.ID, b))

	require.NoError(t, s.DeleteConversation("pw", "alice"))

	_, ok, err := s.LoadConversation("pw", "alice")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.LoadConversation("pw", "bob")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRatchetStore_DeleteMissingConversationIsNotAnError(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	require.NoError(t, s.DeleteConversation("pw", "nobody"))
}

func TestRatchetStore_ListConversationIDs(t *testing.T) {
	home := t.TempDir()
	s := store.NewRatchetFileStore(home)

	require.NoError(t, s.SaveConversation("pw", "alice", domain.Conversation{ID: "alice", Peer: "alice"}))
	require.NoError(t, s.SaveConversation("pw", "bob", domain.Conversation{ID: "bob", Peer: "bob"}))

	ids, err := s.ListConversationIDs("pw")
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.ConversationID{"alice", "bob"}, ids)
}
