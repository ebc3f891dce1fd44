package relay_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/domain"
	"ciphera/internal/envelope"
	"ciphera/internal/relay"
)

func TestHTTP_RegisterPreKeyBundle_PostsToRegister(t *testing.T) {
	var gotPath string
	var gotBundle domain.PreKeyBundle
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBundle))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	bundle := domain.PreKeyBundle{Username: "alice"}
	require.NoError(t, c.RegisterPreKeyBundle(context.Background(), bundle))
	require.Equal(t, "/register", gotPath)
	require.Equal(t, domain.Username("alice"), gotBundle.Username)
}

func TestHTTP_FetchPreKeyBundle_GetsFromPrekeyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/prekey/bob", r.URL.Path)
		_ = json.NewEncoder(w).Encode(domain.PreKeyBundle{Username: "bob"})
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	bundle, err := c.FetchPreKeyBundle(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, domain.Username("bob"), bundle.Username)
}

func TestHTTP_FetchPreKeyBundle_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	_, err := c.FetchPreKeyBundle(context.Background(), "ghost")
	require.Error(t, err)
}

func TestHTTP_SendMessage_PostsWireEncodedEnvelopeToRecipientPath(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	err := c.SendMessage(context.Background(), domain.Envelope{Version: 1, Sender: "alice", Recipient: "bob"})
	require.NoError(t, err)
	require.Equal(t, "/msg/bob", gotPath)

	decoded, err := envelope.Unmarshal(gotBody)
	require.NoError(t, err)
	require.Equal(t, domain.Username("alice"), decoded.Sender)
}

func TestHTTP_FetchMessages_IncludesLimitQueryParamAndDecodesFrames(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		frame, err := envelope.Marshal(domain.Envelope{Version: 1, Sender: "alice"})
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode([][]byte{frame})
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	envelopes, err := c.FetchMessages(context.Background(), "bob", 10)
	require.NoError(t, err)
	require.Equal(t, "limit=10", gotQuery)
	require.Len(t, envelopes, 1)
	require.Equal(t, domain.Username("alice"), envelopes[0].Sender)
	require.Equal(t, domain.Username("bob"), envelopes[0].Recipient)
}

func TestHTTP_AckMessages_PostsCount(t *testing.T) {
	var gotBody struct {
		Count int `json:"count"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/msg/bob/ack", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	require.NoError(t, c.AckMessages(context.Background(), "bob", 3))
	require.Equal(t, 3, gotBody.Count)
}

func TestHTTP_FetchAccountCanary_ParsesCanaryField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/account/alice/canary", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"canary": "abc123"})
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, nil)
	canary, err := c.FetchAccountCanary(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "abc123", canary)
}
