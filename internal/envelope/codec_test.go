package envelope_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ciphera/internal/domain"
	"ciphera/internal/envelope"
)

func sampleEnvelope() domain.Envelope {
	var dhPub domain.X25519Public
	for i := range dhPub {
		dhPub[i] = byte(i)
	}
	return domain.Envelope{
		Version: 1,
		Sender:  "alice",
		Header: domain.Header{
			DHPub:               dhPub,
			PreviousChainLength: 3,
			Counter:             7,
		},
		Ciphertext:         []byte("not actually encrypted, just test bytes"),
		TimestampUnixMilli: 1732000000000,
	}
}

func TestMarshalUnmarshal_RoundTrips(t *testing.T) {
	env := sampleEnvelope()

	b, err := envelope.Marshal(env)
	require.NoError(t, err)

	got, err := envelope.Unmarshal(b)
	require.NoError(t, err)

	require.Equal(t, env.Version, got.Version)
	require.Equal(t, env.Sender, got.Sender)
	require.Equal(t, env.Header, got.Header)
	require.Equal(t, env.Ciphertext, got.Ciphertext)
	require.Nil(t, got.PreKeyMessage)
	require.Equal(t, env.TimestampUnixMilli, got.TimestampUnixMilli)
}

func TestMarshalUnmarshal_WithPreKeyMessage(t *testing.T) {
	env := sampleEnvelope()
	env.PreKeyMessage = &domain.PreKeyMessage{
		SignedPreKeyID:  "spk-1",
		OneTimePreKeyID: "opk-9",
	}

	b, err := envelope.Marshal(env)
	require.NoError(t, err)

	got, err := envelope.Unmarshal(b)
	require.NoError(t, err)

	require.NotNil(t, got.PreKeyMessage)
	require.Equal(t, env.PreKeyMessage.SignedPreKeyID, got.PreKeyMessage.SignedPreKeyID)
	require.Equal(t, env.PreKeyMessage.OneTimePreKeyID, got.PreKeyMessage.OneTimePreKeyID)
}

func TestMarshalUnmarshal_WithoutOneTimePreKey(t *testing.T) {
	env := sampleEnvelope()
	env.PreKeyMessage = &domain.PreKeyMessage{SignedPreKeyID: "spk-1"}

	b, err := envelope.Marshal(env)
	require.NoError(t, err)

	got, err := envelope.Unmarshal(b)
	require.NoError(t, err)
	require.Equal(t, domain.OneTimePreKeyID(""), got.PreKeyMessage.OneTimePreKeyID)
}

func TestUnmarshal_UnsupportedVersionRejected(t *testing.T) {
	env := sampleEnvelope()
	b, err := envelope.Marshal(env)
	require.NoError(t, err)
	b[0] = 2

	_, err = envelope.Unmarshal(b)
	require.ErrorIs(t, err, domain.ErrUnsupportedVersion)
}

func TestUnmarshal_TruncatedBufferErrors(t *testing.T) {
	env := sampleEnvelope()
	b, err := envelope.Marshal(env)
	require.NoError(t, err)

	_, err = envelope.Unmarshal(b[:len(b)-10])
	require.Error(t, err)
}

func TestUnmarshal_TrailingBytesRejected(t *testing.T) {
	env := sampleEnvelope()
	b, err := envelope.Marshal(env)
	require.NoError(t, err)
	b = append(b, 0xFF)

	_, err = envelope.Unmarshal(b)
	require.Error(t, err)
}

func TestEncodeHeader_MatchesFixedLayout(t *testing.T) {
	h := domain.Header{PreviousChainLength: 1, Counter: 2}
	require.Len(t, envelope.EncodeHeader(h), 32+4+4)
}
