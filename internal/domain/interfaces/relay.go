package interfaces

import (
	"context"

	domaintypes "ciphera/internal/domain/types"
)

// RelayClient is how the core talks to the central relay server. Every
// method takes a context so callers can bound or cancel network I/O; the
// core never blocks indefinitely on an external collaborator.
type RelayClient interface {
	RegisterPreKeyBundle(ctx context.Context, bundle domaintypes.PreKeyBundle) error
	FetchPreKeyBundle(
		ctx context.Context,
		username domaintypes.Username,
	) (domaintypes.PreKeyBundle, error)

	SendMessage(ctx context.Context, envelope domaintypes.Envelope) error
	FetchMessages(
		ctx context.Context,
		username domaintypes.Username,
		limit int,
	) ([]domaintypes.Envelope, error)
	AckMessages(ctx context.Context, username domaintypes.Username, count int) error
	FetchAccountCanary(ctx context.Context, username domaintypes.Username) (string, error)
}
