package session

import (
	"context"

	"github.com/omnidex-labs/swapcore/pkg/chains"
)

// Provider is one concrete wallet integration for one ecosystem. Hosts
// register providers up front; the manager resolves the right one at connect
// time instead of re-probing wallet globals on every call.
type Provider interface {
	// Connect establishes the wallet session and returns the connected
	// address plus the signing handle. The call may block on a wallet UI
	// prompt; cancellation is the caller's context.
	Connect(ctx context.Context) (address string, signer chains.Signer, err error)

	// Disconnect tears the wallet session down. Best effort; errors are
	// logged, not propagated.
	Disconnect(ctx context.Context) error
}
