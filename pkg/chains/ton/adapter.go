// Package ton executes swaps on TON. A swap is one outbound message with a
// base64 BOC body sent through the connected wallet. TON offers no
// synchronous finality signal to the sender, so the adapter waits a fixed
// grace period after submission and then declares completion. That is a
// documented accuracy gap, not a guarantee; callers must not read "complete"
// as verified settlement here.
package ton

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// Adapter implements chains.Adapter for TON.
type Adapter struct {
	grace  time.Duration
	logger *slog.Logger
}

var _ chains.Adapter = (*Adapter)(nil)

// NewAdapter creates a TON adapter.
func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		grace:  constants.TONCompletionGracePause,
		logger: logger,
	}
}

// Ecosystem implements chains.Adapter.
func (a *Adapter) Ecosystem() constants.Ecosystem {
	return constants.EcosystemTON
}

// BuildAndSign implements chains.Adapter: validates the destination address
// and the BOC body, then sends the message through the wallet. The returned
// identifier is the BOC cell hash; TON wallets do not report a transaction
// hash at send time.
func (a *Adapter) BuildAndSign(ctx context.Context, chainIndex int, payload *types.UnsignedPayload, signer chains.Signer) (string, error) {
	if payload == nil || payload.TON == nil {
		return "", swaperr.New(swaperr.BuildTransactionFailed, "missing TON message payload")
	}
	tonSigner, ok := signer.(chains.TONSigner)
	if !ok {
		return "", swaperr.New(swaperr.ProviderUnavailable, "no TON signer connected")
	}

	if _, err := address.ParseAddr(payload.TON.To); err != nil {
		return "", swaperr.Wrap(swaperr.BuildTransactionFailed,
			fmt.Sprintf("invalid TON destination %q", payload.TON.To), err)
	}

	msgID := "ton-msg"
	if payload.TON.PayloadBoc != "" {
		boc, err := base64.StdEncoding.DecodeString(payload.TON.PayloadBoc)
		if err != nil {
			return "", swaperr.Wrap(swaperr.BuildTransactionFailed, "invalid base64 BOC payload", err)
		}
		body, err := cell.FromBOC(boc)
		if err != nil {
			return "", swaperr.Wrap(swaperr.BuildTransactionFailed, "invalid BOC payload", err)
		}
		msgID = hex.EncodeToString(body.Hash())
	}

	if err := tonSigner.SendMessage(ctx, *payload.TON); err != nil {
		return "", swaperr.Classify(err)
	}

	a.logger.Info("swap message submitted", "ecosystem", "ton", "msgID", msgID)
	return msgID, nil
}

// AwaitFinality implements chains.Adapter: waits the grace period and
// reports completion unconditionally. No delivery or finality verification
// happens; see the package comment.
func (a *Adapter) AwaitFinality(ctx context.Context, chainIndex int, txID string) error {
	select {
	case <-ctx.Done():
		return swaperr.Wrap(swaperr.ConfirmationTimeout, "completion wait cancelled", ctx.Err())
	case <-time.After(a.grace):
	}

	a.logger.Debug("grace period elapsed, reporting completion", "ecosystem", "ton", "msgID", txID)
	return nil
}
