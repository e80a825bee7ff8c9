// Package sui executes swaps on Sui: base64 transaction-block bytes signed
// and executed through the wallet session, with finality read from the
// transaction block's effects.
package sui

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/block-vision/sui-go-sdk/models"
	suisdk "github.com/block-vision/sui-go-sdk/sui"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/poll"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// transactionBlockAPI is the slice of the Sui client the adapter needs.
type transactionBlockAPI interface {
	SuiGetTransactionBlock(ctx context.Context, req models.SuiGetTransactionBlockRequest) (models.SuiTransactionBlockResponse, error)
}

// Adapter implements chains.Adapter for Sui.
type Adapter struct {
	client  transactionBlockAPI
	pollCfg poll.Config
	logger  *slog.Logger
}

var _ chains.Adapter = (*Adapter)(nil)

// NewAdapter creates a Sui adapter over one JSON-RPC endpoint.
func NewAdapter(endpoint string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client: suisdk.NewSuiClient(endpoint),
		pollCfg: poll.Config{
			Interval:    constants.ReceiptPollInterval,
			MaxAttempts: constants.ReceiptPollMaxAttempts,
			OnTimeout:   poll.FailOnTimeout,
		},
		logger: logger,
	}
}

// Ecosystem implements chains.Adapter.
func (a *Adapter) Ecosystem() constants.Ecosystem {
	return constants.EcosystemSui
}

// BuildAndSign implements chains.Adapter: the payload is base64 transaction
// bytes which the wallet session deserializes, signs and executes as one
// operation, returning the digest.
func (a *Adapter) BuildAndSign(ctx context.Context, chainIndex int, payload *types.UnsignedPayload, signer chains.Signer) (string, error) {
	if payload == nil || payload.Sui == nil {
		return "", swaperr.New(swaperr.BuildTransactionFailed, "missing Sui transaction payload")
	}
	suiSigner, ok := signer.(chains.SuiSigner)
	if !ok {
		return "", swaperr.New(swaperr.ProviderUnavailable, "no Sui signer connected")
	}

	if _, err := base64.StdEncoding.DecodeString(payload.Sui.Base64Tx); err != nil {
		return "", swaperr.Wrap(swaperr.BuildTransactionFailed, "invalid base64 transaction payload", err)
	}

	digest, err := suiSigner.SignAndExecute(ctx, payload.Sui.Base64Tx)
	if err != nil {
		return "", swaperr.Classify(err)
	}

	a.logger.Info("swap transaction submitted", "ecosystem", "sui", "digest", digest)
	return digest, nil
}

// AwaitFinality implements chains.Adapter: waits for the transaction block
// with effects and checks the execution status. Hitting the wait ceiling is
// fatal on Sui.
func (a *Adapter) AwaitFinality(ctx context.Context, chainIndex int, txID string) error {
	result, err := poll.Run(ctx, a.pollCfg,
		func(ctx context.Context) (*models.SuiTransactionBlockResponse, error) {
			resp, err := a.client.SuiGetTransactionBlock(ctx, models.SuiGetTransactionBlockRequest{
				Digest: txID,
				Options: models.SuiTransactionBlockOptions{
					ShowEffects: true,
				},
			})
			if err != nil {
				return nil, err
			}
			return &resp, nil
		},
		func(resp *models.SuiTransactionBlockResponse) bool {
			return resp != nil && resp.Effects.Status.Status != ""
		},
	)
	if err != nil {
		if err == poll.ErrTimeout {
			return swaperr.Wrap(swaperr.ConfirmationTimeout,
				fmt.Sprintf("transaction %s effects not available in time", txID), err)
		}
		return swaperr.Classify(err)
	}

	status := result.Value.Effects.Status
	if status.Status != "success" {
		return swaperr.New(swaperr.TransactionFailedOnChain,
			fmt.Sprintf("transaction %s failed on chain: %s", txID, status.Error))
	}
	return nil
}
