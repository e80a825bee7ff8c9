// Package solana executes swaps on Solana. The aggregator serializes
// transactions base58 (not base64); the adapter deserializes the versioned
// envelope first and falls back to the legacy layout only when the failure
// is a deserialization error, refreshes the recent blockhash, signs through
// the wallet and waits for the confirmed commitment level.
package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// errNotVersioned marks a payload whose message is not a versioned envelope.
// It is a deserialization error, so the legacy fallback may run.
var errNotVersioned = errors.New("transaction is not a versioned envelope")

// rpcAPI is the slice of the Solana RPC client the adapter needs.
type rpcAPI interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solanago.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Adapter implements chains.Adapter for Solana.
type Adapter struct {
	client           rpcAPI
	confirmInterval  time.Duration
	confirmMaxChecks int
	logger           *slog.Logger
}

var _ chains.Adapter = (*Adapter)(nil)

// NewAdapter creates a Solana adapter over one RPC endpoint.
func NewAdapter(endpoint string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client:           rpc.New(endpoint),
		confirmInterval:  constants.SolanaConfirmInterval,
		confirmMaxChecks: constants.SolanaConfirmMaxChecks,
		logger:           logger,
	}
}

// Ecosystem implements chains.Adapter.
func (a *Adapter) Ecosystem() constants.Ecosystem {
	return constants.EcosystemSolana
}

// BuildAndSign implements chains.Adapter. The versioned deserialization path
// runs first; the legacy path runs at most once, and only when the versioned
// attempt failed to deserialize. A wallet rejection propagates unchanged and
// never triggers the fallback.
func (a *Adapter) BuildAndSign(ctx context.Context, chainIndex int, payload *types.UnsignedPayload, signer chains.Signer) (string, error) {
	if payload == nil || payload.Solana == nil {
		return "", swaperr.New(swaperr.BuildTransactionFailed, "missing Solana transaction payload")
	}
	solSigner, ok := signer.(chains.SolanaSigner)
	if !ok {
		return "", swaperr.New(swaperr.ProviderUnavailable, "no Solana signer connected")
	}

	raw, err := base58.Decode(payload.Solana.Base58Tx)
	if err != nil {
		return "", swaperr.Wrap(swaperr.BuildTransactionFailed, "invalid base58 transaction payload", err)
	}

	sig, err := a.signAndSend(ctx, raw, solSigner, decodeVersioned)
	if err == nil {
		a.logger.Info("swap transaction submitted", "ecosystem", "solana", "signature", sig.String())
		return sig.String(), nil
	}
	if swaperr.IsUserRejection(err) || !isDeserializationError(err) {
		return "", swaperr.Classify(err)
	}

	a.logger.Debug("versioned deserialization failed, retrying with legacy layout", "error", err)
	sig, err = a.signAndSend(ctx, raw, solSigner, decodeLegacy)
	if err != nil {
		return "", swaperr.Classify(err)
	}

	a.logger.Info("swap transaction submitted", "ecosystem", "solana", "signature", sig.String(), "layout", "legacy")
	return sig.String(), nil
}

// signAndSend deserializes with the given strategy, swaps in the latest
// blockhash and pushes the transaction through the wallet.
func (a *Adapter) signAndSend(
	ctx context.Context,
	raw []byte,
	signer chains.SolanaSigner,
	decode func([]byte) (*solanago.Transaction, error),
) (solanago.Signature, error) {
	tx, err := decode(raw)
	if err != nil {
		return solanago.Signature{}, err
	}

	// The aggregator's blockhash may be stale by signing time.
	recent, err := a.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		a.logger.Warn("failed to refresh recent blockhash, keeping payload blockhash", "error", err)
	} else {
		tx.Message.RecentBlockhash = recent.Value.Blockhash
	}

	return signer.SignAndSendTransaction(ctx, tx)
}

// AwaitFinality implements chains.Adapter by blocking until the signature
// reaches the confirmed commitment level, mirroring the RPC confirmation
// primitive. A processing error on the transaction is an on-chain failure;
// exhausting the wait is fatal on Solana.
func (a *Adapter) AwaitFinality(ctx context.Context, chainIndex int, txID string) error {
	sig, err := solanago.SignatureFromBase58(txID)
	if err != nil {
		return swaperr.Wrap(swaperr.Internal, "invalid transaction signature", err)
	}

	for check := 0; check < a.confirmMaxChecks; check++ {
		if check > 0 {
			select {
			case <-ctx.Done():
				return swaperr.Wrap(swaperr.ConfirmationTimeout, "confirmation wait cancelled", ctx.Err())
			case <-time.After(a.confirmInterval):
			}
		}

		out, err := a.client.GetSignatureStatuses(ctx, true, sig)
		if err != nil || len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}

		status := out.Value[0]
		if status.Err != nil {
			return swaperr.New(swaperr.TransactionFailedOnChain,
				fmt.Sprintf("transaction %s failed on chain: %v", txID, status.Err))
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return nil
		}
	}

	return swaperr.New(swaperr.ConfirmationTimeout,
		fmt.Sprintf("transaction %s did not reach confirmed commitment", txID))
}

// decodeVersioned deserializes the wire bytes and requires the versioned
// message envelope.
func decodeVersioned(raw []byte) (*solanago.Transaction, error) {
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize versioned transaction: %w", err)
	}
	if tx.Message.GetVersion() != solanago.MessageVersionV0 {
		return nil, errNotVersioned
	}
	return tx, nil
}

// decodeLegacy deserializes the wire bytes as a legacy-layout transaction.
func decodeLegacy(raw []byte) (*solanago.Transaction, error) {
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize legacy transaction: %w", err)
	}
	if tx.Message.GetVersion() != solanago.MessageVersionLegacy {
		return nil, fmt.Errorf("unexpected message version %d in legacy deserialization", tx.Message.GetVersion())
	}
	return tx, nil
}

// isDeserializationError reports whether the failure came from decoding the
// transaction bytes rather than from the wallet or the network.
func isDeserializationError(err error) bool {
	if errors.Is(err, errNotVersioned) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deserialize") ||
		strings.Contains(msg, "unmarshal") ||
		strings.Contains(msg, "decode") ||
		strings.Contains(msg, "unexpected message version")
}
