// Package tron executes swaps on Tron: contract-trigger build on a full
// node, wallet signing, raw broadcast, and transaction-info polling. Tron
// settlement can lag the poll window, so hitting the confirmation ceiling is
// reported as success-unknown rather than failure.
package tron

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/poll"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// Adapter implements chains.Adapter for Tron.
type Adapter struct {
	rpc     *RPCClient
	pollCfg poll.Config
	logger  *slog.Logger
}

var _ chains.Adapter = (*Adapter)(nil)

// NewAdapter creates a Tron adapter over one full-node HTTP endpoint.
func NewAdapter(nodeURL string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		rpc: NewRPCClient(nodeURL),
		pollCfg: poll.Config{
			Interval:    constants.ReceiptPollInterval,
			MaxAttempts: constants.ReceiptPollMaxAttempts,
			OnTimeout:   poll.TolerateTimeout,
		},
		logger: logger,
	}
}

// Ecosystem implements chains.Adapter.
func (a *Adapter) Ecosystem() constants.Ecosystem {
	return constants.EcosystemTron
}

// BuildAndSign implements chains.Adapter: triggersmartcontract to build the
// unsigned transaction, wallet signing, then raw broadcast. When the trigger
// build fails and the aggregator supplied a pre-signed raw transaction, that
// transaction is broadcast instead.
func (a *Adapter) BuildAndSign(ctx context.Context, chainIndex int, payload *types.UnsignedPayload, signer chains.Signer) (string, error) {
	if payload == nil || payload.Tron == nil {
		return "", swaperr.New(swaperr.BuildTransactionFailed, "missing Tron transaction payload")
	}
	tronSigner, ok := signer.(chains.TronSigner)
	if !ok {
		return "", swaperr.New(swaperr.ProviderUnavailable, "no Tron signer connected")
	}
	if err := validateAddress(payload.Tron.To); err != nil {
		return "", swaperr.Wrap(swaperr.BuildTransactionFailed, "invalid contract address", err)
	}

	callValue, err := parseCallValue(payload.Tron.Value)
	if err != nil {
		return "", swaperr.Wrap(swaperr.BuildTransactionFailed, "invalid call value", err)
	}

	rawTx, err := a.rpc.TriggerSmartContract(ctx,
		signer.Address(),
		payload.Tron.To,
		strings.TrimPrefix(payload.Tron.Data, "0x"),
		callValue,
		payload.Tron.FeeLimit,
	)
	if err != nil {
		if len(payload.Tron.SignedTx) == 0 {
			return "", swaperr.Wrap(swaperr.BuildTransactionFailed, "trigger build failed", err)
		}
		a.logger.Warn("trigger build failed, broadcasting pre-signed transaction", "error", err)
		txID, berr := a.rpc.BroadcastTransaction(ctx, payload.Tron.SignedTx)
		if berr != nil {
			return "", swaperr.Classify(berr)
		}
		a.logger.Info("swap transaction submitted", "ecosystem", "tron", "txID", txID, "path", "pre-signed")
		return txID, nil
	}

	signedTx, err := tronSigner.Sign(ctx, rawTx)
	if err != nil {
		return "", swaperr.Classify(err)
	}

	txID, err := a.rpc.BroadcastTransaction(ctx, signedTx)
	if err != nil {
		return "", swaperr.Classify(err)
	}

	a.logger.Info("swap transaction submitted", "ecosystem", "tron", "txID", txID)
	return txID, nil
}

// AwaitFinality implements chains.Adapter: polls gettransactioninfobyid. A
// FAILED receipt is an on-chain failure; reaching the poll ceiling is NOT a
// failure here, the swap resolves as success-unknown with a warning.
func (a *Adapter) AwaitFinality(ctx context.Context, chainIndex int, txID string) error {
	result, err := poll.Run(ctx, a.pollCfg,
		func(ctx context.Context) (*TransactionInfo, error) {
			return a.rpc.GetTransactionInfo(ctx, txID)
		},
		func(info *TransactionInfo) bool { return info != nil },
	)
	if err != nil {
		return swaperr.Classify(err)
	}
	if result.TimedOut {
		a.logger.Warn("confirmation window elapsed without settlement, treating as complete",
			"ecosystem", "tron", "txID", txID)
		return nil
	}

	if result.Value.Receipt.Result == "FAILED" {
		return swaperr.New(swaperr.TransactionFailedOnChain,
			fmt.Sprintf("transaction %s failed on chain", txID))
	}
	return nil
}

// validateAddress checks the base58check form Tron addresses travel in.
func validateAddress(addr string) error {
	if !strings.HasPrefix(addr, "T") {
		return fmt.Errorf("address %q does not look like a Tron base58 address", addr)
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("address %q is not valid base58: %w", addr, err)
	}
	// 21 payload bytes (0x41 prefix + 20-byte body) + 4 checksum bytes
	if len(decoded) != 25 || decoded[0] != 0x41 {
		return fmt.Errorf("address %q has unexpected layout", addr)
	}
	return nil
}

func parseCallValue(value string) (int64, error) {
	if value == "" || value == "0" || value == "0x0" {
		return 0, nil
	}
	if strings.HasPrefix(value, "0x") {
		return strconv.ParseInt(value[2:], 16, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}
