// Package evm executes swaps on EVM chains: ERC-20 allowance check and
// approval, eth_sendTransaction through the connected wallet, and receipt
// polling for finality.
package evm

import (
	"context"
	"fmt"
	"log/slog"

	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/poll"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// Adapter implements chains.Adapter and chains.Approver for EVM chains.
type Adapter struct {
	rpc       *RPCClient
	approvals chains.ApprovalDataSource
	pollCfg   poll.Config
	logger    *slog.Logger
}

var (
	_ chains.Adapter  = (*Adapter)(nil)
	_ chains.Approver = (*Adapter)(nil)
)

// NewAdapter creates an EVM adapter over per-chain RPC endpoints. approvals
// supplies approve calldata; usually the aggregator builder client.
func NewAdapter(endpoints map[int][]string, approvals chains.ApprovalDataSource, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		rpc:       NewRPCClient(endpoints),
		approvals: approvals,
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
	return constants.EcosystemEVM
}

// BuildAndSign implements chains.Adapter: the wallet signs and broadcasts
// via eth_sendTransaction, returning the transaction hash.
func (a *Adapter) BuildAndSign(ctx context.Context, chainIndex int, payload *types.UnsignedPayload, signer chains.Signer) (string, error) {
	if payload == nil || payload.EVM == nil {
		return "", swaperr.New(swaperr.BuildTransactionFailed, "missing EVM transaction payload")
	}
	evmSigner, ok := signer.(chains.EVMSigner)
	if !ok {
		return "", swaperr.New(swaperr.ProviderUnavailable, "no EVM signer connected")
	}

	txHash, err := evmSigner.SendTransaction(ctx, *payload.EVM)
	if err != nil {
		return "", swaperr.Classify(err)
	}

	a.logger.Info("swap transaction submitted", "ecosystem", "evm", "chainIndex", chainIndex, "txHash", txHash)
	return txHash, nil
}

// AwaitFinality implements chains.Adapter: polls eth_getTransactionReceipt
// until the receipt lands. Receipt status 0 is an on-chain revert; hitting
// the poll ceiling is fatal on EVM.
func (a *Adapter) AwaitFinality(ctx context.Context, chainIndex int, txID string) error {
	result, err := poll.Run(ctx, a.pollCfg,
		func(ctx context.Context) (*ethtypes.Receipt, error) {
			return a.rpc.TransactionReceipt(ctx, chainIndex, txID)
		},
		func(receipt *ethtypes.Receipt) bool { return receipt != nil },
	)
	if err != nil {
		if err == poll.ErrTimeout {
			return swaperr.Wrap(swaperr.ConfirmationTimeout,
				fmt.Sprintf("transaction %s not confirmed in time", txID), err)
		}
		return swaperr.Classify(err)
	}

	if result.Value.Status == ethtypes.ReceiptStatusFailed {
		return swaperr.New(swaperr.TransactionFailedOnChain,
			fmt.Sprintf("transaction %s reverted on chain", txID))
	}
	return nil
}

// CheckAndApprove implements chains.Approver. The approval service supplies
// both the approve calldata and the spender whose allowance is read. The
// allowance read is a soft check: if it fails at the RPC level the adapter
// proceeds to approval instead of failing the swap.
func (a *Adapter) CheckAndApprove(ctx context.Context, req chains.ApprovalRequest, signer chains.Signer) error {
	if a.approvals == nil {
		return swaperr.New(swaperr.BuildTransactionFailed, "no approval data source configured")
	}

	approveAmount := req.ApproveAmount
	if approveAmount == nil {
		approveAmount = req.Amount
	}

	data, err := a.approvals.ApprovalTransaction(ctx, req.ChainIndex, req.TokenAddress, approveAmount.String())
	if err != nil {
		return swaperr.Classify(err)
	}

	allowance, err := a.rpc.Allowance(ctx, req.ChainIndex, req.TokenAddress, req.OwnerAddress, data.SpenderAddress)
	if err != nil {
		a.logger.Warn("allowance read failed, proceeding to approval",
			"chainIndex", req.ChainIndex, "token", req.TokenAddress, "error", err)
	} else if allowance.Cmp(req.Amount) >= 0 {
		a.logger.Debug("allowance sufficient, skipping approval",
			"chainIndex", req.ChainIndex, "allowance", allowance.String(), "required", req.Amount.String())
		return nil
	}

	if req.OnApproving != nil {
		req.OnApproving()
	}

	evmSigner, ok := signer.(chains.EVMSigner)
	if !ok {
		return swaperr.New(swaperr.ProviderUnavailable, "no EVM signer connected")
	}

	approveTx := types.EVMPayload{
		To:    req.TokenAddress,
		Data:  data.Data,
		Value: "0x0",
		Gas:   data.GasLimit,
	}
	txHash, err := evmSigner.SendTransaction(ctx, approveTx)
	if err != nil {
		return swaperr.Classify(err)
	}

	a.logger.Info("approval transaction submitted",
		"chainIndex", req.ChainIndex, "token", req.TokenAddress, "txHash", txHash)

	// The swap may only be submitted after the approval reaches finality.
	return a.AwaitFinality(ctx, req.ChainIndex, txHash)
}
