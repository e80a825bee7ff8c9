package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/omnidex-labs/swapcore/pkg/constants"
)

// errReceiptNotFound marks a receipt that has not landed yet; the caller's
// polling loop treats it as "not yet", not as a failure.
var errReceiptNotFound = errors.New("transaction receipt not found")

const erc20AllowanceABI = `[{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

// RPCClient performs the EVM read-side operations: receipt lookups and raw
// eth_call allowance reads, with failover across the configured endpoints.
type RPCClient struct {
	endpoints map[int][]string // chainIndex -> rpc urls
}

// NewRPCClient creates an EVM RPC client over per-chain endpoint lists.
func NewRPCClient(endpoints map[int][]string) *RPCClient {
	return &RPCClient{endpoints: endpoints}
}

// TransactionReceipt fetches a receipt once. Returns errReceiptNotFound when
// the transaction has not been mined yet.
func (r *RPCClient) TransactionReceipt(ctx context.Context, chainIndex int, txHash string) (*ethtypes.Receipt, error) {
	endpoints := r.endpoints[chainIndex]
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured for chain %d", chainIndex)
	}

	// Start at a random position for load balancing
	startIdx := rand.Intn(len(endpoints))
	var lastErr error

	for i := 0; i < len(endpoints); i++ {
		endpoint := endpoints[(startIdx+i)%len(endpoints)]

		client, err := ethclient.Dial(endpoint)
		if err != nil {
			lastErr = err
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, constants.RPCRequestTimeout)
		receipt, err := client.TransactionReceipt(callCtx, common.HexToHash(txHash))
		client.Close()
		cancel()

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				lastErr = err
				continue
			}
			// ethclient reports a pending transaction as "not found"
			if strings.Contains(err.Error(), "not found") {
				return nil, errReceiptNotFound
			}
			lastErr = err
			continue
		}
		return receipt, nil
	}

	return nil, fmt.Errorf("all RPC endpoints failed for chain %d: %w", chainIndex, lastErr)
}

// Allowance reads allowance(owner,spender) on the token contract via a raw
// eth_call, returning the granted amount in the token's smallest unit.
func (r *RPCClient) Allowance(ctx context.Context, chainIndex int, token, owner, spender string) (*big.Int, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20AllowanceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse allowance ABI: %w", err)
	}

	data, err := parsedABI.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance call: %w", err)
	}

	result, err := r.callContract(ctx, chainIndex, token, common.Bytes2Hex(data))
	if err != nil {
		return nil, fmt.Errorf("allowance call failed: %w", err)
	}

	var allowance *big.Int
	if err := parsedABI.UnpackIntoInterface(&allowance, "allowance", common.FromHex(result)); err != nil {
		return nil, fmt.Errorf("failed to decode allowance result: %w", err)
	}
	return allowance, nil
}

// callContract makes a read-only contract call with RPC failover.
// Uses random start position for load balancing across RPC endpoints.
func (r *RPCClient) callContract(ctx context.Context, chainIndex int, contractAddress, data string) (string, error) {
	endpoints := r.endpoints[chainIndex]
	if len(endpoints) == 0 {
		return "", fmt.Errorf("no RPC endpoints configured for chain %d", chainIndex)
	}

	startIdx := rand.Intn(len(endpoints))
	var lastErr error

	for i := 0; i < len(endpoints); i++ {
		endpoint := endpoints[(startIdx+i)%len(endpoints)]

		client, err := ethclient.Dial(endpoint)
		if err != nil {
			lastErr = err
			continue
		}

		callData := data
		if !strings.HasPrefix(data, "0x") {
			callData = "0x" + data
		}
		msg := map[string]interface{}{
			"to":   contractAddress,
			"data": callData,
		}

		callCtx, cancel := context.WithTimeout(ctx, constants.CallContractTimeout)
		var result string
		err = client.Client().CallContext(callCtx, &result, "eth_call", msg, "latest")
		client.Close()
		cancel()

		if err != nil {
			lastErr = err
			continue
		}
		return result, nil
	}

	return "", fmt.Errorf("all RPC endpoints failed for chain %d: %w", chainIndex, lastErr)
}
