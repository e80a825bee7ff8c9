// Package builder is the client for the external DEX-aggregator service that
// turns a swap intent into an unsigned transaction in the target chain's
// native encoding. Route and price discovery live entirely on the service
// side; this client only requests and decodes payloads.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// Client talks to the aggregator's build endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an aggregator client. A nil httpClient gets a default
// with the standard request timeout.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.SwapRequestTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

var _ chains.ApprovalDataSource = (*Client)(nil)

// SwapRequest is the build request: chain, pair, integer amount, taker and
// slippage. Amount is always the smallest-unit integer string.
type SwapRequest struct {
	ChainIndex       int    `json:"chainIndex"`
	FromTokenAddress string `json:"fromTokenAddress"`
	ToTokenAddress   string `json:"toTokenAddress"`
	Amount           string `json:"amount"`
	TakerAddress     string `json:"takerAddress"`
	Slippage         string `json:"slippage"`
}

// SwapTransaction is the decoded build response.
type SwapTransaction struct {
	Payload *types.UnsignedPayload
	// SpenderAddress is the aggregator router contract that pulls the input
	// token on EVM chains; empty elsewhere.
	SpenderAddress string
}

type swapResponse struct {
	Tx                 json.RawMessage `json:"tx"`
	DexContractAddress string          `json:"dexContractAddress"`
}

// SwapTransaction requests an unsigned swap transaction. A response without
// a tx payload is a BuildTransactionFailed error.
func (c *Client) SwapTransaction(ctx context.Context, req SwapRequest) (*SwapTransaction, error) {
	ecosystem, ok := constants.ChainEcosystem(req.ChainIndex)
	if !ok {
		return nil, swaperr.New(swaperr.UnsupportedChain, fmt.Sprintf("unknown chain index %d", req.ChainIndex))
	}

	var resp swapResponse
	if err := c.post(ctx, "/swap", req, &resp); err != nil {
		return nil, swaperr.Wrap(swaperr.BuildTransactionFailed, "swap build request failed", err)
	}
	if len(resp.Tx) == 0 || string(resp.Tx) == "null" {
		return nil, swaperr.New(swaperr.BuildTransactionFailed, "aggregator returned no transaction payload")
	}

	payload, err := decodePayload(ecosystem, resp.Tx)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.BuildTransactionFailed, "undecodable transaction payload", err)
	}

	c.logger.Debug("swap transaction built",
		"chainIndex", req.ChainIndex, "ecosystem", ecosystem, "spender", resp.DexContractAddress)

	return &SwapTransaction{Payload: payload, SpenderAddress: resp.DexContractAddress}, nil
}

type approvalRequest struct {
	ChainIndex   int    `json:"chainIndex"`
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
}

// ApprovalTransaction implements chains.ApprovalDataSource: it fetches the
// approve calldata granting the aggregator's spender the given amount.
func (c *Client) ApprovalTransaction(ctx context.Context, chainIndex int, tokenAddress, amt string) (*chains.ApprovalData, error) {
	var data chains.ApprovalData
	if err := c.post(ctx, "/approve-transaction", approvalRequest{chainIndex, tokenAddress, amt}, &data); err != nil {
		return nil, swaperr.Wrap(swaperr.BuildTransactionFailed, "approval build request failed", err)
	}
	if data.Data == "" {
		return nil, swaperr.New(swaperr.BuildTransactionFailed, "aggregator returned no approval calldata")
	}
	return &data, nil
}

// decodePayload decodes the ecosystem-specific tx variant. Chains whose
// payload is a bare encoded string also accept a {"data": ...} wrapper.
func decodePayload(ecosystem constants.Ecosystem, raw json.RawMessage) (*types.UnsignedPayload, error) {
	p := &types.UnsignedPayload{Ecosystem: ecosystem}
	switch ecosystem {
	case constants.EcosystemEVM:
		p.EVM = new(types.EVMPayload)
		if err := json.Unmarshal(raw, p.EVM); err != nil {
			return nil, err
		}
		if p.EVM.To == "" || p.EVM.Data == "" {
			return nil, fmt.Errorf("evm payload missing to/data")
		}
	case constants.EcosystemSolana:
		tx, err := decodeStringPayload(raw)
		if err != nil {
			return nil, err
		}
		p.Solana = &types.SolanaPayload{Base58Tx: tx}
	case constants.EcosystemTron:
		p.Tron = new(types.TronPayload)
		if err := json.Unmarshal(raw, p.Tron); err != nil {
			return nil, err
		}
		if p.Tron.To == "" {
			return nil, fmt.Errorf("tron payload missing contract address")
		}
	case constants.EcosystemSui:
		tx, err := decodeStringPayload(raw)
		if err != nil {
			return nil, err
		}
		p.Sui = &types.SuiPayload{Base64Tx: tx}
	case constants.EcosystemTON:
		p.TON = new(types.TONPayload)
		if err := json.Unmarshal(raw, p.TON); err != nil {
			return nil, err
		}
		if p.TON.To == "" {
			return nil, fmt.Errorf("ton payload missing destination")
		}
	default:
		return nil, fmt.Errorf("unsupported ecosystem %q", ecosystem)
	}
	return p, nil
}

func decodeStringPayload(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var wrapped struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return "", err
	}
	if wrapped.Data == "" {
		return "", fmt.Errorf("empty transaction payload")
	}
	return wrapped.Data, nil
}
