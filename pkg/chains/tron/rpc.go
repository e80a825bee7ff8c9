package tron

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/omnidex-labs/swapcore/pkg/constants"
)

// RPCClient talks to a Tron full node's HTTP API.
type RPCClient struct {
	baseURL string
	client  *http.Client
}

// NewRPCClient creates a Tron full-node client.
func NewRPCClient(baseURL string) *RPCClient {
	return &RPCClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: constants.RPCRequestTimeout},
	}
}

// triggerRequest is the wallet/triggersmartcontract body. visible=true lets
// addresses stay in their base58check form.
type triggerRequest struct {
	OwnerAddress    string `json:"owner_address"`
	ContractAddress string `json:"contract_address"`
	Data            string `json:"data"`
	CallValue       int64  `json:"call_value,omitempty"`
	FeeLimit        int64  `json:"fee_limit,omitempty"`
	Visible         bool   `json:"visible"`
}

type triggerResponse struct {
	Result struct {
		Result  bool   `json:"result"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"result"`
	Transaction json.RawMessage `json:"transaction"`
}

// TriggerSmartContract builds an unsigned contract-trigger transaction.
func (r *RPCClient) TriggerSmartContract(ctx context.Context, owner, contract, data string, callValue, feeLimit int64) (json.RawMessage, error) {
	req := triggerRequest{
		OwnerAddress:    owner,
		ContractAddress: contract,
		Data:            data,
		CallValue:       callValue,
		FeeLimit:        feeLimit,
		Visible:         true,
	}

	var resp triggerResponse
	if err := r.post(ctx, "/wallet/triggersmartcontract", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Result.Result {
		return nil, fmt.Errorf("trigger build rejected: %s %s", resp.Result.Code, resp.Result.Message)
	}
	if len(resp.Transaction) == 0 {
		return nil, fmt.Errorf("trigger build returned no transaction")
	}
	return resp.Transaction, nil
}

type broadcastResponse struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BroadcastTransaction submits a signed transaction and returns its id.
func (r *RPCClient) BroadcastTransaction(ctx context.Context, signedTx json.RawMessage) (string, error) {
	var resp broadcastResponse
	if err := r.post(ctx, "/wallet/broadcasttransaction", signedTx, &resp); err != nil {
		return "", err
	}
	if !resp.Result {
		return "", fmt.Errorf("broadcast rejected: %s %s", resp.Code, resp.Message)
	}
	if resp.TxID != "" {
		return resp.TxID, nil
	}
	// Some nodes omit txid in the broadcast response; fall back to the
	// signed transaction's own id.
	var tx struct {
		TxID string `json:"txID"`
	}
	if err := json.Unmarshal(signedTx, &tx); err == nil && tx.TxID != "" {
		return tx.TxID, nil
	}
	return "", fmt.Errorf("broadcast succeeded but no transaction id available")
}

// TransactionInfo is the settled-transaction record; empty until the
// transaction lands in a block.
type TransactionInfo struct {
	ID      string `json:"id"`
	Receipt struct {
		Result string `json:"result"`
	} `json:"receipt"`
}

// GetTransactionInfo fetches confirmation state for a transaction. A nil
// info with nil error means the transaction has not settled yet.
func (r *RPCClient) GetTransactionInfo(ctx context.Context, txID string) (*TransactionInfo, error) {
	var info TransactionInfo
	if err := r.post(ctx, "/wallet/gettransactioninfobyid", map[string]string{"value": txID}, &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, nil
	}
	return &info, nil
}

// post sends one JSON request to the full node.
func (r *RPCClient) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	var payload []byte
	switch b := body.(type) {
	case json.RawMessage:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, int64(constants.MaxResponseBodySize))
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(limitedReader)
		return fmt.Errorf("node returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(limitedReader).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
