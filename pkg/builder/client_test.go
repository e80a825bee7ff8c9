package builder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient(server.URL, server.Client(), nil)
}

func TestSwapTransactionEVM(t *testing.T) {
	var gotReq SwapRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swap", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"tx": map[string]string{
				"to":    "0xrouter",
				"data":  "0xdeadbeef",
				"value": "0x0",
				"gas":   "210000",
			},
			"dexContractAddress": "0xspender",
		})
	})

	tx, err := client.SwapTransaction(context.Background(), SwapRequest{
		ChainIndex:       constants.ChainIndexEthereum,
		FromTokenAddress: "0xa0b8",
		ToTokenAddress:   "0xc02a",
		Amount:           "12340000",
		TakerAddress:     "0xme",
		Slippage:         "0.005",
	})
	require.NoError(t, err)

	assert.Equal(t, "12340000", gotReq.Amount)
	assert.Equal(t, constants.EcosystemEVM, tx.Payload.Ecosystem)
	require.NotNil(t, tx.Payload.EVM)
	assert.Equal(t, "0xrouter", tx.Payload.EVM.To)
	assert.Equal(t, "0xdeadbeef", tx.Payload.EVM.Data)
	assert.Equal(t, "0xspender", tx.SpenderAddress)
}

func TestSwapTransactionSolanaBareString(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"tx": "3yZe7d"})
	})

	tx, err := client.SwapTransaction(context.Background(), SwapRequest{
		ChainIndex: constants.ChainIndexSolana,
		Amount:     "1000000000",
	})
	require.NoError(t, err)
	require.NotNil(t, tx.Payload.Solana)
	assert.Equal(t, "3yZe7d", tx.Payload.Solana.Base58Tx)
}

func TestSwapTransactionSuiWrappedString(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tx": map[string]string{"data": "AAACAQ=="},
		})
	})

	tx, err := client.SwapTransaction(context.Background(), SwapRequest{
		ChainIndex: constants.ChainIndexSui,
		Amount:     "1000000000",
	})
	require.NoError(t, err)
	require.NotNil(t, tx.Payload.Sui)
	assert.Equal(t, "AAACAQ==", tx.Payload.Sui.Base64Tx)
}

func TestSwapTransactionTON(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tx": map[string]string{
				"to":      "EQDk2VTvn04SUKJrW7rXahzdF8_Qi6utb0wj43InCu9vdjUU",
				"amount":  "500000000",
				"payload": "te6cc",
			},
		})
	})

	tx, err := client.SwapTransaction(context.Background(), SwapRequest{
		ChainIndex: constants.ChainIndexTON,
		Amount:     "500000000",
	})
	require.NoError(t, err)
	require.NotNil(t, tx.Payload.TON)
	assert.Equal(t, "500000000", tx.Payload.TON.Amount)
	assert.Equal(t, "te6cc", tx.Payload.TON.PayloadBoc)
}

func TestSwapTransactionMissingTx(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"dexContractAddress": "0xspender"})
	})

	_, err := client.SwapTransaction(context.Background(), SwapRequest{
		ChainIndex: constants.ChainIndexEthereum,
	})
	require.Error(t, err)
	assert.Equal(t, swaperr.BuildTransactionFailed, swaperr.KindOf(err))
}

func TestSwapTransactionUnknownChain(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be made for an unknown chain")
	})

	_, err := client.SwapTransaction(context.Background(), SwapRequest{ChainIndex: 424242})
	require.Error(t, err)
	assert.Equal(t, swaperr.UnsupportedChain, swaperr.KindOf(err))
}

func TestSwapTransactionServerError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "no route found"})
	})

	_, err := client.SwapTransaction(context.Background(), SwapRequest{
		ChainIndex: constants.ChainIndexPolygon,
	})
	require.Error(t, err)
	assert.Equal(t, swaperr.BuildTransactionFailed, swaperr.KindOf(err))
	assert.Contains(t, err.Error(), "no route found")
}

func TestApprovalTransaction(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/approve-transaction", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0xtoken", req["tokenAddress"])

		json.NewEncoder(w).Encode(map[string]string{
			"data":               "0x095ea7b3",
			"dexContractAddress": "0xspender",
			"gasLimit":           "60000",
		})
	})

	data, err := client.ApprovalTransaction(context.Background(), constants.ChainIndexEthereum, "0xtoken", "12340000")
	require.NoError(t, err)
	assert.Equal(t, "0x095ea7b3", data.Data)
	assert.Equal(t, "0xspender", data.SpenderAddress)
	assert.Equal(t, "60000", data.GasLimit)
}

func TestApprovalTransactionNoCalldata(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"dexContractAddress": "0xspender"})
	})

	_, err := client.ApprovalTransaction(context.Background(), constants.ChainIndexEthereum, "0xtoken", "1")
	require.Error(t, err)
	assert.Equal(t, swaperr.BuildTransactionFailed, swaperr.KindOf(err))
}

func TestHTTPErrorFormatting(t *testing.T) {
	err := &HTTPError{StatusCode: 400, Status: "400 Bad Request", Body: []byte(`{"error":"bad pair","details":"same token"}`)}
	assert.Equal(t, "HTTP 400: bad pair - same token", err.Error())

	err = &HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}
	assert.Equal(t, "HTTP 503: 503 Service Unavailable", err.Error())
}
