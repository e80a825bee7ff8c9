package chains

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// Adapter provides blockchain-specific swap execution for one ecosystem:
// decoding the aggregator's unsigned payload, obtaining a signature through
// the wallet session's signer, submitting, and waiting for finality.
type Adapter interface {
	// Ecosystem returns the ecosystem tag this adapter serves.
	Ecosystem() constants.Ecosystem

	// BuildAndSign decodes the payload, signs it through the given signer and
	// submits it, returning the chain-native transaction identifier.
	BuildAndSign(ctx context.Context, chainIndex int, payload *types.UnsignedPayload, signer Signer) (string, error)

	// AwaitFinality blocks until the transaction is considered applied by its
	// chain, or returns a classified error. What "applied" means is
	// ecosystem-dependent; see the concrete adapters.
	AwaitFinality(ctx context.Context, chainIndex int, txID string) error
}

// Approver is an optional interface for chains whose token transfers require
// a spending allowance before the swap contract may pull funds.
// Implemented by: evm.Adapter
type Approver interface {
	// CheckAndApprove reads the current allowance and, when it is below the
	// required amount, submits an approval transaction and waits for it to
	// reach finality. A failed allowance read is treated as "approval
	// required", never as a fatal error.
	CheckAndApprove(ctx context.Context, req ApprovalRequest, signer Signer) error
}

// ApprovalRequest carries everything an Approver needs for one allowance
// check-and-raise cycle.
type ApprovalRequest struct {
	ChainIndex   int
	TokenAddress string
	OwnerAddress string
	Amount       *big.Int // required smallest-unit amount

	// ApproveAmount optionally overrides Amount in the submitted approval;
	// the allowance comparison still uses Amount.
	ApproveAmount *big.Int

	// OnApproving, when set, fires once the allowance was found short and an
	// approval transaction is about to be submitted. The orchestrator uses
	// it to advance its state machine.
	OnApproving func()
}

// ApprovalDataSource supplies approval-transaction calldata for a token and
// amount. Implemented by the aggregator builder client.
type ApprovalDataSource interface {
	ApprovalTransaction(ctx context.Context, chainIndex int, tokenAddress, amount string) (*ApprovalData, error)
}

// ApprovalData is the approval service's response: raw approve calldata, the
// spender it grants, and a gas ceiling.
type ApprovalData struct {
	Data           string `json:"data"`
	SpenderAddress string `json:"dexContractAddress"`
	GasLimit       string `json:"gasLimit"`
}

// Signer is an opaque signing handle issued by the wallet session manager.
// Adapters type-assert it to the ecosystem capability they need and must
// treat a failed assertion as "cannot proceed".
type Signer interface {
	// Address returns the connected wallet address in the chain's native
	// encoding.
	Address() string
}

// EVMSigner submits eth_sendTransaction through the connected provider. The
// wallet prompts the user; the call blocks until signed or rejected.
type EVMSigner interface {
	Signer
	SendTransaction(ctx context.Context, tx types.EVMPayload) (string, error)
}

// ChainSwitcher is an optional capability of EVM providers that can move the
// wallet to another network. Non-EVM providers never implement it.
type ChainSwitcher interface {
	SwitchChain(ctx context.Context, chainID int64) error
}

// SolanaSigner signs (and optionally sends) a Solana transaction.
type SolanaSigner interface {
	Signer
	// SignAndSendTransaction signs and submits in one wallet round-trip.
	SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// SignTransaction returns the signed transaction for manual submission.
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// TronSigner signs a raw Tron transaction JSON object as produced by
// wallet/triggersmartcontract.
type TronSigner interface {
	Signer
	Sign(ctx context.Context, rawTx json.RawMessage) (json.RawMessage, error)
}

// SuiSigner signs and executes base64 transaction-block bytes through the
// wallet session, returning the transaction digest.
type SuiSigner interface {
	Signer
	SignAndExecute(ctx context.Context, txBytesBase64 string) (string, error)
}

// TONSigner sends one TON message through the connected wallet. TON exposes
// no synchronous result; the adapter layers its own completion grace period.
type TONSigner interface {
	Signer
	SendMessage(ctx context.Context, msg types.TONPayload) error
}
