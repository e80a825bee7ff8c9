// Package types holds the data model shared by the session manager, the
// aggregator client, the chain adapters and the orchestrator.
package types

import (
	"strings"

	"github.com/omnidex-labs/swapcore/pkg/constants"
)

// Token describes one side of a swap pair.
type Token struct {
	Address  string // contract address, mint, coin type or native sentinel
	Symbol   string
	Decimals int
}

// IsNativeEVM reports whether the token is the EVM native-currency sentinel.
// Only this check drives the allowance/approval path.
func (t Token) IsNativeEVM() bool {
	return strings.EqualFold(t.Address, constants.NativeTokenAddressEVM)
}

// SwapIntent is the caller's description of one logical swap. Amount is
// carried as the human-decimal string; the orchestrator derives the exact
// smallest-unit integer form before any on-chain call.
type SwapIntent struct {
	ChainIndex int
	FromToken  Token
	ToToken    Token
	Amount     string // human-decimal, e.g. "12.34"
	Slippage   string // fraction, e.g. "0.005"

	// ApproveAmount optionally overrides the smallest-unit amount submitted
	// for an EVM approval; empty means approve exactly the swap amount.
	ApproveAmount string
}

// Ecosystem resolves the ecosystem implied by the intent's chain.
func (i SwapIntent) Ecosystem() (constants.Ecosystem, bool) {
	return constants.ChainEcosystem(i.ChainIndex)
}

// UnsignedPayload is the aggregator's unsigned transaction in the target
// chain's native encoding. Exactly one variant is set, keyed by Ecosystem.
type UnsignedPayload struct {
	Ecosystem constants.Ecosystem

	EVM    *EVMPayload
	Solana *SolanaPayload
	Tron   *TronPayload
	Sui    *SuiPayload
	TON    *TONPayload
}

// EVMPayload is hex calldata for eth_sendTransaction.
type EVMPayload struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"` // hex or decimal wei
	Gas   string `json:"gas"`
}

// SolanaPayload is a base58-encoded serialized transaction (not base64).
type SolanaPayload struct {
	Base58Tx string `json:"data"`
}

// TronPayload carries contract-trigger parameters plus, optionally, a
// pre-signed raw transaction supplied by the aggregator as a fallback.
type TronPayload struct {
	To       string `json:"to"`
	Data     string `json:"data"`  // hex calldata
	Value    string `json:"value"` // sun
	FeeLimit int64  `json:"gas"`

	// SignedTx is broadcast as-is when trigger-build fails.
	SignedTx []byte `json:"signedTx,omitempty"`
}

// SuiPayload is base64-encoded transaction-block bytes.
type SuiPayload struct {
	Base64Tx string `json:"data"`
}

// TONPayload is one outbound message: destination, nanoton amount and a
// base64 BOC body.
type TONPayload struct {
	To         string `json:"to"`
	Amount     string `json:"amount"` // nanotons
	PayloadBoc string `json:"payload"`
}

// SwapStep is the orchestrator's state for one attempt.
type SwapStep string

const (
	StepIdle              SwapStep = "idle"
	StepCheckingAllowance SwapStep = "checking-allowance"
	StepApproving         SwapStep = "approving"
	StepSwapping          SwapStep = "swapping"
	StepConfirming        SwapStep = "confirming"
	StepComplete          SwapStep = "complete"
	StepError             SwapStep = "error"
)

// Terminal reports whether the step ends an attempt.
func (s SwapStep) Terminal() bool {
	return s == StepComplete || s == StepError
}

// SwapAttempt is the observable record of one in-flight or finished swap.
// It is never persisted; a terminal attempt is garbage once read.
type SwapAttempt struct {
	ID     string
	Step   SwapStep
	TxID   string // hash, signature or digest, format is ecosystem-dependent
	ErrKind string
	ErrText string // truncated, display-safe
}
