package session

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
	"github.com/omnidex-labs/swapcore/pkg/types"
)

// signerHandle is the handle the manager hands out instead of the raw
// provider signer. It forwards every signing capability to the underlying
// signer and fails closed once the session is disconnected, so no cached
// handle can sign after Disconnect returns.
type signerHandle struct {
	inner   chains.Signer
	revoked *atomic.Bool
}

var errRevoked = swaperr.New(swaperr.ProviderUnavailable, "wallet session disconnected")

func newSignerHandle(inner chains.Signer, revoked *atomic.Bool) *signerHandle {
	return &signerHandle{inner: inner, revoked: revoked}
}

func (h *signerHandle) Address() string {
	if h.revoked.Load() {
		return ""
	}
	return h.inner.Address()
}

func (h *signerHandle) SendTransaction(ctx context.Context, tx types.EVMPayload) (string, error) {
	if h.revoked.Load() {
		return "", errRevoked
	}
	s, ok := h.inner.(chains.EVMSigner)
	if !ok {
		return "", swaperr.New(swaperr.ProviderUnavailable, "connected wallet cannot send EVM transactions")
	}
	return s.SendTransaction(ctx, tx)
}

func (h *signerHandle) SwitchChain(ctx context.Context, chainID int64) error {
	if h.revoked.Load() {
		return errRevoked
	}
	s, ok := h.inner.(chains.ChainSwitcher)
	if !ok {
		return swaperr.New(swaperr.ProviderUnavailable, "connected wallet cannot switch networks")
	}
	return s.SwitchChain(ctx, chainID)
}

func (h *signerHandle) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if h.revoked.Load() {
		return solana.Signature{}, errRevoked
	}
	s, ok := h.inner.(chains.SolanaSigner)
	if !ok {
		return solana.Signature{}, swaperr.New(swaperr.ProviderUnavailable, "connected wallet cannot sign Solana transactions")
	}
	return s.SignAndSendTransaction(ctx, tx)
}

func (h *signerHandle) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if h.revoked.Load() {
		return nil, errRevoked
	}
	s, ok := h.inner.(chains.SolanaSigner)
	if !ok {
		return nil, swaperr.New(swaperr.ProviderUnavailable, "connected wallet cannot sign Solana transactions")
	}
	return s.SignTransaction(ctx, tx)
}

func (h *signerHandle) Sign(ctx context.Context, rawTx json.RawMessage) (json.RawMessage, error) {
	if h.revoked.Load() {
		return nil, errRevoked
	}
	s, ok := h.inner.(chains.TronSigner)
	if !ok {
		return nil, swaperr.New(swaperr.ProviderUnavailable, "connected wallet cannot sign Tron transactions")
	}
	return s.Sign(ctx, rawTx)
}

func (h *signerHandle) SignAndExecute(ctx context.Context, txBytesBase64 string) (string, error) {
	if h.revoked.Load() {
		return "", errRevoked
	}
	s, ok := h.inner.(chains.SuiSigner)
	if !ok {
		return "", swaperr.New(swaperr.ProviderUnavailable, "connected wallet cannot execute Sui transactions")
	}
	return s.SignAndExecute(ctx, txBytesBase64)
}

func (h *signerHandle) SendMessage(ctx context.Context, msg types.TONPayload) error {
	if h.revoked.Load() {
		return errRevoked
	}
	s, ok := h.inner.(chains.TONSigner)
	if !ok {
		return swaperr.New(swaperr.ProviderUnavailable, "connected wallet cannot send TON messages")
	}
	return s.SendMessage(ctx, msg)
}

// Compile-time capability coverage of the handle.
var (
	_ chains.Signer        = (*signerHandle)(nil)
	_ chains.EVMSigner     = (*signerHandle)(nil)
	_ chains.ChainSwitcher = (*signerHandle)(nil)
	_ chains.SolanaSigner  = (*signerHandle)(nil)
	_ chains.TronSigner    = (*signerHandle)(nil)
	_ chains.SuiSigner     = (*signerHandle)(nil)
	_ chains.TONSigner     = (*signerHandle)(nil)
)
