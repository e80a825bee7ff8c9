// Package swaperr defines the error taxonomy shared by every chain adapter
// and the swap orchestrator. Adapters return *SwapError values; the
// orchestrator is the single boundary that classifies anything else.
package swaperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omnidex-labs/swapcore/pkg/constants"
)

// Kind is the normalized failure category shown to callers.
type Kind string

const (
	UserRejected             Kind = "user_rejected"
	InsufficientFunds        Kind = "insufficient_funds"
	ProviderUnavailable      Kind = "provider_unavailable"
	BuildTransactionFailed   Kind = "build_transaction_failed"
	TransactionFailedOnChain Kind = "transaction_failed_on_chain"
	ConfirmationTimeout      Kind = "confirmation_timeout"
	UnsupportedChain         Kind = "unsupported_chain"
	Internal                 Kind = "internal"
)

// WalletRejectionCode is the EIP-1193 code wallets return when the user
// declines a signing prompt. Non-EVM wallets reuse it widely.
const WalletRejectionCode = 4001

// SwapError is a classified adapter or orchestrator failure.
type SwapError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *SwapError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// New creates a SwapError with the given kind and message.
func New(kind Kind, message string) *SwapError {
	return &SwapError{Kind: kind, Message: message}
}

// Wrap creates a SwapError wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *SwapError {
	return &SwapError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, or Internal if none is found.
func KindOf(err error) Kind {
	var se *SwapError
	if errors.As(err, &se) {
		return se.Kind
	}
	return Internal
}

// Is lets errors.Is match SwapErrors by kind: errors.Is(err, swaperr.New(UserRejected, "")).
func (e *SwapError) Is(target error) bool {
	var se *SwapError
	if errors.As(target, &se) {
		return se.Kind == e.Kind
	}
	return false
}

// ProviderError carries a wallet/provider error code alongside its message,
// so rejection can be detected by code rather than by string matching alone.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// IsUserRejection reports whether an error is the user declining a wallet
// prompt: rejection code 4001 or a "rejected" message fragment, any ecosystem.
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Code == WalletRejectionCode {
		return true
	}
	var se *SwapError
	if errors.As(err, &se) && se.Kind == UserRejected {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rejected") || strings.Contains(msg, "user denied")
}

// isInsufficientFunds matches the provider phrasings for a balance shortfall.
func isInsufficientFunds(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient funds") ||
		strings.Contains(msg, "insufficient balance") ||
		strings.Contains(msg, "insufficient lamports")
}

// Classify folds an arbitrary adapter error into the taxonomy. Already
// classified errors pass through unchanged.
func Classify(err error) *SwapError {
	if err == nil {
		return nil
	}
	var se *SwapError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case IsUserRejection(err):
		return Wrap(UserRejected, "transaction rejected in wallet", err)
	case isInsufficientFunds(err):
		return Wrap(InsufficientFunds, "insufficient funds for swap", err)
	default:
		return Wrap(Internal, "swap failed", err)
	}
}

// DisplayMessage returns the one-line, length-bounded text for user display.
// Raw provider errors are never surfaced unmodified.
func DisplayMessage(err error) string {
	se := Classify(err)
	if se == nil {
		return ""
	}
	msg := se.Message
	if msg == "" && se.Err != nil {
		msg = se.Err.Error()
	}
	return Truncate(msg, constants.MaxDisplayErrorLength)
}

// Truncate bounds free-text messages for display.
func Truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		if len(s) <= max {
			return s
		}
		return s[:max]
	}
	return s[:max-3] + "..."
}
