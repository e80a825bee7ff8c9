package swaperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUserRejection(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "EIP-1193 code 4001",
			err:      &ProviderError{Code: 4001, Message: "User rejected the request."},
			expected: true,
		},
		{
			name:     "code 4001 wrapped",
			err:      fmt.Errorf("wallet call failed: %w", &ProviderError{Code: 4001, Message: "denied"}),
			expected: true,
		},
		{
			name:     "solana wallet message",
			err:      errors.New("Transaction rejected"),
			expected: true,
		},
		{
			name:     "metamask message without code",
			err:      errors.New("MetaMask Tx Signature: User denied transaction signature"),
			expected: true,
		},
		{
			name:     "already classified",
			err:      New(UserRejected, "transaction rejected in wallet"),
			expected: true,
		},
		{
			name:     "other provider code",
			err:      &ProviderError{Code: -32603, Message: "internal JSON-RPC error"},
			expected: false,
		},
		{
			name:     "unrelated failure",
			err:      errors.New("nonce too low"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUserRejection(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "rejection",
			err:      &ProviderError{Code: 4001, Message: "rejected"},
			expected: UserRejected,
		},
		{
			name:     "evm balance shortfall",
			err:      errors.New("insufficient funds for gas * price + value"),
			expected: InsufficientFunds,
		},
		{
			name:     "solana balance shortfall",
			err:      errors.New("Attempt to debit an account but found insufficient lamports"),
			expected: InsufficientFunds,
		},
		{
			name:     "unknown failure",
			err:      errors.New("connection reset by peer"),
			expected: Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := Classify(tt.err)
			require.NotNil(t, se)
			assert.Equal(t, tt.expected, se.Kind)
		})
	}
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	orig := New(ConfirmationTimeout, "transaction did not confirm")

	se := Classify(orig)
	assert.Same(t, orig, se)

	se = Classify(fmt.Errorf("swap step failed: %w", orig))
	assert.Same(t, orig, se)
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, UnsupportedChain, KindOf(New(UnsupportedChain, "no adapter")))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", Wrap(BuildTransactionFailed, "bad payload", errors.New("eof")))
	assert.Equal(t, BuildTransactionFailed, KindOf(wrapped))
}

func TestErrorsIsByKind(t *testing.T) {
	err := Wrap(InsufficientFunds, "insufficient funds for swap", errors.New("raw"))

	assert.True(t, errors.Is(err, New(InsufficientFunds, "")))
	assert.False(t, errors.Is(err, New(UserRejected, "")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := Wrap(ProviderUnavailable, "rpc call failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestDisplayMessageTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	msg := DisplayMessage(errors.New(long))

	assert.LessOrEqual(t, len(msg), 140)
	assert.True(t, strings.HasSuffix(msg, "..."))
}

func TestDisplayMessageUsesClassifiedText(t *testing.T) {
	msg := DisplayMessage(&ProviderError{Code: 4001, Message: "raw wallet dump"})
	assert.Equal(t, "transaction rejected in wallet", msg)
	assert.NotContains(t, msg, "raw wallet dump")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijk", 10))
	assert.Equal(t, "ab", Truncate("abcd", 2))
}
