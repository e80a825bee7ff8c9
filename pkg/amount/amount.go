// Package amount converts token quantities between the human-decimal string
// form and the smallest-unit integer string form required by on-chain calls.
// Conversion is exact: no floating point is involved at any stage.
package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToSmallestUnit converts a human-decimal amount ("12.34") into an unsigned
// integer string in the token's base denomination ("12340000" for 6
// decimals). Amounts with more fractional digits than the token carries are
// rejected rather than rounded.
func ToSmallestUnit(humanAmount string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("negative decimals: %d", decimals)
	}
	d, err := decimal.NewFromString(humanAmount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", humanAmount, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("negative amount %q", humanAmount)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return "", fmt.Errorf("amount %q has more than %d fractional digits", humanAmount, decimals)
	}
	return shifted.BigInt().String(), nil
}

// FromSmallestUnit converts a smallest-unit integer string back into the
// canonical human-decimal form (no trailing fractional zeros).
func FromSmallestUnit(units string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("negative decimals: %d", decimals)
	}
	n, ok := new(big.Int).SetString(units, 10)
	if !ok {
		return "", fmt.Errorf("invalid smallest-unit amount %q", units)
	}
	if n.Sign() < 0 {
		return "", fmt.Errorf("negative smallest-unit amount %q", units)
	}
	return decimal.NewFromBigInt(n, -int32(decimals)).String(), nil
}

// ParseUnits parses a smallest-unit integer string into a big.Int.
func ParseUnits(units string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(units, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid smallest-unit amount %q", units)
	}
	return n, nil
}
