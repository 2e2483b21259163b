package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// Min returns the smaller of a or b
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a or b
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// DeriveAmount converts an integer base-unit amount into its decimal
// representation: raw / 10^decimals, rendered with full precision
// The raw string remains the source of truth; this is display/query sugar
func DeriveAmount(raw string, decimals int) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty raw amount")
	}

	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", fmt.Errorf("invalid raw amount %q", raw)
	}
	if value.Sign() < 0 {
		return "", fmt.Errorf("negative raw amount %q", raw)
	}
	if decimals < 0 || decimals > 77 {
		return "", fmt.Errorf("decimals out of range: %d", decimals)
	}

	if decimals == 0 {
		return value.String(), nil
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(value, divisor, new(big.Int))

	if rem.Sign() == 0 {
		return quo.String(), nil
	}

	remStr := rem.String()
	if pad := decimals - len(remStr); pad > 0 {
		remStr = strings.Repeat("0", pad) + remStr
	}
	frac := strings.TrimRight(remStr, "0")
	return fmt.Sprintf("%s.%s", quo.String(), frac), nil
}
