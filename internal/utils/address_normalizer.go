package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsEvmAddress checks whether the string is a valid 20-byte EVM address
func IsEvmAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress lowercases a hex address so that identical addresses
// always compare equal regardless of checksum casing
// Returns "" for anything that is not a valid EVM address
func NormalizeAddress(address string) string {
	if address == "" {
		return ""
	}
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return ""
	}
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		address = "0x" + address
	}
	return strings.ToLower(address)
}

// SameAddress compares two addresses after normalization
func SameAddress(a, b string) bool {
	na, nb := NormalizeAddress(a), NormalizeAddress(b)
	return na != "" && na == nb
}
