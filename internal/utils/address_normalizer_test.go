package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"checksum casing", "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", "0xab5801a7d398351b8be11c439e05c5b3259aec9b"},
		{"already lowercase", "0xab5801a7d398351b8be11c439e05c5b3259aec9b", "0xab5801a7d398351b8be11c439e05c5b3259aec9b"},
		{"no prefix", "ab5801a7d398351b8be11c439e05c5b3259aec9b", "0xab5801a7d398351b8be11c439e05c5b3259aec9b"},
		{"surrounding whitespace", "  0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B  ", "0xab5801a7d398351b8be11c439e05c5b3259aec9b"},
		{"empty", "", ""},
		{"too short", "0x1234", ""},
		{"not hex", "0xZZ5801a7d398351b8be11c439e05c5b3259aec9b", ""},
		{"random text", "hello world", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAddress(tt.input))
		})
	}
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress(
		"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		"0xab5801a7d398351b8be11c439e05c5b3259aec9b"))
	assert.False(t, SameAddress(
		"0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		"0x00000000000000000000000000000000000000a1"))
	assert.False(t, SameAddress("", ""), "two invalid addresses never match")
}

func TestNetworkRegistryLookup(t *testing.T) {
	info, err := GlobalNetworkRegistry.GetByID(137)
	assert.NoError(t, err)
	assert.Equal(t, "polygon", info.Slug)

	info, err = GlobalNetworkRegistry.GetBySlug("base")
	assert.NoError(t, err)
	assert.Equal(t, uint32(8453), info.NetworkID)

	_, err = GlobalNetworkRegistry.GetByID(999999)
	assert.Error(t, err)

	assert.Equal(t, "Ethereum", NetworkName(1))
	assert.Equal(t, "network-42", NetworkName(42))
}
