package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int
		want     string
	}{
		{"whole token", "1000000000000000000", 18, "1"},
		{"fractional", "1500000000000000000", 18, "1.5"},
		{"sub-unit", "1", 18, "0.000000000000000001"},
		{"zero", "0", 18, "0"},
		{"zero decimals", "12345", 0, "12345"},
		{"six decimals", "2500000", 6, "2.5"},
		{"trailing zeros trimmed", "1230000", 6, "1.23"},
		{"no integer part", "999", 6, "0.000999"},
		{"max uint256", "115792089237316195423570985008687907853269984665640564039457584007913129639935", 18,
			"115792089237316195423570985008687907853269984665640564039457.584007913129639935"},
		{"whitespace tolerated", " 42 ", 0, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveAmount(tt.raw, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveAmountRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int
	}{
		{"empty", "", 18},
		{"not a number", "abc", 18},
		{"decimal point", "1.5", 18},
		{"negative", "-100", 18},
		{"negative decimals", "100", -1},
		{"decimals too large", "100", 78},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveAmount(tt.raw, tt.decimals)
			assert.Error(t, err)
		})
	}
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, 1, Min(2, 1))
	assert.Equal(t, 2, Max(1, 2))
	assert.Equal(t, -1, Max(-1, -2))
}
