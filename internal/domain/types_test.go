package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected domain.Address
	}{
		{name: "lowercases hex", input: "0xAbCdEf", expected: "0xabcdef"},
		{name: "trims whitespace", input: "  0xabc  ", expected: "0xabc"},
		{name: "already canonical", input: "kt1abc", expected: "kt1abc"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.NormalizeAddress(tt.input))
		})
	}
}

func TestAddress_Valid(t *testing.T) {
	tests := []struct {
		name    string
		address domain.Address
		valid   bool
	}{
		{name: "plain address", address: "0xabc", valid: true},
		{name: "empty", address: "", valid: false},
		{name: "inner space", address: "0x abc", valid: false},
		{name: "tab", address: "0x\tabc", valid: false},
		{name: "newline", address: "0xabc\n", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.address.Valid())
		})
	}
}
