package domain

import (
	"strings"
)

// Address represents an address-like principal on the ledger. The hosting
// runtime authenticates callers and hands their address to the ledger; the
// ledger itself treats addresses as opaque identities.
type Address string

// ClassID identifies a token class. IDs are assigned sequentially starting
// at 0 in creation order and are never reused.
type ClassID uint64

// NormalizeAddress normalizes an address to the canonical comparison form.
// Hex addresses are case-insensitive, so everything is lowered.
func NormalizeAddress(address string) Address {
	return Address(strings.ToLower(strings.TrimSpace(address)))
}

// Valid checks if an address is usable as a ledger principal
func (a Address) Valid() bool {
	s := string(a)
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, " \t\n")
}

// String returns the string representation of the Address
func (a Address) String() string {
	return string(a)
}
