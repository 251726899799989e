package domain

import "time"

// EventType represents the type of ledger notification
type EventType string

const (
	EventTypeClassCreated        EventType = "class_created"
	EventTypeMinted              EventType = "minted"
	EventTypeBatchMinted         EventType = "batch_minted"
	EventTypeBurned              EventType = "burned"
	EventTypeBatchBurned         EventType = "batch_burned"
	EventTypeTransferred         EventType = "transferred"
	EventTypeBatchTransferred    EventType = "batch_transferred"
	EventTypeTransfersGateSet    EventType = "transfers_gate_set"
	EventTypeMarketGateSet       EventType = "market_gate_set"
	EventTypeNameChanged         EventType = "name_changed"
	EventTypeAdministrationMoved EventType = "administration_transferred"
)

// LedgerEvent represents a normalized ledger notification.
// This is the standard format handed to the event sink and published to NATS.
// Fields are populated per event type; unused fields are omitted from JSON.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	Caller    Address   `json:"caller"`
	Holder    Address   `json:"holder,omitempty"`    // mint/burn target
	From      Address   `json:"from,omitempty"`      // transfer source
	To        Address   `json:"to,omitempty"`        // transfer recipient, new administrator
	ClassID   *ClassID  `json:"class_id,omitempty"`  // single-element operations
	Amount    *uint64   `json:"amount,omitempty"`    // single-element operations
	Holders   []Address `json:"holders,omitempty"`   // bulk mint
	ClassIDs  []ClassID `json:"class_ids,omitempty"` // batch operations
	Amounts   []uint64  `json:"amounts,omitempty"`   // batch operations
	Suffix    string    `json:"metadata_suffix,omitempty"`
	Enabled   *bool     `json:"enabled,omitempty"` // gate flips
	OldName   string    `json:"old_name,omitempty"`
	NewName   string    `json:"new_name,omitempty"`
	AuxData   []byte    `json:"aux_data,omitempty"` // opaque passthrough for receive hooks
	Timestamp time.Time `json:"timestamp"`
}

// ClassIDPtr returns a pointer to the given class id, for event construction
func ClassIDPtr(id ClassID) *ClassID {
	return &id
}

// Uint64Ptr returns a pointer to the given amount, for event construction
func Uint64Ptr(v uint64) *uint64 {
	return &v
}

// BoolPtr returns a pointer to the given flag, for event construction
func BoolPtr(v bool) *bool {
	return &v
}
