package webhook

import (
	"time"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// Event type constants
const (
	// EventTypeMinted is fired when a holder receives newly minted balance
	EventTypeMinted = "ledger.minted"

	// EventTypeTransferred is fired when balance moves between holders
	EventTypeTransferred = "ledger.transferred"

	// EventTypeWildcard is a special filter that matches all event types
	EventTypeWildcard = "*"
)

// WebhookEvent represents a receive-hook notification to be delivered to a
// registered endpoint
type WebhookEvent struct {
	// EventID is a unique identifier for this event (ULID for time-sortable uniqueness)
	EventID string `json:"event_id"`
	// EventType is the type of event (e.g., "ledger.minted")
	EventType string `json:"event_type"`
	// Timestamp is when the event was generated
	Timestamp time.Time `json:"timestamp"`
	// Data contains the event-specific payload
	Data EventData `json:"data"`
}

// EventData contains the receive-hook payload
type EventData struct {
	// Holder is the recipient of the minted or transferred balance
	Holder string `json:"holder"`
	// From is the transfer source; empty for mints
	From string `json:"from,omitempty"`
	// ClassIDs are the token classes involved
	ClassIDs []domain.ClassID `json:"class_ids"`
	// Amounts are the quantities per class, parallel to ClassIDs
	Amounts []uint64 `json:"amounts"`
	// AuxData is the opaque passthrough supplied by the caller
	AuxData []byte `json:"aux_data,omitempty"`
}

// DeliveryResult represents the result of a webhook delivery attempt
type DeliveryResult struct {
	// Success indicates whether the delivery was successful
	Success bool
	// StatusCode is the HTTP status code returned by the endpoint
	StatusCode int
	// Error contains error details if delivery failed
	Error string
}
