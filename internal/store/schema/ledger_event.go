package schema

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerEvent represents the ledger_events table - the append-only journal
// of notifications emitted by ledger operations. Subscribers and auditors
// read it in id order.
type LedgerEvent struct {
	// ID is the internal database primary key; insertion order is emission
	// order
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventType is the normalized notification type
	EventType string `gorm:"column:event_type;not null;type:text;index:idx_ledger_events_type"`
	// Payload is the full event JSON
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// EmittedAt is the timestamp carried by the event
	EmittedAt time.Time `gorm:"column:emitted_at;not null;type:timestamptz"`
	// CreatedAt is the timestamp when the row was written
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the LedgerEvent model
func (LedgerEvent) TableName() string {
	return "ledger_events"
}
