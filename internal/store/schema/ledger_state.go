package schema

import (
	"time"
)

// LedgerStateID is the primary key of the single ledger_state row
const LedgerStateID = 1

// LedgerState represents the ledger_state table - the singleton row holding
// everything outside the class registry and the balance table
type LedgerState struct {
	// ID is always LedgerStateID; the table holds exactly one row
	ID int64 `gorm:"column:id;primaryKey"`
	// Administrator is the privileged identity
	Administrator string `gorm:"column:administrator;not null;type:text"`
	// Name is the mutable display name
	Name string `gorm:"column:name;not null;type:text"`
	// BaseMetadataLocator is the ledger-wide metadata prefix
	BaseMetadataLocator string `gorm:"column:base_metadata_locator;not null;type:text"`
	// TransfersEnabled is the global transfers gate
	TransfersEnabled bool `gorm:"column:transfers_enabled;not null;default:false"`
	// MarketEnabled is the global market gate
	MarketEnabled bool `gorm:"column:market_enabled;not null;default:false"`
	// UpdatedAt is the timestamp of the last state change
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the LedgerState model
func (LedgerState) TableName() string {
	return "ledger_state"
}
