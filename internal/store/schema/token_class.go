package schema

import (
	"time"
)

// TokenClass represents the token_classes table - the ordered class registry.
// IDs are assigned by the ledger in creation order starting at 0; rows are
// never updated or removed.
type TokenClass struct {
	// ID is the class id assigned by the ledger (not auto-incremented)
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	// MetadataSuffix is combined with the base locator to form the full
	// metadata locator
	MetadataSuffix string `gorm:"column:metadata_suffix;not null;type:text"`
	// CreatedAt is the timestamp when this class was registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenClass model
func (TokenClass) TableName() string {
	return "token_classes"
}
