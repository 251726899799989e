package schema

import (
	"time"
)

// Balance represents the balances table - the sparse holder/class balance
// table. A missing row reads as zero; rows that reach zero are deleted.
type Balance struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Holder is the address of the balance owner
	Holder string `gorm:"column:holder;not null;type:text;uniqueIndex:idx_balances_holder_class,priority:1"`
	// ClassID references the token class
	ClassID uint64 `gorm:"column:class_id;not null;uniqueIndex:idx_balances_holder_class,priority:2"`
	// Amount is the held quantity (stored as numeric to stay exact at the
	// full uint64 range)
	Amount string `gorm:"column:amount;not null;type:numeric(20,0)"`
	// CreatedAt is the timestamp when this balance was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this balance was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}
