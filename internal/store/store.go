package store

import (
	"context"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/ledger"
)

// ClassWrite is one new token class to persist
type ClassWrite struct {
	ID             uint64
	MetadataSuffix string
}

// BalanceWrite is one balance row to persist. Amount 0 deletes the row:
// a missing row and a zero balance are equivalent.
type BalanceWrite struct {
	Holder  string
	ClassID uint64
	Amount  uint64
}

// StateUpdate carries changed ledger_state fields; nil fields are untouched
type StateUpdate struct {
	Administrator    *string
	Name             *string
	TransfersEnabled *bool
	MarketEnabled    *bool
}

// Mutation is the persistent delta of one ledger operation. ApplyMutation
// writes the whole mutation in a single database transaction so persisted
// state never reflects a partially-applied operation.
type Mutation struct {
	Classes  []ClassWrite
	Balances []BalanceWrite
	State    *StateUpdate
	Events   []domain.LedgerEvent
}

// Store defines the interface for ledger persistence
type Store interface {
	// LoadSnapshot reads the persisted ledger state. Returns nil when the
	// store has never been initialized.
	LoadSnapshot(ctx context.Context) (*ledger.Snapshot, error)
	// Init seeds the store with a freshly constructed ledger's state
	Init(ctx context.Context, snap ledger.Snapshot) error
	// ApplyMutation persists one operation's delta atomically
	ApplyMutation(ctx context.Context, mut Mutation) error
}
