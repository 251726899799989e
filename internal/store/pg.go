package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/ledger"
	"github.com/feral-file/ff-token-ledger/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.LedgerState{},
		&schema.TokenClass{},
		&schema.Balance{},
		&schema.LedgerEvent{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// LoadSnapshot reads the persisted ledger state. Returns nil when the
// ledger_state row does not exist yet.
func (s *pgStore) LoadSnapshot(ctx context.Context) (*ledger.Snapshot, error) {
	var state schema.LedgerState
	err := s.db.WithContext(ctx).Where("id = ?", schema.LedgerStateID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger state: %w", err)
	}

	var classes []schema.TokenClass
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to get token classes: %w", err)
	}

	var balances []schema.Balance
	if err := s.db.WithContext(ctx).Order("holder ASC, class_id ASC").Find(&balances).Error; err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	snap := &ledger.Snapshot{
		Administrator:       domain.Address(state.Administrator),
		Name:                state.Name,
		BaseMetadataLocator: state.BaseMetadataLocator,
		TransfersEnabled:    state.TransfersEnabled,
		MarketEnabled:       state.MarketEnabled,
		Classes:             make([]ledger.TokenClass, 0, len(classes)),
		Balances:            make([]ledger.BalanceEntry, 0, len(balances)),
	}

	for _, class := range classes {
		snap.Classes = append(snap.Classes, ledger.TokenClass{
			ID:             domain.ClassID(class.ID),
			MetadataSuffix: class.MetadataSuffix,
		})
	}

	for _, balance := range balances {
		amount, err := strconv.ParseUint(balance.Amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance amount: %w", err)
		}
		snap.Balances = append(snap.Balances, ledger.BalanceEntry{
			Holder:  domain.Address(balance.Holder),
			ClassID: domain.ClassID(balance.ClassID),
			Amount:  amount,
		})
	}

	return snap, nil
}

// Init seeds the store with a freshly constructed ledger's state in a single
// transaction
func (s *pgStore) Init(ctx context.Context, snap ledger.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state := schema.LedgerState{
			ID:                  schema.LedgerStateID,
			Administrator:       snap.Administrator.String(),
			Name:                snap.Name,
			BaseMetadataLocator: snap.BaseMetadataLocator,
			TransfersEnabled:    snap.TransfersEnabled,
			MarketEnabled:       snap.MarketEnabled,
		}
		if err := tx.Create(&state).Error; err != nil {
			return fmt.Errorf("failed to create ledger state: %w", err)
		}

		for _, class := range snap.Classes {
			row := schema.TokenClass{
				ID:             uint64(class.ID),
				MetadataSuffix: class.MetadataSuffix,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create token class: %w", err)
			}
		}

		for _, entry := range snap.Balances {
			row := schema.Balance{
				Holder:  entry.Holder.String(),
				ClassID: uint64(entry.ClassID),
				Amount:  strconv.FormatUint(entry.Amount, 10),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create balance: %w", err)
			}
		}

		return nil
	})
}

// ApplyMutation persists one operation's delta atomically
func (s *pgStore) ApplyMutation(ctx context.Context, mut Mutation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, class := range mut.Classes {
			row := schema.TokenClass{
				ID:             class.ID,
				MetadataSuffix: class.MetadataSuffix,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create token class: %w", err)
			}
		}

		for _, write := range mut.Balances {
			if write.Amount == 0 {
				// Missing row and zero balance are equivalent.
				if err := tx.Where("holder = ? AND class_id = ?", write.Holder, write.ClassID).
					Delete(&schema.Balance{}).Error; err != nil {
					return fmt.Errorf("failed to delete zero balance: %w", err)
				}
				continue
			}

			row := schema.Balance{
				Holder:  write.Holder,
				ClassID: write.ClassID,
				Amount:  strconv.FormatUint(write.Amount, 10),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "holder"}, {Name: "class_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to upsert balance: %w", err)
			}
		}

		if mut.State != nil {
			updates := map[string]any{"updated_at": time.Now()}
			if mut.State.Administrator != nil {
				updates["administrator"] = *mut.State.Administrator
			}
			if mut.State.Name != nil {
				updates["name"] = *mut.State.Name
			}
			if mut.State.TransfersEnabled != nil {
				updates["transfers_enabled"] = *mut.State.TransfersEnabled
			}
			if mut.State.MarketEnabled != nil {
				updates["market_enabled"] = *mut.State.MarketEnabled
			}
			if err := tx.Model(&schema.LedgerState{}).
				Where("id = ?", schema.LedgerStateID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update ledger state: %w", err)
			}
		}

		for _, event := range mut.Events {
			payload, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("failed to marshal event payload: %w", err)
			}
			row := schema.LedgerEvent{
				EventType: string(event.Type),
				Payload:   payload,
				EmittedAt: event.Timestamp,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to append ledger event: %w", err)
			}
		}

		return nil
	})
}
