package runtime

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/ledger"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/messaging"
	"github.com/feral-file/ff-token-ledger/internal/registry"
	"github.com/feral-file/ff-token-ledger/internal/store"
	"github.com/feral-file/ff-token-ledger/internal/webhook"
)

// Seed holds the initial ledger identity used when the store is empty
type Seed struct {
	Administrator       domain.Address
	Name                string
	BaseMetadataLocator string
	// Allocation optionally creates token classes and mints initial
	// balances on first boot
	Allocation *registry.Allocation
}

// Config holds runtime dependencies. Store, Publisher and Notifier are
// optional; a nil Store keeps the ledger in memory only.
type Config struct {
	Store     store.Store
	Publisher messaging.Publisher
	Notifier  *webhook.Notifier
	Clock     adapter.Clock
	Seed      Seed
}

// Runtime hosts the ledger state machine. It serializes all access through
// a mutex, persists each operation's delta before acknowledging it, and
// fans out emitted events to NATS and receive hooks best-effort.
type Runtime struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	sink      *ledger.RecordingSink
	store     store.Store
	publisher messaging.Publisher
	notifier  *webhook.Notifier
	clock     adapter.Clock
}

// New boots a runtime: restores the ledger from the store when persisted
// state exists, otherwise constructs a fresh ledger from the seed and
// applies the genesis allocation.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	r := &Runtime{
		sink:      &ledger.RecordingSink{},
		store:     cfg.Store,
		publisher: cfg.Publisher,
		notifier:  cfg.Notifier,
		clock:     cfg.Clock,
	}
	if r.clock == nil {
		r.clock = adapter.NewClock()
	}

	var snap *ledger.Snapshot
	if r.store != nil {
		var err error
		snap, err = r.store.LoadSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger snapshot: %w", err)
		}
	}

	if snap != nil {
		l, err := ledger.Restore(*snap, r.sink, r.clock)
		if err != nil {
			return nil, fmt.Errorf("failed to restore ledger: %w", err)
		}
		r.ledger = l
		logger.Info("Ledger restored from store",
			zap.String("administrator", snap.Administrator.String()),
			zap.Int("classes", len(snap.Classes)),
			zap.Int("balances", len(snap.Balances)),
		)
		return r, nil
	}

	l, err := ledger.New(ledger.Config{
		Administrator:       cfg.Seed.Administrator,
		Name:                cfg.Seed.Name,
		BaseMetadataLocator: cfg.Seed.BaseMetadataLocator,
		Sink:                r.sink,
		Clock:               r.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}
	r.ledger = l

	if err := r.applyAllocation(cfg.Seed.Allocation); err != nil {
		return nil, err
	}
	genesisEvents := r.sink.Drain()

	if r.store != nil {
		if err := r.store.Init(ctx, l.Snapshot()); err != nil {
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		if len(genesisEvents) > 0 {
			if err := r.store.ApplyMutation(ctx, store.Mutation{Events: genesisEvents}); err != nil {
				return nil, fmt.Errorf("failed to journal genesis events: %w", err)
			}
		}
	}
	r.fanOut(ctx, genesisEvents)

	logger.Info("Ledger seeded",
		zap.String("administrator", cfg.Seed.Administrator.String()),
		zap.Uint64("classes", l.ClassCount()),
	)
	return r, nil
}

// applyAllocation creates the allocation's token classes and mints its
// grants on behalf of the administrator
func (r *Runtime) applyAllocation(alloc *registry.Allocation) error {
	if alloc == nil {
		return nil
	}

	admin := r.ledger.Administrator()
	firstClassID := domain.ClassID(r.ledger.ClassCount())

	for _, class := range alloc.Classes() {
		if _, err := r.ledger.CreateTokenClass(admin, class.MetadataSuffix); err != nil {
			return fmt.Errorf("failed to create allocation class: %w", err)
		}
	}

	holders, classIDs, amounts := alloc.Grants(firstClassID)
	if len(holders) == 0 {
		return nil
	}
	if err := r.ledger.BulkMint(admin, holders, classIDs, amounts, nil); err != nil {
		return fmt.Errorf("failed to mint allocation grants: %w", err)
	}
	return nil
}

// execute runs one mutating ledger operation under the runtime mutex. The
// operation's delta is persisted atomically before the call returns; if
// persistence fails the in-memory ledger is rolled back and the operation
// reports failure. Event fan-out happens after the state is durable.
func (r *Runtime) execute(ctx context.Context, op func(l *ledger.Ledger) error) error {
	r.mu.Lock()

	before := r.ledger.Snapshot()
	if err := op(r.ledger); err != nil {
		r.sink.Drain()
		r.mu.Unlock()
		return err
	}

	events := r.sink.Drain()
	mut := r.buildMutation(events)

	if r.store != nil {
		if err := r.store.ApplyMutation(ctx, mut); err != nil {
			restored, restoreErr := ledger.Restore(before, r.sink, r.clock)
			if restoreErr != nil {
				r.mu.Unlock()
				logger.Error(restoreErr, zap.String("stage", "rollback"))
				return fmt.Errorf("failed to persist ledger mutation: %w", err)
			}
			r.ledger = restored
			r.mu.Unlock()
			return fmt.Errorf("failed to persist ledger mutation: %w", err)
		}
	}
	r.mu.Unlock()

	r.fanOut(ctx, events)
	return nil
}

// buildMutation derives the persistent delta of an operation from its
// emitted events and the post-operation ledger state. Must be called with
// the mutex held, after the operation succeeded.
func (r *Runtime) buildMutation(events []domain.LedgerEvent) store.Mutation {
	mut := store.Mutation{Events: events}

	type pair struct {
		holder  domain.Address
		classID domain.ClassID
	}
	touched := make(map[pair]struct{})
	touch := func(holder domain.Address, classID domain.ClassID) {
		touched[pair{holder, classID}] = struct{}{}
	}

	var state store.StateUpdate
	stateChanged := false

	for _, event := range events {
		switch event.Type {
		case domain.EventTypeClassCreated:
			mut.Classes = append(mut.Classes, store.ClassWrite{
				ID:             uint64(*event.ClassID),
				MetadataSuffix: event.Suffix,
			})
		case domain.EventTypeMinted, domain.EventTypeBurned:
			touch(event.Holder, *event.ClassID)
		case domain.EventTypeBatchMinted:
			for i := range event.Holders {
				touch(event.Holders[i], event.ClassIDs[i])
			}
		case domain.EventTypeBatchBurned:
			for _, classID := range event.ClassIDs {
				touch(event.Holder, classID)
			}
		case domain.EventTypeTransferred:
			touch(event.From, *event.ClassID)
			touch(event.To, *event.ClassID)
		case domain.EventTypeBatchTransferred:
			for _, classID := range event.ClassIDs {
				touch(event.From, classID)
				touch(event.To, classID)
			}
		case domain.EventTypeTransfersGateSet:
			state.TransfersEnabled = event.Enabled
			stateChanged = true
		case domain.EventTypeMarketGateSet:
			state.MarketEnabled = event.Enabled
			stateChanged = true
		case domain.EventTypeNameChanged:
			name := event.NewName
			state.Name = &name
			stateChanged = true
		case domain.EventTypeAdministrationMoved:
			admin := event.To.String()
			state.Administrator = &admin
			stateChanged = true
		}
	}

	for p := range touched {
		mut.Balances = append(mut.Balances, store.BalanceWrite{
			Holder:  p.holder.String(),
			ClassID: uint64(p.classID),
			Amount:  r.ledger.BalanceOf(p.holder, p.classID),
		})
	}
	if stateChanged {
		mut.State = &state
	}

	return mut
}

// fanOut publishes events to NATS and delivers receive hooks. Both are
// best-effort: failures are logged and never fail the operation.
func (r *Runtime) fanOut(ctx context.Context, events []domain.LedgerEvent) {
	for i := range events {
		if r.publisher != nil {
			if err := r.publisher.PublishEvent(ctx, &events[i]); err != nil {
				logger.Error(err,
					zap.String("stage", "publish"),
					zap.String("event_type", string(events[i].Type)),
				)
			}
		}
		if r.notifier != nil {
			r.notifier.Notify(ctx, events[i])
		}
	}
}

// CreateTokenClass registers a new token class and returns its id
func (r *Runtime) CreateTokenClass(ctx context.Context, caller domain.Address, metadataSuffix string) (domain.ClassID, error) {
	var id domain.ClassID
	err := r.execute(ctx, func(l *ledger.Ledger) error {
		var opErr error
		id, opErr = l.CreateTokenClass(caller, metadataSuffix)
		return opErr
	})
	return id, err
}

// Mint credits newly created balance to a holder
func (r *Runtime) Mint(ctx context.Context, caller, holder domain.Address, classID domain.ClassID, amount uint64, auxData []byte) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.Mint(caller, holder, classID, amount, auxData)
	})
}

// BulkMint credits balances to multiple holders atomically
func (r *Runtime) BulkMint(ctx context.Context, caller domain.Address, holders []domain.Address, classIDs []domain.ClassID, amounts []uint64, auxData []byte) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.BulkMint(caller, holders, classIDs, amounts, auxData)
	})
}

// Burn destroys balance held by the caller
func (r *Runtime) Burn(ctx context.Context, caller domain.Address, classID domain.ClassID, amount uint64) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.Burn(caller, classID, amount)
	})
}

// BurnFrom destroys balance held by another holder
func (r *Runtime) BurnFrom(ctx context.Context, caller, holder domain.Address, classID domain.ClassID, amount uint64) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.BurnFrom(caller, holder, classID, amount)
	})
}

// BatchBurn destroys balances across classes held by the caller atomically
func (r *Runtime) BatchBurn(ctx context.Context, caller domain.Address, classIDs []domain.ClassID, amounts []uint64) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.BatchBurn(caller, classIDs, amounts)
	})
}

// BatchBurnFrom destroys balances across classes held by another holder atomically
func (r *Runtime) BatchBurnFrom(ctx context.Context, caller, holder domain.Address, classIDs []domain.ClassID, amounts []uint64) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.BatchBurnFrom(caller, holder, classIDs, amounts)
	})
}

// Transfer moves balance between holders
func (r *Runtime) Transfer(ctx context.Context, caller, from, to domain.Address, classID domain.ClassID, amount uint64, auxData []byte) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.Transfer(caller, from, to, classID, amount, auxData)
	})
}

// BatchTransfer moves balances across classes between holders atomically
func (r *Runtime) BatchTransfer(ctx context.Context, caller, from, to domain.Address, classIDs []domain.ClassID, amounts []uint64, auxData []byte) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.BatchTransfer(caller, from, to, classIDs, amounts, auxData)
	})
}

// SetTransfersEnabled flips the global transfer gate
func (r *Runtime) SetTransfersEnabled(ctx context.Context, caller domain.Address, enabled bool) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.SetTransfersEnabled(caller, enabled)
	})
}

// SetMarketEnabled flips the global market gate
func (r *Runtime) SetMarketEnabled(ctx context.Context, caller domain.Address, enabled bool) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.SetMarketEnabled(caller, enabled)
	})
}

// SetName changes the ledger display name
func (r *Runtime) SetName(ctx context.Context, caller domain.Address, newName string) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.SetName(caller, newName)
	})
}

// TransferAdministration hands the administrator role to a new address
func (r *Runtime) TransferAdministration(ctx context.Context, caller, newAdministrator domain.Address) error {
	return r.execute(ctx, func(l *ledger.Ledger) error {
		return l.TransferAdministration(caller, newAdministrator)
	})
}

// Administrator returns the current administrator address
func (r *Runtime) Administrator() domain.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Administrator()
}

// Name returns the ledger display name
func (r *Runtime) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Name()
}

// TransfersEnabled reports the transfer gate
func (r *Runtime) TransfersEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.TransfersEnabled()
}

// MarketEnabled reports the market gate
func (r *Runtime) MarketEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.MarketEnabled()
}

// ClassCount returns the number of registered token classes
func (r *Runtime) ClassCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.ClassCount()
}

// Classes returns the registered token classes in id order
func (r *Runtime) Classes() []ledger.TokenClass {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Classes()
}

// BalanceOf returns the holder's balance for a class
func (r *Runtime) BalanceOf(holder domain.Address, classID domain.ClassID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.BalanceOf(holder, classID)
}

// ResolveMetadata returns the metadata locator of a token class
func (r *Runtime) ResolveMetadata(classID domain.ClassID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.ResolveMetadata(classID)
}
