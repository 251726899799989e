package ledger

import (
	"math"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// TokenClass represents one registered asset type. Once created, its id and
// metadata suffix are immutable.
type TokenClass struct {
	ID             domain.ClassID `json:"id"`
	MetadataSuffix string         `json:"metadata_suffix"`
}

// Config holds the construction parameters for a ledger
type Config struct {
	// Administrator is the single privileged identity. Required.
	Administrator domain.Address
	// Name is the initial display name. Required, non-empty.
	Name string
	// BaseMetadataLocator is the ledger-wide prefix combined with each
	// class's suffix to form the full metadata locator.
	BaseMetadataLocator string
	// Sink receives emitted notifications. Defaults to NopSink.
	Sink EventSink
	// Clock stamps emitted notifications. Defaults to the real clock.
	Clock adapter.Clock
}

// Ledger is the multi-asset token ledger state machine: it owns the token
// class registry, the per-holder balance table, and the two global gate
// flags, and enforces every invariant and authorization rule.
//
// The ledger assumes linear, non-reentrant execution and does not lock; in a
// multi-caller deployment the surrounding runtime serializes calls into it.
type Ledger struct {
	administrator    domain.Address
	name             string
	baseLocator      string
	classes          []TokenClass
	balances         map[domain.Address]map[domain.ClassID]uint64
	transfersEnabled bool
	marketEnabled    bool

	sink  EventSink
	clock adapter.Clock
}

// New creates a ledger with an empty class registry, an empty balance table,
// and both gates closed
func New(cfg Config) (*Ledger, error) {
	if !cfg.Administrator.Valid() {
		return nil, domain.ErrInvalidAddress
	}
	if cfg.Name == "" {
		return nil, domain.ErrEmptyName
	}

	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = adapter.NewClock()
	}

	return &Ledger{
		administrator: cfg.Administrator,
		name:          cfg.Name,
		baseLocator:   cfg.BaseMetadataLocator,
		balances:      make(map[domain.Address]map[domain.ClassID]uint64),
		sink:          sink,
		clock:         clock,
	}, nil
}

// Administrator returns the current administrator identity
func (l *Ledger) Administrator() domain.Address {
	return l.administrator
}

// Name returns the current display name
func (l *Ledger) Name() string {
	return l.name
}

// BaseMetadataLocator returns the ledger-wide metadata prefix
func (l *Ledger) BaseMetadataLocator() string {
	return l.baseLocator
}

// TransfersEnabled reports whether the transfers gate is open
func (l *Ledger) TransfersEnabled() bool {
	return l.transfersEnabled
}

// MarketEnabled reports whether the market gate is open. The ledger performs
// no marketplace logic itself; the gate is published for external
// marketplace collaborators to consult.
func (l *Ledger) MarketEnabled() bool {
	return l.marketEnabled
}

// ClassCount returns the number of classes ever created
func (l *Ledger) ClassCount() uint64 {
	return uint64(len(l.classes))
}

// Classes returns the ordered class registry
func (l *Ledger) Classes() []TokenClass {
	classes := make([]TokenClass, len(l.classes))
	copy(classes, l.classes)
	return classes
}

// BalanceOf returns the balance of a holder for a class. Returns 0 for any
// holder/class combination never minted.
func (l *Ledger) BalanceOf(holder domain.Address, classID domain.ClassID) uint64 {
	return l.balances[holder][classID]
}

// ResolveMetadata returns the full metadata locator for a class: the
// concatenation of the base locator and the class's suffix
func (l *Ledger) ResolveMetadata(classID domain.ClassID) (string, error) {
	if !l.classExists(classID) {
		return "", domain.ErrUnknownTokenClass
	}
	return l.baseLocator + l.classes[classID].MetadataSuffix, nil
}

// CreateTokenClass appends a new class with the next sequential id and
// returns that id. The returned id matches the id carried by the emitted
// notification.
func (l *Ledger) CreateTokenClass(caller domain.Address, metadataSuffix string) (domain.ClassID, error) {
	if err := l.requireAdministrator(caller); err != nil {
		return 0, err
	}

	id := domain.ClassID(len(l.classes))
	l.classes = append(l.classes, TokenClass{ID: id, MetadataSuffix: metadataSuffix})

	l.emit(domain.LedgerEvent{
		Type:    domain.EventTypeClassCreated,
		Caller:  caller,
		ClassID: domain.ClassIDPtr(id),
		Suffix:  metadataSuffix,
	})

	return id, nil
}

// Mint increases a holder's balance for an existing class. auxData is opaque
// passthrough for receive hooks and has no effect on ledger state.
func (l *Ledger) Mint(caller, holder domain.Address, classID domain.ClassID, amount uint64, auxData []byte) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	if !l.classExists(classID) {
		return domain.ErrUnknownTokenClass
	}

	st := l.stage()
	if err := st.credit(holder, classID, amount); err != nil {
		return err
	}
	st.commit()

	l.emit(domain.LedgerEvent{
		Type:    domain.EventTypeMinted,
		Caller:  caller,
		Holder:  holder,
		ClassID: domain.ClassIDPtr(classID),
		Amount:  domain.Uint64Ptr(amount),
		AuxData: auxData,
	})

	return nil
}

// BulkMint applies a mint for each index in array order, all-or-nothing:
// if any element's class does not exist or any credit would overflow, no
// element takes effect.
func (l *Ledger) BulkMint(caller domain.Address, holders []domain.Address, classIDs []domain.ClassID, amounts []uint64, auxData []byte) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	if len(holders) != len(classIDs) || len(classIDs) != len(amounts) {
		return domain.ErrArrayLengthMismatch
	}

	// Validate every element before mutating anything.
	for _, classID := range classIDs {
		if !l.classExists(classID) {
			return domain.ErrUnknownTokenClass
		}
	}

	st := l.stage()
	for i := range holders {
		if err := st.credit(holders[i], classIDs[i], amounts[i]); err != nil {
			return err
		}
	}
	st.commit()

	l.emit(domain.LedgerEvent{
		Type:     domain.EventTypeBatchMinted,
		Caller:   caller,
		Holders:  holders,
		ClassIDs: classIDs,
		Amounts:  amounts,
		AuxData:  auxData,
	})

	return nil
}

// Burn decreases the caller's own balance for a class
func (l *Ledger) Burn(caller domain.Address, classID domain.ClassID, amount uint64) error {
	return l.burn(caller, caller, classID, amount)
}

// BurnFrom decreases an arbitrary holder's balance. Administrator-only; this
// bypasses the self-service restriction of Burn.
func (l *Ledger) BurnFrom(caller, holder domain.Address, classID domain.ClassID, amount uint64) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	return l.burn(caller, holder, classID, amount)
}

func (l *Ledger) burn(caller, holder domain.Address, classID domain.ClassID, amount uint64) error {
	st := l.stage()
	if err := st.debit(holder, classID, amount); err != nil {
		return err
	}
	st.commit()

	l.emit(domain.LedgerEvent{
		Type:    domain.EventTypeBurned,
		Caller:  caller,
		Holder:  holder,
		ClassID: domain.ClassIDPtr(classID),
		Amount:  domain.Uint64Ptr(amount),
	})

	return nil
}

// BatchBurn decreases the caller's own balances, all-or-nothing: every
// element is validated before any mutation is applied
func (l *Ledger) BatchBurn(caller domain.Address, classIDs []domain.ClassID, amounts []uint64) error {
	return l.batchBurn(caller, caller, classIDs, amounts)
}

// BatchBurnFrom decreases an arbitrary holder's balances, all-or-nothing.
// Administrator-only.
func (l *Ledger) BatchBurnFrom(caller, holder domain.Address, classIDs []domain.ClassID, amounts []uint64) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	return l.batchBurn(caller, holder, classIDs, amounts)
}

func (l *Ledger) batchBurn(caller, holder domain.Address, classIDs []domain.ClassID, amounts []uint64) error {
	if len(classIDs) != len(amounts) {
		return domain.ErrArrayLengthMismatch
	}

	st := l.stage()
	for i := range classIDs {
		if err := st.debit(holder, classIDs[i], amounts[i]); err != nil {
			return err
		}
	}
	st.commit()

	l.emit(domain.LedgerEvent{
		Type:     domain.EventTypeBatchBurned,
		Caller:   caller,
		Holder:   holder,
		ClassIDs: classIDs,
		Amounts:  amounts,
	})

	return nil
}

// Transfer moves amount of a class from one holder to another. Permitted
// only when the transfers gate is open or the caller is the administrator;
// a non-administrator caller may only move their own balance.
func (l *Ledger) Transfer(caller, from, to domain.Address, classID domain.ClassID, amount uint64, auxData []byte) error {
	if err := l.authorizeTransfer(caller, from); err != nil {
		return err
	}

	st := l.stage()
	if err := st.debit(from, classID, amount); err != nil {
		return err
	}
	if err := st.credit(to, classID, amount); err != nil {
		return err
	}
	st.commit()

	l.emit(domain.LedgerEvent{
		Type:    domain.EventTypeTransferred,
		Caller:  caller,
		From:    from,
		To:      to,
		ClassID: domain.ClassIDPtr(classID),
		Amount:  domain.Uint64Ptr(amount),
		AuxData: auxData,
	})

	return nil
}

// BatchTransfer moves amounts of several classes between the same pair of
// holders, all-or-nothing
func (l *Ledger) BatchTransfer(caller, from, to domain.Address, classIDs []domain.ClassID, amounts []uint64, auxData []byte) error {
	if err := l.authorizeTransfer(caller, from); err != nil {
		return err
	}
	if len(classIDs) != len(amounts) {
		return domain.ErrArrayLengthMismatch
	}

	st := l.stage()
	for i := range classIDs {
		if err := st.debit(from, classIDs[i], amounts[i]); err != nil {
			return err
		}
		if err := st.credit(to, classIDs[i], amounts[i]); err != nil {
			return err
		}
	}
	st.commit()

	l.emit(domain.LedgerEvent{
		Type:     domain.EventTypeBatchTransferred,
		Caller:   caller,
		From:     from,
		To:       to,
		ClassIDs: classIDs,
		Amounts:  amounts,
		AuxData:  auxData,
	})

	return nil
}

// SetTransfersEnabled flips the global transfers gate
func (l *Ledger) SetTransfersEnabled(caller domain.Address, enabled bool) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	l.transfersEnabled = enabled

	l.emit(domain.LedgerEvent{
		Type:    domain.EventTypeTransfersGateSet,
		Caller:  caller,
		Enabled: domain.BoolPtr(enabled),
	})

	return nil
}

// SetMarketEnabled flips the global market gate
func (l *Ledger) SetMarketEnabled(caller domain.Address, enabled bool) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	l.marketEnabled = enabled

	l.emit(domain.LedgerEvent{
		Type:    domain.EventTypeMarketGateSet,
		Caller:  caller,
		Enabled: domain.BoolPtr(enabled),
	})

	return nil
}

// SetName replaces the display name. The name has no effect on accounting.
func (l *Ledger) SetName(caller domain.Address, newName string) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	if newName == "" {
		return domain.ErrEmptyName
	}

	oldName := l.name
	l.name = newName

	l.emit(domain.LedgerEvent{
		Type:    domain.EventTypeNameChanged,
		Caller:  caller,
		OldName: oldName,
		NewName: newName,
	})

	return nil
}

// TransferAdministration hands the administrator role to a new identity
func (l *Ledger) TransferAdministration(caller, newAdministrator domain.Address) error {
	if err := l.requireAdministrator(caller); err != nil {
		return err
	}
	if !newAdministrator.Valid() {
		return domain.ErrInvalidAddress
	}

	l.administrator = newAdministrator

	l.emit(domain.LedgerEvent{
		Type:   domain.EventTypeAdministrationMoved,
		Caller: caller,
		To:     newAdministrator,
	})

	return nil
}

func (l *Ledger) requireAdministrator(caller domain.Address) error {
	if caller != l.administrator {
		return domain.ErrNotAdministrator
	}
	return nil
}

// authorizeTransfer enforces the transfers gate and the self-service rule.
// The administrator bypasses both; checked before any balance mutation.
func (l *Ledger) authorizeTransfer(caller, from domain.Address) error {
	if caller == l.administrator {
		return nil
	}
	if !l.transfersEnabled {
		return domain.ErrTransfersDisabled
	}
	if caller != from {
		return domain.ErrNotAdministrator
	}
	return nil
}

func (l *Ledger) classExists(classID domain.ClassID) bool {
	return uint64(classID) < uint64(len(l.classes))
}

func (l *Ledger) emit(event domain.LedgerEvent) {
	event.Timestamp = l.clock.Now()
	l.sink.Emit(event)
}

// staging accumulates balance mutations so batch operations commit
// all-or-nothing: nothing is written to the live table until commit
type staging struct {
	ledger  *Ledger
	touched map[domain.Address]map[domain.ClassID]uint64
}

func (l *Ledger) stage() *staging {
	return &staging{
		ledger:  l,
		touched: make(map[domain.Address]map[domain.ClassID]uint64),
	}
}

func (st *staging) get(holder domain.Address, classID domain.ClassID) uint64 {
	if classes, ok := st.touched[holder]; ok {
		if amount, ok := classes[classID]; ok {
			return amount
		}
	}
	return st.ledger.balances[holder][classID]
}

func (st *staging) set(holder domain.Address, classID domain.ClassID, amount uint64) {
	classes, ok := st.touched[holder]
	if !ok {
		classes = make(map[domain.ClassID]uint64)
		st.touched[holder] = classes
	}
	classes[classID] = amount
}

func (st *staging) credit(holder domain.Address, classID domain.ClassID, amount uint64) error {
	current := st.get(holder, classID)
	if amount > math.MaxUint64-current {
		return domain.ErrArithmeticOverflow
	}
	st.set(holder, classID, current+amount)
	return nil
}

func (st *staging) debit(holder domain.Address, classID domain.ClassID, amount uint64) error {
	current := st.get(holder, classID)
	if current < amount {
		return domain.ErrInsufficientBalance
	}
	st.set(holder, classID, current-amount)
	return nil
}

// commit writes staged balances to the live table. Zero entries are removed:
// an entry with amount 0 is equivalent to no entry.
func (st *staging) commit() {
	for holder, classes := range st.touched {
		live, ok := st.ledger.balances[holder]
		if !ok {
			live = make(map[domain.ClassID]uint64)
			st.ledger.balances[holder] = live
		}
		for classID, amount := range classes {
			if amount == 0 {
				delete(live, classID)
			} else {
				live[classID] = amount
			}
		}
		if len(live) == 0 {
			delete(st.ledger.balances, holder)
		}
	}
}
