package ledger

import (
	"sort"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// BalanceEntry is one row of the sparse balance table
type BalanceEntry struct {
	Holder  domain.Address `json:"holder"`
	ClassID domain.ClassID `json:"class_id"`
	Amount  uint64         `json:"amount"`
}

// Snapshot captures the full serializable ledger state: administrator,
// display name, base metadata locator, the ordered class registry, the
// sparse balance table, and the two gate booleans
type Snapshot struct {
	Administrator       domain.Address `json:"administrator"`
	Name                string         `json:"name"`
	BaseMetadataLocator string         `json:"base_metadata_locator"`
	Classes             []TokenClass   `json:"classes"`
	Balances            []BalanceEntry `json:"balances"`
	TransfersEnabled    bool           `json:"transfers_enabled"`
	MarketEnabled       bool           `json:"market_enabled"`
}

// Snapshot returns a deep copy of the current ledger state. Balance entries
// are sorted by holder then class id for deterministic output.
func (l *Ledger) Snapshot() Snapshot {
	balances := make([]BalanceEntry, 0, len(l.balances))
	for holder, classes := range l.balances {
		for classID, amount := range classes {
			balances = append(balances, BalanceEntry{
				Holder:  holder,
				ClassID: classID,
				Amount:  amount,
			})
		}
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Holder != balances[j].Holder {
			return balances[i].Holder < balances[j].Holder
		}
		return balances[i].ClassID < balances[j].ClassID
	})

	return Snapshot{
		Administrator:       l.administrator,
		Name:                l.name,
		BaseMetadataLocator: l.baseLocator,
		Classes:             l.Classes(),
		Balances:            balances,
		TransfersEnabled:    l.transfersEnabled,
		MarketEnabled:       l.marketEnabled,
	}
}

// Restore rebuilds a ledger from a snapshot. Restoring emits no
// notifications.
func Restore(snap Snapshot, sink EventSink, clock adapter.Clock) (*Ledger, error) {
	l, err := New(Config{
		Administrator:       snap.Administrator,
		Name:                snap.Name,
		BaseMetadataLocator: snap.BaseMetadataLocator,
		Sink:                sink,
		Clock:               clock,
	})
	if err != nil {
		return nil, err
	}

	l.classes = make([]TokenClass, len(snap.Classes))
	copy(l.classes, snap.Classes)

	for _, entry := range snap.Balances {
		if entry.Amount == 0 {
			continue
		}
		if !l.classExists(entry.ClassID) {
			return nil, domain.ErrUnknownTokenClass
		}
		classes, ok := l.balances[entry.Holder]
		if !ok {
			classes = make(map[domain.ClassID]uint64)
			l.balances[entry.Holder] = classes
		}
		classes[entry.ClassID] = entry.Amount
	}

	l.transfersEnabled = snap.TransfersEnabled
	l.marketEnabled = snap.MarketEnabled

	return l, nil
}
