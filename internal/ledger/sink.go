package ledger

import (
	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// EventSink receives the notifications emitted by ledger operations. The
// hosting runtime wires a sink that persists and publishes events; tests
// substitute a recording sink to assert emitted sequences.
type EventSink interface {
	// Emit delivers one ledger notification. Emit is called after the
	// operation's state change has been applied and must not fail the
	// operation.
	Emit(event domain.LedgerEvent)
}

// NopSink discards all events
type NopSink struct{}

// Emit discards the event
func (NopSink) Emit(domain.LedgerEvent) {}

// RecordingSink collects emitted events in order. Intended for tests and for
// runtimes that flush events after an operation completes.
type RecordingSink struct {
	events []domain.LedgerEvent
}

// Emit appends the event to the recorded sequence
func (s *RecordingSink) Emit(event domain.LedgerEvent) {
	s.events = append(s.events, event)
}

// Events returns the recorded events in emission order
func (s *RecordingSink) Events() []domain.LedgerEvent {
	return s.events
}

// Drain returns the recorded events and resets the sink
func (s *RecordingSink) Drain() []domain.LedgerEvent {
	events := s.events
	s.events = nil
	return events
}
