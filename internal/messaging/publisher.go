package messaging

import (
	"context"

	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// Publisher defines the interface for publishing ledger events to a message
// broker. Publishing is best-effort from the ledger's perspective: a failed
// publish never alters ledger state.
type Publisher interface {
	// PublishEvent publishes a ledger event to the message broker
	PublishEvent(ctx context.Context, event *domain.LedgerEvent) error
	// Close closes the connection
	Close()
}
