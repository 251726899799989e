package webhook

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
)

// Endpoint is one registered receive-hook destination
type Endpoint struct {
	URL    string
	Secret string
	// Events filters delivered event types; empty or "*" delivers all
	Events []string
}

// Notifier delivers receive-hook notifications to registered endpoints.
// Delivery is best-effort: failures are logged and never surface to the
// ledger operation that triggered them.
type Notifier struct {
	endpoints []Endpoint
	client    *http.Client
	entropy   *rand.Rand
}

// NewNotifier creates a notifier for the given endpoints
func NewNotifier(endpoints []Endpoint, timeout time.Duration) *Notifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // ULID entropy, not security sensitive
	}
}

// Notify converts a ledger event into receive-hook notifications and
// delivers them to every matching endpoint. A batch mint becomes one hook
// per recipient; events that carry no hook semantics are ignored.
func (n *Notifier) Notify(ctx context.Context, event domain.LedgerEvent) {
	for _, hook := range hookEvents(event) {
		hook.EventID = ulid.MustNew(ulid.Timestamp(time.Now()), n.entropy).String()

		for _, endpoint := range n.endpoints {
			if !matchesFilter(endpoint.Events, hook.EventType) {
				continue
			}
			result := n.deliver(ctx, endpoint, hook)
			if !result.Success {
				logger.Warn("Webhook delivery failed",
					zap.String("url", endpoint.URL),
					zap.String("event_id", hook.EventID),
					zap.Int("status", result.StatusCode),
					zap.String("error", result.Error),
				)
			}
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, endpoint Endpoint, event WebhookEvent) DeliveryResult {
	payload, signature, timestamp, err := GenerateSignedPayload(endpoint.Secret, event)
	if err != nil {
		return DeliveryResult{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return DeliveryResult{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ledger-Signature", signature)
	req.Header.Set("X-Ledger-Timestamp", fmt.Sprintf("%d", timestamp))

	resp, err := n.client.Do(req)
	if err != nil {
		return DeliveryResult{Error: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DeliveryResult{StatusCode: resp.StatusCode, Error: "non-2xx response"}
	}

	return DeliveryResult{Success: true, StatusCode: resp.StatusCode}
}

// hookEvents maps a ledger event to its receive-hook form. Only mint and
// transfer events reach recipient hooks; a batch mint is regrouped into one
// hook per distinct holder carrying only that holder's grants.
func hookEvents(event domain.LedgerEvent) []WebhookEvent {
	switch event.Type {
	case domain.EventTypeMinted:
		return []WebhookEvent{{
			EventType: EventTypeMinted,
			Timestamp: event.Timestamp,
			Data: EventData{
				Holder:   event.Holder.String(),
				ClassIDs: []domain.ClassID{*event.ClassID},
				Amounts:  []uint64{*event.Amount},
				AuxData:  event.AuxData,
			},
		}}
	case domain.EventTypeBatchMinted:
		return batchMintHooks(event)
	case domain.EventTypeTransferred:
		return []WebhookEvent{{
			EventType: EventTypeTransferred,
			Timestamp: event.Timestamp,
			Data: EventData{
				Holder:   event.To.String(),
				From:     event.From.String(),
				ClassIDs: []domain.ClassID{*event.ClassID},
				Amounts:  []uint64{*event.Amount},
				AuxData:  event.AuxData,
			},
		}}
	case domain.EventTypeBatchTransferred:
		return []WebhookEvent{{
			EventType: EventTypeTransferred,
			Timestamp: event.Timestamp,
			Data: EventData{
				Holder:   event.To.String(),
				From:     event.From.String(),
				ClassIDs: event.ClassIDs,
				Amounts:  event.Amounts,
				AuxData:  event.AuxData,
			},
		}}
	default:
		return nil
	}
}

// batchMintHooks groups the parallel holder/class/amount arrays by holder,
// preserving the order in which each holder first appears
func batchMintHooks(event domain.LedgerEvent) []WebhookEvent {
	grouped := make(map[domain.Address]*EventData)
	order := make([]domain.Address, 0, len(event.Holders))

	for i, holder := range event.Holders {
		if i >= len(event.ClassIDs) || i >= len(event.Amounts) {
			break
		}
		data, ok := grouped[holder]
		if !ok {
			data = &EventData{
				Holder:  holder.String(),
				AuxData: event.AuxData,
			}
			grouped[holder] = data
			order = append(order, holder)
		}
		data.ClassIDs = append(data.ClassIDs, event.ClassIDs[i])
		data.Amounts = append(data.Amounts, event.Amounts[i])
	}

	hooks := make([]WebhookEvent, 0, len(order))
	for _, holder := range order {
		hooks = append(hooks, WebhookEvent{
			EventType: EventTypeMinted,
			Timestamp: event.Timestamp,
			Data:      *grouped[holder],
		})
	}
	return hooks
}

func matchesFilter(filter []string, eventType string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == EventTypeWildcard || f == eventType {
			return true
		}
	}
	return false
}
