package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/webhook"
)

func TestGenerateSignedPayload(t *testing.T) {
	t.Run("generates valid payload and signature", func(t *testing.T) {
		secret := "test-secret-key"
		event := webhook.WebhookEvent{
			EventID:   "01JG8XAMPLE1234567890123456",
			EventType: webhook.EventTypeMinted,
			Timestamp: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
			Data: webhook.EventData{
				Holder:   "0xalice",
				ClassIDs: []domain.ClassID{0},
				Amounts:  []uint64{100},
			},
		}

		payload, signature, timestamp, err := webhook.GenerateSignedPayload(secret, event)
		require.NoError(t, err)

		// Payload is the JSON rendering of the event
		var parsedEvent webhook.WebhookEvent
		require.NoError(t, json.Unmarshal(payload, &parsedEvent))
		assert.Equal(t, event.EventID, parsedEvent.EventID)
		assert.Equal(t, event.EventType, parsedEvent.EventType)
		assert.Equal(t, event.Data.Holder, parsedEvent.Data.Holder)

		// Signature format
		assert.Contains(t, signature, "sha256=")
		assert.Greater(t, len(signature), 7)

		// Timestamp is current
		now := time.Now().Unix()
		assert.GreaterOrEqual(t, now, timestamp)
		assert.Less(t, now-timestamp, int64(5))

		// The signature verifies against the documented format
		signaturePayload := fmt.Sprintf("%d.%s.%s", timestamp, event.EventID, string(payload))
		h := hmac.New(sha256.New, []byte(secret))
		h.Write([]byte(signaturePayload))
		expectedSignature := "sha256=" + hex.EncodeToString(h.Sum(nil))
		assert.Equal(t, expectedSignature, signature)
	})

	t.Run("different events produce different signatures", func(t *testing.T) {
		secret := "test-secret-key"
		event1 := webhook.WebhookEvent{
			EventID:   "01JG8XAMPLE1111111111111111",
			EventType: webhook.EventTypeMinted,
			Data:      webhook.EventData{Holder: "0xalice", ClassIDs: []domain.ClassID{0}, Amounts: []uint64{1}},
		}
		event2 := webhook.WebhookEvent{
			EventID:   "01JG8XAMPLE2222222222222222",
			EventType: webhook.EventTypeTransferred,
			Data:      webhook.EventData{Holder: "0xbob", ClassIDs: []domain.ClassID{1}, Amounts: []uint64{2}},
		}

		_, sig1, _, err := webhook.GenerateSignedPayload(secret, event1)
		require.NoError(t, err)
		_, sig2, _, err := webhook.GenerateSignedPayload(secret, event2)
		require.NoError(t, err)

		assert.NotEqual(t, sig1, sig2)
	})

	t.Run("different secrets produce different signatures", func(t *testing.T) {
		event := webhook.WebhookEvent{
			EventID:   "01JG8XAMPLE1234567890123456",
			EventType: webhook.EventTypeMinted,
		}

		_, sig1, _, err := webhook.GenerateSignedPayload("secret-one", event)
		require.NoError(t, err)
		_, sig2, _, err := webhook.GenerateSignedPayload("secret-two", event)
		require.NoError(t, err)

		assert.NotEqual(t, sig1, sig2)
	})
}
