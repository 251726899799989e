package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenerateSignedPayload generates a signed webhook payload with HMAC-SHA256 signature
// Returns the JSON payload, signature header value, timestamp, and any error
func GenerateSignedPayload(secret string, event WebhookEvent) (payload []byte, signature string, timestamp int64, err error) {
	payload, err = json.Marshal(event)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	timestamp = time.Now().Unix()

	// Signature payload format: {timestamp}.{event_id}.{json_body}
	// The timestamp guards against replay, the event ID enables deduplication,
	// and the body covers payload integrity.
	signaturePayload := fmt.Sprintf("%d.%s.%s", timestamp, event.EventID, string(payload))

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(signaturePayload))
	signatureBytes := h.Sum(nil)

	// Format: "sha256=<hex_signature>"
	signature = "sha256=" + hex.EncodeToString(signatureBytes)

	return payload, signature, timestamp, nil
}
