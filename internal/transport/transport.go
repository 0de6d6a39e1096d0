// internal/transport/transport.go
package transport

// Message is one outbound email handed to the provider's batch-send call.
// IdempotencyKey is fixed per recipient row so a retried attempt can be
// deduplicated provider-side.
type Message struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTML           string `json:"html"`
	Text           string `json:"text"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Result is the provider's per-message outcome, positionally aligned with
// the submitted batch.
type Result struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// BatchSender sends one provider-sized chunk of messages. A returned error
// means the whole call failed; otherwise the result slice must align with
// the input slice position by position.
type BatchSender interface {
	SendBatch(msgs []Message) ([]Result, error)
}
