// internal/model/recipient_log.go
package model

import "time"

// RecipientLog is the per-(send, subscriber) unit of delivery work. The email
// is copied at snapshot creation so later subscriber edits cannot change
// where an in-flight send delivers. Once sent or failed a row is terminal.
type RecipientLog struct {
    ID                int        `db:"id" json:"id"`
    SendID            int        `db:"send_id" json:"send_id"`
    SubscriberID      int        `db:"subscriber_id" json:"subscriber_id"`
    Email             string     `db:"email" json:"email"`
    IdempotencyKey    string     `db:"idempotency_key" json:"idempotency_key"`
    Status            string     `db:"status" json:"status"` // pending, claimed, sent, failed
    ProviderMessageID *string    `db:"provider_message_id" json:"provider_message_id,omitempty"`
    ErrorMessage      *string    `db:"error_message" json:"error_message,omitempty"`
    SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
    ClaimedAt         *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
    CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// ClaimedRecipient is a RecipientLog atomically dequeued for dispatch,
// joined with the subscriber fields needed to build the message.
type ClaimedRecipient struct {
    ID               int
    SendID           int
    SubscriberID     int
    Email            string
    IdempotencyKey   string
    UnsubscribeToken string
}
