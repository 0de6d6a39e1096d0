// internal/model/tracking_event.go
package model

import "time"

// TrackingEvent is an append-only open/click record. Repeated loads of the
// same pixel or link simply append more events.
type TrackingEvent struct {
    ID           int       `db:"id" json:"id"`
    SendID       int       `db:"send_id" json:"send_id"`
    SubscriberID int       `db:"subscriber_id" json:"subscriber_id"`
    Kind         string    `db:"kind" json:"kind"` // open, click
    URL          *string   `db:"url" json:"url,omitempty"`
    CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
