// internal/model/send.go
package model

import "time"

// Send is one dispatch attempt of one newsletter against a frozen recipient
// snapshot. Counters only ever increase; sent_count + failed_count never
// exceeds total_recipients.
type Send struct {
    ID              int        `db:"id" json:"id"`
    NewsletterID    int        `db:"newsletter_id" json:"newsletter_id"`
    SegmentID       *int       `db:"segment_id" json:"segment_id,omitempty"`
    TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
    SentCount       int        `db:"sent_count" json:"sent_count"`
    FailedCount     int        `db:"failed_count" json:"failed_count"`
    Status          string     `db:"status" json:"status"` // pending, processing, completed
    ScheduledAt     *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
    StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
    CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
    CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
