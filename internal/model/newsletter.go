// internal/model/newsletter.go
package model

import "time"

type Newsletter struct {
    ID          int        `db:"id" json:"id"`
    Subject     string     `db:"subject" json:"subject"`
    PreviewText string     `db:"preview_text" json:"preview_text"`
    BodyHTML    string     `db:"body_html" json:"body_html"`
    Status      string     `db:"status" json:"status"` // draft, scheduled, sending, sent, failed
    SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
    CreatedAt   time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
