package repository

import (
	"database/sql"
)

// TrackingRepositoryInterface records open/click events. Events are
// append-only; recording the same open or click twice just adds a row.
type TrackingRepositoryInterface interface {
	RecordOpen(sendID, subscriberID int) error
	RecordClick(sendID, subscriberID int, url string) error
	Counts(sendID int) (opens int, clicks int, err error)
}

type TrackingRepository struct {
	DB *sql.DB
}

func (r *TrackingRepository) RecordOpen(sendID, subscriberID int) error {
	_, err := r.DB.Exec(`
        INSERT INTO tracking_events (send_id, subscriber_id, kind, created_at)
        VALUES ($1, $2, 'open', NOW())
    `, sendID, subscriberID)
	return err
}

func (r *TrackingRepository) RecordClick(sendID, subscriberID int, url string) error {
	_, err := r.DB.Exec(`
        INSERT INTO tracking_events (send_id, subscriber_id, kind, url, created_at)
        VALUES ($1, $2, 'click', $3, NOW())
    `, sendID, subscriberID, url)
	return err
}

// Counts reports distinct subscribers who opened or clicked, for the
// newsletter stats view.
func (r *TrackingRepository) Counts(sendID int) (int, int, error) {
	var opens, clicks int
	err := r.DB.QueryRow(`
        SELECT
            COUNT(DISTINCT subscriber_id) FILTER (WHERE kind = 'open'),
            COUNT(DISTINCT subscriber_id) FILTER (WHERE kind = 'click')
        FROM tracking_events
        WHERE send_id = $1
    `, sendID).Scan(&opens, &clicks)
	return opens, clicks, err
}

var _ TrackingRepositoryInterface = (*TrackingRepository)(nil)
