package repository

import (
	"database/sql"

	appErrors "github.com/shulgold/newsletter-engine/internal/errors"
	"github.com/shulgold/newsletter-engine/internal/model"
)

// SubscriberRepositoryInterface defines the read-only subscriber views the
// engine needs. Subscribers are created and mutated elsewhere.
type SubscriberRepositoryInterface interface {
	GetByID(id int) (*model.Subscriber, error)
	ListEligible() ([]model.Subscriber, error)
}

// SubscriberRepository is the concrete implementation
type SubscriberRepository struct {
	DB *sql.DB
}

// GetByID fetches a subscriber by ID
func (r *SubscriberRepository) GetByID(id int) (*model.Subscriber, error) {
	query := `
        SELECT id, user_id, email, active, unsubscribed, unsubscribed_at, unsubscribe_token, interests
        FROM subscribers
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var s model.Subscriber
	if err := row.Scan(&s.ID, &s.UserID, &s.Email, &s.Active, &s.Unsubscribed, &s.UnsubscribedAt, &s.UnsubscribeToken, &s.Interests); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewSubscriberNotFound(id)
		}
		return nil, err
	}
	return &s, nil
}

// ListEligible fetches subscribers who pass baseline bulk-send eligibility:
// active, not unsubscribed, and linked to a registered account. Interest
// filtering happens in the segment resolver.
func (r *SubscriberRepository) ListEligible() ([]model.Subscriber, error) {
	query := `
        SELECT id, user_id, email, active, unsubscribed, unsubscribed_at, unsubscribe_token, interests
        FROM subscribers
        WHERE active = true AND unsubscribed = false AND user_id IS NOT NULL
        ORDER BY id
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscribers := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.UserID, &s.Email, &s.Active, &s.Unsubscribed, &s.UnsubscribedAt, &s.UnsubscribeToken, &s.Interests); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
