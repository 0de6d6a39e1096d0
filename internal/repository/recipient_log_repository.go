package repository

import (
    "database/sql"
    "time"

    "github.com/shulgold/newsletter-engine/internal/model"
)

type RecipientLogRepositoryInterface interface {
    // ClaimPending atomically dequeues up to limit pending rows for the send,
    // marking them claimed so a concurrent invocation cannot pick them up.
    ClaimPending(sendID, limit int) ([]model.ClaimedRecipient, error)
    // RequeueStale returns rows stuck in claimed longer than olderThan back
    // to pending, so a crashed invocation cannot strand work.
    RequeueStale(sendID int, olderThan time.Duration) (int, error)
    MarkSent(id int, providerMessageID string, sentAt time.Time) error
    MarkFailed(id int, errorMessage string) error
    // RemainingCounts reports how many rows are still pending or claimed.
    RemainingCounts(sendID int) (pending int, claimed int, err error)
    StatusCounts(sendID int) (map[string]int, error)
}

type RecipientLogRepository struct {
    DB *sql.DB
}

func (r *RecipientLogRepository) ClaimPending(sendID, limit int) ([]model.ClaimedRecipient, error) {
    query := `
        WITH claimed AS (
            UPDATE recipient_logs
            SET status = 'claimed', claimed_at = NOW()
            WHERE id IN (
                SELECT id FROM recipient_logs
                WHERE send_id = $1 AND status = 'pending'
                ORDER BY id
                LIMIT $2
                FOR UPDATE SKIP LOCKED
            )
            RETURNING id, send_id, subscriber_id, email, idempotency_key
        )
        SELECT c.id, c.send_id, c.subscriber_id, c.email, c.idempotency_key, s.unsubscribe_token
        FROM claimed c
        JOIN subscribers s ON s.id = c.subscriber_id
        ORDER BY c.id
    `
    rows, err := r.DB.Query(query, sendID, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    recipients := []model.ClaimedRecipient{}
    for rows.Next() {
        var c model.ClaimedRecipient
        if err := rows.Scan(&c.ID, &c.SendID, &c.SubscriberID, &c.Email, &c.IdempotencyKey, &c.UnsubscribeToken); err != nil {
            return nil, err
        }
        recipients = append(recipients, c)
    }
    return recipients, rows.Err()
}

func (r *RecipientLogRepository) RequeueStale(sendID int, olderThan time.Duration) (int, error) {
    cutoff := time.Now().Add(-olderThan)
    res, err := r.DB.Exec(`
        UPDATE recipient_logs
        SET status = 'pending', claimed_at = NULL
        WHERE send_id = $1 AND status = 'claimed' AND claimed_at < $2
    `, sendID, cutoff)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}

// MarkSent is guarded on claimed status so a terminal row can never flip.
func (r *RecipientLogRepository) MarkSent(id int, providerMessageID string, sentAt time.Time) error {
    _, err := r.DB.Exec(`
        UPDATE recipient_logs
        SET status = 'sent', provider_message_id = $1, sent_at = $2
        WHERE id = $3 AND status = 'claimed'
    `, providerMessageID, sentAt, id)
    return err
}

func (r *RecipientLogRepository) MarkFailed(id int, errorMessage string) error {
    _, err := r.DB.Exec(`
        UPDATE recipient_logs
        SET status = 'failed', error_message = $1
        WHERE id = $2 AND status = 'claimed'
    `, errorMessage, id)
    return err
}

func (r *RecipientLogRepository) RemainingCounts(sendID int) (int, int, error) {
    var pending, claimed int
    err := r.DB.QueryRow(`
        SELECT
            COUNT(*) FILTER (WHERE status = 'pending'),
            COUNT(*) FILTER (WHERE status = 'claimed')
        FROM recipient_logs
        WHERE send_id = $1
    `, sendID).Scan(&pending, &claimed)
    return pending, claimed, err
}

func (r *RecipientLogRepository) StatusCounts(sendID int) (map[string]int, error) {
    query := `SELECT status, COUNT(*) FROM recipient_logs WHERE send_id=$1 GROUP BY status`
    rows, err := r.DB.Query(query, sendID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    stats := map[string]int{"pending": 0, "claimed": 0, "sent": 0, "failed": 0}
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        stats[status] = count
    }
    return stats, rows.Err()
}

var _ RecipientLogRepositoryInterface = (*RecipientLogRepository)(nil)
