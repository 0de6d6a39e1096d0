package repository

import (
    "database/sql"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/shulgold/newsletter-engine/internal/model"
)

// insertBatchSize bounds a single multi-row INSERT while the whole snapshot
// stays inside one transaction.
const insertBatchSize = 1000

type SendRepositoryInterface interface {
    // CreateWithRecipients persists the send and its full recipient snapshot
    // atomically. On any failure nothing is left behind.
    CreateWithRecipients(send *model.Send, recipients []model.Subscriber) error
    // NextDue returns the oldest send that is processing, or pending and due.
    NextDue(now time.Time) (*model.Send, error)
    // Claim flips pending -> processing. Returns false if another invocation
    // won the race.
    Claim(sendID int, now time.Time) (bool, error)
    // AddCounts applies atomic counter increments on the send row.
    AddCounts(sendID, sent, failed int) error
    // Complete flips processing -> completed.
    Complete(sendID int, completedAt time.Time) error
    GetByID(id int) (*model.Send, error)
    ListByNewsletter(newsletterID int) ([]model.Send, error)
}

type SendRepository struct {
    DB *sql.DB
}

const sendColumns = `id, newsletter_id, segment_id, total_recipients, sent_count, failed_count, status, scheduled_at, started_at, completed_at, created_at`

func scanSend(row interface{ Scan(...interface{}) error }) (*model.Send, error) {
    var s model.Send
    err := row.Scan(&s.ID, &s.NewsletterID, &s.SegmentID, &s.TotalRecipients, &s.SentCount, &s.FailedCount, &s.Status, &s.ScheduledAt, &s.StartedAt, &s.CompletedAt, &s.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &s, nil
}

func (r *SendRepository) CreateWithRecipients(send *model.Send, recipients []model.Subscriber) error {
    tx, err := r.DB.Begin()
    if err != nil {
        return err
    }
    defer tx.Rollback()

    send.Status = "pending"
    send.TotalRecipients = len(recipients)
    send.CreatedAt = time.Now()

    err = tx.QueryRow(`
        INSERT INTO sends (newsletter_id, segment_id, total_recipients, sent_count, failed_count, status, scheduled_at, created_at)
        VALUES ($1, $2, $3, 0, 0, $4, $5, $6)
        RETURNING id
    `, send.NewsletterID, send.SegmentID, send.TotalRecipients, send.Status, send.ScheduledAt, send.CreatedAt).Scan(&send.ID)
    if err != nil {
        return err
    }

    for start := 0; start < len(recipients); start += insertBatchSize {
        end := start + insertBatchSize
        if end > len(recipients) {
            end = len(recipients)
        }
        batch := recipients[start:end]

        placeholders := make([]string, 0, len(batch))
        args := make([]interface{}, 0, len(batch)*4)
        for i, sub := range batch {
            base := i * 4
            placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, 'pending', NOW())", base+1, base+2, base+3, base+4))
            args = append(args, send.ID, sub.ID, sub.Email, uuid.NewString())
        }

        query := `
            INSERT INTO recipient_logs (send_id, subscriber_id, email, idempotency_key, status, created_at)
            VALUES ` + strings.Join(placeholders, ", ")
        if _, err := tx.Exec(query, args...); err != nil {
            return err
        }
    }

    return tx.Commit()
}

func (r *SendRepository) NextDue(now time.Time) (*model.Send, error) {
    query := `
        SELECT ` + sendColumns + `
        FROM sends
        WHERE status = 'processing'
           OR (status = 'pending' AND (scheduled_at IS NULL OR scheduled_at <= $1))
        ORDER BY created_at ASC, id ASC
        LIMIT 1
    `
    s, err := scanSend(r.DB.QueryRow(query, now))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return s, nil
}

// Claim is the compare-and-set guard: only one of N concurrent invocations
// observes RowsAffected == 1.
func (r *SendRepository) Claim(sendID int, now time.Time) (bool, error) {
    res, err := r.DB.Exec(`
        UPDATE sends
        SET status = 'processing', started_at = COALESCE(started_at, $1)
        WHERE id = $2 AND status = 'pending'
    `, now, sendID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func (r *SendRepository) AddCounts(sendID, sent, failed int) error {
    _, err := r.DB.Exec(`
        UPDATE sends
        SET sent_count = sent_count + $1, failed_count = failed_count + $2
        WHERE id = $3
    `, sent, failed, sendID)
    return err
}

func (r *SendRepository) Complete(sendID int, completedAt time.Time) error {
    _, err := r.DB.Exec(`
        UPDATE sends
        SET status = 'completed', completed_at = $1
        WHERE id = $2 AND status = 'processing'
    `, completedAt, sendID)
    return err
}

func (r *SendRepository) GetByID(id int) (*model.Send, error) {
    s, err := scanSend(r.DB.QueryRow(`SELECT `+sendColumns+` FROM sends WHERE id=$1`, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return s, nil
}

func (r *SendRepository) ListByNewsletter(newsletterID int) ([]model.Send, error) {
    rows, err := r.DB.Query(`SELECT `+sendColumns+` FROM sends WHERE newsletter_id=$1 ORDER BY id DESC`, newsletterID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    sends := []model.Send{}
    for rows.Next() {
        s, err := scanSend(rows)
        if err != nil {
            return nil, err
        }
        sends = append(sends, *s)
    }
    return sends, rows.Err()
}

var _ SendRepositoryInterface = (*SendRepository)(nil)
