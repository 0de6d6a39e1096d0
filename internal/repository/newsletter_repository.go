package repository

import (
    "database/sql"
    "fmt"
    "time"

    appErrors "github.com/shulgold/newsletter-engine/internal/errors"
    "github.com/shulgold/newsletter-engine/internal/model"
)

type NewsletterRepositoryInterface interface {
    Create(n *model.Newsletter) error
    GetByID(id int) (*model.Newsletter, error)
    ListNewsletters(offset, limit int, status string) ([]*model.Newsletter, int, error)
    UpdateStatus(newsletterID int, status string) error
    MarkSent(newsletterID int, sentAt time.Time) error
}

type NewsletterRepository struct {
    DB *sql.DB
}

func (r *NewsletterRepository) Create(n *model.Newsletter) error {
    n.CreatedAt = time.Now()
    if n.Status == "" {
        n.Status = "draft"
    }
    query := `
        INSERT INTO newsletters (subject, preview_text, body_html, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
    return r.DB.QueryRow(query, n.Subject, n.PreviewText, n.BodyHTML, n.Status, n.CreatedAt).Scan(&n.ID)
}

func (r *NewsletterRepository) GetByID(id int) (*model.Newsletter, error) {
    query := `
        SELECT id, subject, preview_text, body_html, status, sent_at, created_at, updated_at
        FROM newsletters WHERE id=$1
    `
    var n model.Newsletter
    err := r.DB.QueryRow(query, id).Scan(&n.ID, &n.Subject, &n.PreviewText, &n.BodyHTML, &n.Status, &n.SentAt, &n.CreatedAt, &n.UpdatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewNewsletterNotFound(id)
        }
        return nil, err
    }
    return &n, nil
}

func (r *NewsletterRepository) ListNewsletters(offset, limit int, status string) ([]*model.Newsletter, int, error) {
    newsletters := []*model.Newsletter{}
    query := `SELECT id, subject, preview_text, body_html, status, sent_at, created_at, updated_at FROM newsletters WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        n := &model.Newsletter{}
        if err := rows.Scan(&n.ID, &n.Subject, &n.PreviewText, &n.BodyHTML, &n.Status, &n.SentAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
            return nil, 0, err
        }
        newsletters = append(newsletters, n)
    }

    countQuery := `SELECT COUNT(*) FROM newsletters WHERE 1=1`
    argsCount := []interface{}{}
    if status != "" {
        countQuery += " AND status=$1"
        argsCount = append(argsCount, status)
    }

    var total int
    if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return newsletters, total, nil
}

func (r *NewsletterRepository) UpdateStatus(newsletterID int, status string) error {
    query := `UPDATE newsletters SET status=$1, updated_at=$2 WHERE id=$3`
    _, err := r.DB.Exec(query, status, time.Now(), newsletterID)
    return err
}

func (r *NewsletterRepository) MarkSent(newsletterID int, sentAt time.Time) error {
    query := `UPDATE newsletters SET status='sent', sent_at=$1, updated_at=$1 WHERE id=$2`
    _, err := r.DB.Exec(query, sentAt, newsletterID)
    return err
}

var _ NewsletterRepositoryInterface = (*NewsletterRepository)(nil)
