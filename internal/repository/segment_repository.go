package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/shulgold/newsletter-engine/internal/errors"
	"github.com/shulgold/newsletter-engine/internal/model"
)

type SegmentRepositoryInterface interface {
	Create(s *model.Segment) error
	GetByID(id int) (*model.Segment, error)
	ListAll() ([]model.Segment, error)
}

type SegmentRepository struct {
	DB *sql.DB
}

func (r *SegmentRepository) Create(s *model.Segment) error {
	s.CreatedAt = time.Now()
	query := `
        INSERT INTO segments (name, filter, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	return r.DB.QueryRow(query, s.Name, s.Filter, s.CreatedAt).Scan(&s.ID)
}

func (r *SegmentRepository) GetByID(id int) (*model.Segment, error) {
	query := `SELECT id, name, filter, created_at FROM segments WHERE id=$1`
	var s model.Segment
	err := r.DB.QueryRow(query, id).Scan(&s.ID, &s.Name, &s.Filter, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewSegmentNotFound(id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *SegmentRepository) ListAll() ([]model.Segment, error) {
	rows, err := r.DB.Query(`SELECT id, name, filter, created_at FROM segments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := []model.Segment{}
	for rows.Next() {
		var s model.Segment
		if err := rows.Scan(&s.ID, &s.Name, &s.Filter, &s.CreatedAt); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

var _ SegmentRepositoryInterface = (*SegmentRepository)(nil)
