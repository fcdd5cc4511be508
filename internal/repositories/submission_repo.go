package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BradenHooton/novatech/internal/database"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(db *database.DB) *SubmissionRepository {
	return &SubmissionRepository{pool: db.Pool}
}

func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) (*models.Submission, error) {
	s.ID = uuid.New().String()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(s.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission data: %w", err)
	}

	query := `
		INSERT INTO submissions (id, type, data, ip_hash, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query, s.ID, s.Type, data, s.IPHash, s.IsRead, s.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", database.MapPostgresError(err))
	}

	return s, nil
}

// List returns submissions newest first; an empty type matches all of them
func (r *SubmissionRepository) List(ctx context.Context, submissionType string, limit int) ([]*models.Submission, error) {
	query := `
		SELECT id::text, type, data, ip_hash, is_read, created_at
		FROM submissions
		WHERE ($1::text = '' OR type = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, submissionType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Submission, 0)
	for rows.Next() {
		var s models.Submission
		var data []byte
		if err := rows.Scan(&s.ID, &s.Type, &data, &s.IPHash, &s.IsRead, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if err := json.Unmarshal(data, &s.Data); err != nil {
			return nil, fmt.Errorf("failed to decode submission %s: %w", s.ID, err)
		}
		items = append(items, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, nil
}

func (r *SubmissionRepository) MarkRead(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE submissions SET is_read = true WHERE id = $1`, id)
}

func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM submissions WHERE id = $1`, id)
}

func (r *SubmissionRepository) execOne(ctx context.Context, query, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
