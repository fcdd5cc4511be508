package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/novatech/internal/database"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PageViewRepository struct {
	pool *pgxpool.Pool
}

func NewPageViewRepository(db *database.DB) *PageViewRepository {
	return &PageViewRepository{pool: db.Pool}
}

// breakdownColumns are the columns CountByColumn may group on
var breakdownColumns = map[string]bool{
	"device_type": true,
	"country":     true,
	"page_path":   true,
}

func (r *PageViewRepository) Create(ctx context.Context, v *models.PageView) error {
	v.ID = uuid.New().String()
	if v.ViewedAt.IsZero() {
		v.ViewedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO page_views (id, page_path, page_title, device_type, country, user_agent, session_id, viewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		v.ID, v.PagePath, v.PageTitle, v.DeviceType, v.Country, v.UserAgent, v.SessionID, v.ViewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create page view: %w", database.MapPostgresError(err))
	}
	return nil
}

// CountSince counts views at or after since; a zero time counts everything
func (r *PageViewRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM page_views WHERE viewed_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count page views: %w", err)
	}
	return n, nil
}

// CountByColumn groups all views by one of the breakdown columns
func (r *PageViewRepository) CountByColumn(ctx context.Context, column string) (map[string]int, error) {
	if !breakdownColumns[column] {
		return nil, fmt.Errorf("%w: cannot group page views by %q", models.ErrBadRequest, column)
	}

	// column is checked against breakdownColumns above
	query := fmt.Sprintf(`SELECT %s, count(*) FROM page_views GROUP BY %s`, column, column)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group page views: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan page view group: %w", err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// TopPages returns the most viewed paths, ties broken by path
func (r *PageViewRepository) TopPages(ctx context.Context, limit int) ([]models.PageCount, error) {
	query := `
		SELECT page_path, count(*) AS views
		FROM page_views
		GROUP BY page_path
		ORDER BY views DESC, page_path
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top pages: %w", err)
	}
	defer rows.Close()

	pages := make([]models.PageCount, 0, limit)
	for rows.Next() {
		var p models.PageCount
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			return nil, fmt.Errorf("failed to scan top page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
