package feedback

import (
	"context"
	"database/sql"
)

type Repository interface {
	Save(ctx context.Context, f *Feedback) error
	List(ctx context.Context, limit int) ([]Feedback, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, f *Feedback) error {
	query := `INSERT INTO feedback (query, url, score, comment, correlation_id) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, f.Query, f.URL, f.Score, f.Comment, f.CorrelationID).Scan(&f.ID, &f.CreatedAt)
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Feedback, error) {
	query := `SELECT id, query, url, score, comment, correlation_id, created_at FROM feedback ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.Query, &f.URL, &f.Score, &f.Comment, &f.CorrelationID, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM feedback`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
