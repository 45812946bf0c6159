package recordings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/internal/models"
)

// Repository handles recording persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns one page of recordings ordered by created_at ascending, plus
// the total row count independent of pagination. Ties on created_at are
// broken by id so pages stay stable.
func (r *Repository) List(ctx context.Context, page, limit int) ([]models.Recording, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM recordings`).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT id, video_url, thumbnail_url, duration, file_size, created_at
		FROM recordings ORDER BY created_at, id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]models.Recording, 0, limit)
	for rows.Next() {
		var rec models.Recording
		if err := rows.Scan(&rec.ID, &rec.VideoURL, &rec.ThumbnailURL, &rec.Duration, &rec.FileSize, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, rec)
	}
	return list, total, rows.Err()
}

// Create inserts a new recording. The server assigns id and created_at;
// both are written back into rec.
func (r *Repository) Create(ctx context.Context, rec *models.Recording) error {
	const q = `INSERT INTO recordings (id, video_url, thumbnail_url, duration, file_size)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, rec.VideoURL, rec.ThumbnailURL, rec.Duration, rec.FileSize).
		Scan(&rec.ID, &rec.CreatedAt)
}

// Count returns the total recording count.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM recordings`).Scan(&n)
	return n, err
}

// DeleteByID removes a recording and returns the deleted row, or (nil, nil)
// if no such id exists.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) (*models.Recording, error) {
	const q = `DELETE FROM recordings WHERE id = $1
		RETURNING id, video_url, thumbnail_url, duration, file_size, created_at`
	var rec models.Recording
	err := r.pool.QueryRow(ctx, q, id).Scan(&rec.ID, &rec.VideoURL, &rec.ThumbnailURL, &rec.Duration, &rec.FileSize, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
