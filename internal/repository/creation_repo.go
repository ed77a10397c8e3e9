package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
)

// CreationRepo persists gallery metadata for finished generations. Only
// prompt-derived metadata and the output URL are stored, never the asset.
type CreationRepo struct {
	pool *pgxpool.Pool
}

func NewCreationRepo(pool *pgxpool.Pool) *CreationRepo {
	return &CreationRepo{pool: pool}
}

func (r *CreationRepo) Create(ctx context.Context, rec *models.CreationRecord) error {
	query := `
		INSERT INTO creations (id, user_id, title, source, style, video_url, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		rec.ID, rec.UserID, rec.Title, rec.Source, rec.Style, rec.VideoURL, rec.DurationSeconds,
	).Scan(&rec.CreatedAt)
}

func (r *CreationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreationRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, user_id, title, source, style, video_url, duration_seconds, created_at
		FROM creations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.CreationRecord{}
	for rows.Next() {
		var rec models.CreationRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Title, &rec.Source, &rec.Style,
			&rec.VideoURL, &rec.DurationSeconds, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes one record, scoped to its owner. Returns false when no
// matching row existed.
func (r *CreationRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM creations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
