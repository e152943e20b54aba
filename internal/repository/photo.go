package repository

import (
	"context"
	"fmt"
	"time"

	"event-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const photoColumns = `id, event_id, user_id, user_name, source, s3_key, s3_url, uploaded_at, confirmed_at`

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db DBTX
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db DBTX) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create reserves a photo record. It stays unlisted until Confirm.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (id, event_id, user_id, user_name, source, s3_key, s3_url, uploaded_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		photo.ID, photo.EventID, photo.UserID, photo.UserName, string(photo.Source),
		photo.S3Key, photo.S3URL, photo.UploadedAt, nullableTime(photo.ConfirmedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`

	photo, err := scanPhoto(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("photo not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return photo, nil
}

// Confirm marks a reserved photo as uploaded. It reports false when the photo
// was already confirmed.
func (r *PhotoRepository) Confirm(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE photos SET confirmed_at = $2 WHERE id = $1 AND confirmed_at IS NULL`
	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to confirm photo: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListByEvent retrieves confirmed photos of an event with pagination, newest first
func (r *PhotoRepository) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*models.Photo, int, error) {
	countQuery := `SELECT COUNT(*) FROM photos WHERE event_id = $1 AND confirmed_at IS NOT NULL`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count photos: %w", err)
	}

	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE event_id = $1 AND confirmed_at IS NOT NULL
		ORDER BY confirmed_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get photos: %w", err)
	}
	defer rows.Close()

	photos := []*models.Photo{}
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, total, nil
}

// CountByUserSource counts a user's photos of one source in an event,
// reserved uploads included
func (r *PhotoRepository) CountByUserSource(ctx context.Context, eventID, userID string, source models.PhotoSource) (int, error) {
	query := `SELECT COUNT(*) FROM photos WHERE event_id = $1 AND user_id = $2 AND source = $3`
	var count int
	if err := r.db.QueryRow(ctx, query, eventID, userID, string(source)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var (
		photo  models.Photo
		source string
	)
	err := row.Scan(
		&photo.ID, &photo.EventID, &photo.UserID, &photo.UserName, &source,
		&photo.S3Key, &photo.S3URL, &photo.UploadedAt, &photo.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	photo.Source = models.PhotoSource(source)
	return &photo, nil
}
