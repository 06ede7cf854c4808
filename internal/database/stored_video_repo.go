package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rkuzmin/streamhub/internal/models"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// StoredVideoRepository persists blob store metadata. Binary payloads
// live in object storage; only the object key is recorded here.
type StoredVideoRepository struct {
	db *DB
}

func NewStoredVideoRepository(db *DB) *StoredVideoRepository {
	return &StoredVideoRepository{db: db}
}

func (r *StoredVideoRepository) Insert(ctx context.Context, v *models.StoredVideo) error {
	query := `INSERT INTO stored_videos (id, title, description, object_key, content_type, size, duration, thumbnail, upload_time)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.conn.ExecContext(ctx, query,
		v.ID, v.Title, v.Description, v.ObjectKey, v.ContentType, v.Size, v.Duration, v.Thumbnail, v.UploadTime)
	if err != nil {
		return fmt.Errorf("failed to insert stored video: %w", err)
	}
	return nil
}

func (r *StoredVideoRepository) GetByID(ctx context.Context, id string) (*models.StoredVideo, error) {
	query := `SELECT id, title, description, object_key, content_type, size, duration, thumbnail, upload_time
	          FROM stored_videos WHERE id = $1`
	row := r.db.conn.QueryRowContext(ctx, query, id)

	var v models.StoredVideo
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.ObjectKey, &v.ContentType, &v.Size, &v.Duration, &v.Thumbnail, &v.UploadTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stored video: %w", err)
	}
	return &v, nil
}

func (r *StoredVideoRepository) List(ctx context.Context) ([]models.StoredVideo, error) {
	query := `SELECT id, title, description, object_key, content_type, size, duration, thumbnail, upload_time
	          FROM stored_videos ORDER BY upload_time DESC`
	rows, err := r.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored videos: %w", err)
	}
	defer rows.Close()

	var videos []models.StoredVideo
	for rows.Next() {
		var v models.StoredVideo
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.ObjectKey, &v.ContentType, &v.Size, &v.Duration, &v.Thumbnail, &v.UploadTime); err != nil {
			return nil, fmt.Errorf("failed to scan stored video: %w", err)
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return videos, nil
}

func (r *StoredVideoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM stored_videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stored video: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Usage returns the record count and summed payload bytes.
func (r *StoredVideoRepository) Usage(ctx context.Context) (count int64, totalBytes int64, err error) {
	row := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM stored_videos`)
	if err := row.Scan(&count, &totalBytes); err != nil {
		return 0, 0, fmt.Errorf("failed to read usage: %w", err)
	}
	return count, totalBytes, nil
}
