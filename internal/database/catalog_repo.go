package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rkuzmin/streamhub/internal/models"
)

// CatalogRepository persists catalog entries. Tags and quality lists
// are stored as JSON text so the schema works on both sqlite and
// postgres.
type CatalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogColumns = `id, title, description, thumbnail, playback_ref, duration, views, likes, upload_time, tags, category, qualities, creator_name, creator_avatar, creator_subscribers`

func (r *CatalogRepository) Insert(ctx context.Context, e *models.CatalogEntry) error {
	tags, err := json.Marshal(e.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	qualities, err := json.Marshal(e.Qualities)
	if err != nil {
		return fmt.Errorf("failed to encode qualities: %w", err)
	}

	query := `INSERT INTO catalog_entries (` + catalogColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.db.conn.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Thumbnail, e.PlaybackRef, e.Duration, e.Views, e.Likes,
		e.UploadTime, string(tags), e.Category, string(qualities),
		e.Creator.Name, e.Creator.AvatarRef, e.Creator.Subscribers)
	if err != nil {
		return fmt.Errorf("failed to insert catalog entry: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*models.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE id = $1`
	return r.scanOne(r.db.conn.QueryRowContext(ctx, query, id))
}

func (r *CatalogRepository) List(ctx context.Context) ([]models.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries ORDER BY upload_time DESC`
	return r.queryMany(ctx, query)
}

// Search matches the query against title, description and tags, case
// insensitively, most recent first. Tags are stored as JSON text, so a
// substring match on the column covers them.
func (r *CatalogRepository) Search(ctx context.Context, query string, limit int) ([]models.CatalogEntry, error) {
	if query == "" {
		return r.List(ctx)
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + query + "%"
	var sqlQuery string
	if r.db.dbType == "postgres" {
		sqlQuery = `SELECT ` + catalogColumns + ` FROM catalog_entries
		            WHERE title ILIKE $1 OR description ILIKE $2 OR tags ILIKE $3
		            ORDER BY upload_time DESC LIMIT $4`
	} else {
		sqlQuery = `SELECT ` + catalogColumns + ` FROM catalog_entries
		            WHERE LOWER(title) LIKE LOWER($1) OR LOWER(description) LIKE LOWER($2) OR LOWER(tags) LIKE LOWER($3)
		            ORDER BY upload_time DESC LIMIT $4`
	}

	return r.queryMany(ctx, sqlQuery, pattern, pattern, pattern, limit)
}

func (r *CatalogRepository) ListByCategory(ctx context.Context, category string) ([]models.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE category = $1 ORDER BY upload_time DESC`
	return r.queryMany(ctx, query, category)
}

func (r *CatalogRepository) ListByCreator(ctx context.Context, creatorName string) ([]models.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE creator_name = $1 ORDER BY upload_time DESC`
	return r.queryMany(ctx, query, creatorName)
}

func (r *CatalogRepository) AddView(ctx context.Context, id string) error {
	return r.bump(ctx, id, "views")
}

func (r *CatalogRepository) AddLike(ctx context.Context, id string) error {
	return r.bump(ctx, id, "likes")
}

func (r *CatalogRepository) bump(ctx context.Context, id, column string) error {
	// column is one of the fixed counter names, never user input
	query := fmt.Sprintf(`UPDATE catalog_entries SET %s = %s + 1 WHERE id = $1`, column, column)
	result, err := r.db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
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

func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM catalog_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete catalog entry: %w", err)
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

func (r *CatalogRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.CatalogEntry, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []models.CatalogEntry
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *CatalogRepository) scanOne(row *sql.Row) (*models.CatalogEntry, error) {
	entry, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *CatalogRepository) scanRow(row scannable) (*models.CatalogEntry, error) {
	var e models.CatalogEntry
	var tags, qualities string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Thumbnail, &e.PlaybackRef, &e.Duration,
		&e.Views, &e.Likes, &e.UploadTime, &tags, &e.Category, &qualities,
		&e.Creator.Name, &e.Creator.AvatarRef, &e.Creator.Subscribers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(qualities), &e.Qualities); err != nil {
		return nil, fmt.Errorf("failed to decode qualities: %w", err)
	}

	return &e, nil
}
