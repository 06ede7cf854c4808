package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rkuzmin/streamhub/internal/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (id, email, username, password_hash, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.conn.ExecContext(ctx, query, u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, username, password_hash, created_at FROM users WHERE id = $1`
	return r.scanOne(r.db.conn.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, username, password_hash, created_at FROM users WHERE email = $1`
	return r.scanOne(r.db.conn.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, email, username, password_hash, created_at FROM users WHERE username = $1`
	return r.scanOne(r.db.conn.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
