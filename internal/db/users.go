package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contactbook/contactbook/internal/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, is_confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.New()
	_, err := r.db.ExecContext(ctx, query,
		id, user.Email, user.PasswordHash, user.IsConfirmed, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", user.Email, models.ErrEmailExists)
		}
		return fmt.Errorf("create user: %w", err)
	}

	user.ID = id.String()
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, is_confirmed, last_login, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, models.ErrUserNotFound
	}

	query := `
		SELECT id, email, password_hash, is_confirmed, last_login, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, uid))
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return models.ErrUserNotFound
	}

	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, uid, at)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var (
		user      models.User
		id        uuid.UUID
		lastLogin sql.NullTime
	)
	err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.IsConfirmed, &lastLogin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.ID = id.String()
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return &user, nil
}
