package infra_postgres_user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

const pqUniqueViolation = "23505"

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Store(ctx context.Context, u model.User) error {
	userDB := FromDomain(u)

	query := `
		INSERT INTO users (id, name, email, password_hash, role, avatar_key, avatar_url, is_verified, courses, created_at)
		VALUES (:id, :name, :email, :password_hash, :role, :avatar_key, :avatar_url, :is_verified, :courses, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, userDB)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to store user: %w", err)
	}

	return nil
}

func (r *Repository) LoadByID(ctx context.Context, ID uuid.UUID) (model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, avatar_key, avatar_url, is_verified, courses, created_at
		FROM users
		WHERE id = $1
	`

	var userDB UserDB
	err := r.db.GetContext(ctx, &userDB, query, ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user by id: %w", err)
	}

	return userDB.ToDomain()
}

func (r *Repository) LoadByEmail(ctx context.Context, email string) (model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, avatar_key, avatar_url, is_verified, courses, created_at
		FROM users
		WHERE email = $1
	`

	var userDB UserDB
	err := r.db.GetContext(ctx, &userDB, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user by email: %w", err)
	}

	return userDB.ToDomain()
}

func (r *Repository) Update(ctx context.Context, u model.User) error {
	userDB := FromDomain(u)

	query := `
		UPDATE users SET
			name = :name,
			email = :email,
			password_hash = :password_hash,
			role = :role,
			avatar_key = :avatar_key,
			avatar_url = :avatar_url,
			is_verified = :is_verified,
			courses = :courses
		WHERE id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, userDB)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return model.ErrUserNotFound
	}

	return nil
}
