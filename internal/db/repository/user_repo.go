package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

const userColumns = `id, username, email, password_hash, name, roles, is_active, last_login, deleted_at, created_at, updated_at`

// UserRepository handles user data access
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err, "get user", apperr.ErrUserNotFound)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, translate(err, "get user by email", apperr.ErrUserNotFound)
	}

	return &user, nil
}

// GetByIDs retrieves the users with the given IDs; unknown IDs are skipped
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL`

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, uuidArray(ids)); err != nil {
		return nil, translate(err, "get users", nil)
	}

	return users, nil
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL ORDER BY username ASC`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, translate(err, "list users", nil)
	}

	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, name, roles, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var createdUser models.User
	err := r.db.GetContext(
		ctx,
		&createdUser,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Roles,
		user.IsActive,
	)
	if err != nil {
		return nil, translate(err, "create user", nil)
	}

	return &createdUser, nil
}

// Update updates a user's profile, roles and status
func (r *UserRepository) Update(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET email = $1, name = $2, roles = $3, is_active = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING ` + userColumns

	var updatedUser models.User
	err := r.db.GetContext(
		ctx,
		&updatedUser,
		query,
		user.Email,
		user.Name,
		user.Roles,
		user.IsActive,
		time.Now(),
		user.ID,
	)
	if err != nil {
		return nil, translate(err, "update user", apperr.ErrUserNotFound)
	}

	return &updatedUser, nil
}

// UpdatePassword updates a user's password
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	return r.execOne(ctx, "update user password", query, passwordHash, time.Now(), id)
}

// TouchLastLogin records a successful login
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2 AND deleted_at IS NULL`

	return r.execOne(ctx, "update last login", query, at, id)
}

// Delete retires a user. The row stays so orders, products and
// conversations keep their references; its personal data is scrubbed, it
// can no longer sign in and its products leave the catalog.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		UPDATE users
		SET username = 'deleted-' || LEFT(REPLACE(id::text, '-', ''), 12),
		    email = id::text || '@deleted.invalid',
		    password_hash = '',
		    name = '',
		    roles = ARRAY['user']::TEXT[],
		    is_active = FALSE,
		    deleted_at = $2,
		    updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := tx.ExecContext(ctx, query, id, now)
	if err != nil {
		return translate(err, "delete user", nil)
	}
	if err := expectRow(result, apperr.ErrUserNotFound); err != nil {
		return err
	}

	productsQuery := `
		UPDATE products
		SET is_active = FALSE, updated_at = $2
		WHERE farmer_id = $1 AND is_active
	`
	if _, err := tx.ExecContext(ctx, productsQuery, id, now); err != nil {
		return translate(err, "deactivate user products", nil)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, op, nil)
	}

	return expectRow(result, apperr.ErrUserNotFound)
}
