package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// UserRepository handles database operations for user credentials
type UserRepository struct {
	db *database.Connection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Connection) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, email, password_hash, created_at, last_sign_in_at"

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var lastSignIn sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &lastSignIn); err != nil {
		return nil, err
	}
	u.LastSignInAt = nullTime(lastSignIn)
	return &u, nil
}

// Insert creates a new user row
func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)", constants.TableUser, userColumns)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.CreatedAt, toNullTime(u.LastSignInAt))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByEmail returns the user with email, or nil if none exists.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = ? LIMIT 1", userColumns, constants.TableUser)
	u, err := scanUser(r.db.Conn(ctx).QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindByID returns the user with id, or nil if none exists.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", userColumns, constants.TableUser)
	u, err := scanUser(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// ExistsByEmail checks whether an account already uses email
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE email = ?", constants.TableUser)
	var n int
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, email).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdatePassword replaces the stored hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	query := fmt.Sprintf("UPDATE %s SET password_hash = ? WHERE id = ?", constants.TableUser)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, hash, id)
	return err
}

// TouchSignIn records a successful sign-in
func (r *UserRepository) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET last_sign_in_at = ? WHERE id = ?", constants.TableUser)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, at.UTC(), id)
	return err
}
