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
	"github.com/sdmtech/sdmcrm/pkg/utils"
)

// RoleRepository reads and writes user_roles.
type RoleRepository struct {
	db *database.Connection
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *database.Connection) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetRole returns the role of userID, or RoleNone when no row exists.
func (r *RoleRepository) GetRole(ctx context.Context, userID string) (models.Role, error) {
	query := fmt.Sprintf("SELECT role FROM %s WHERE user_id = ? LIMIT 1", constants.TableUserRole)
	var role string
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	return models.Role(role), nil
}

// ReplaceRole removes any existing role of userID and inserts role.
// Callers run it inside a transaction.
func (r *RoleRepository) ReplaceRole(ctx context.Context, userID string, role models.Role, at time.Time) error {
	conn := r.db.Conn(ctx)

	del := fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", constants.TableUserRole)
	if _, err := conn.ExecContext(ctx, del, userID); err != nil {
		return fmt.Errorf("failed to clear role: %w", err)
	}

	ins := fmt.Sprintf("INSERT INTO %s (id, user_id, role, created_at) VALUES (?, ?, ?, ?)", constants.TableUserRole)
	if _, err := conn.ExecContext(ctx, ins, utils.GenerateID(), userID, string(role), at.UTC()); err != nil {
		return fmt.Errorf("failed to insert role: %w", err)
	}
	return nil
}

// CountByRole returns how many users hold role.
func (r *RoleRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE role = ?", constants.TableUserRole)
	var n int
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, string(role)).Scan(&n)
	return n, err
}

// ListUserIDsByRole returns the ids of users holding role.
func (r *RoleRepository) ListUserIDsByRole(ctx context.Context, role models.Role) ([]string, error) {
	query := fmt.Sprintf("SELECT user_id FROM %s WHERE role = ?", constants.TableUserRole)
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
