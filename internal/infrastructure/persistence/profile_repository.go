package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *database.Connection
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *database.Connection) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = "id, user_id, full_name, email, phone, department, position, avatar_url, is_active, created_at, updated_at"

// ProfileUpdate carries editable profile fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	FullName   *string
	Phone      *string
	Department *string
	Position   *string
	AvatarURL  *string
}

func scanProfile(row scanner) (*models.Profile, error) {
	var p models.Profile
	var phone, department, position, avatar sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &phone, &department, &position, &avatar,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Phone = nullString(phone)
	p.Department = nullString(department)
	p.Position = nullString(position)
	p.AvatarURL = nullString(avatar)
	return &p, nil
}

// Insert creates a profile row
func (r *ProfileRepository) Insert(ctx context.Context, p *models.Profile) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", constants.TableProfile, profileColumns)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		p.ID, p.UserID, p.FullName, p.Email,
		toNull(p.Phone), toNull(p.Department), toNull(p.Position), toNull(p.AvatarURL),
		p.IsActive, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// FindByUserID returns the profile of userID, or nil if none exists.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ? LIMIT 1", profileColumns, constants.TableProfile)
	p, err := scanProfile(r.db.Conn(ctx).QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ListWithRoles returns every profile joined with its role, newest first.
func (r *ProfileRepository) ListWithRoles(ctx context.Context) ([]models.Employee, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.user_id, p.full_name, p.email, p.phone, p.department, p.position, p.avatar_url,
			p.is_active, p.created_at, p.updated_at, r.role
		FROM %s p
		LEFT JOIN %s r ON r.user_id = p.user_id
		ORDER BY p.created_at DESC`,
		constants.TableProfile, constants.TableUserRole)

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		var phone, department, position, avatar, role sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.FullName, &e.Email, &phone, &department, &position, &avatar,
			&e.IsActive, &e.CreatedAt, &e.UpdatedAt, &role); err != nil {
			return nil, err
		}
		e.Phone = nullString(phone)
		e.Department = nullString(department)
		e.Position = nullString(position)
		e.AvatarURL = nullString(avatar)
		e.Role = models.Role(role.String)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of upd. It reports whether a row matched.
func (r *ProfileRepository) Update(ctx context.Context, userID string, upd ProfileUpdate, at time.Time) (bool, error) {
	var sets []string
	var args []interface{}
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("full_name", upd.FullName)
	add("phone", upd.Phone)
	add("department", upd.Department)
	add("position", upd.Position)
	add("avatar_url", upd.AvatarURL)

	sets = append(sets, "updated_at = ?")
	args = append(args, at.UTC(), userID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE user_id = ?", constants.TableProfile, strings.Join(sets, ", "))
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update profile: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetActive enables or disables a profile.
func (r *ProfileRepository) SetActive(ctx context.Context, userID string, active bool, at time.Time) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET is_active = ?, updated_at = ? WHERE user_id = ?", constants.TableProfile)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, active, at.UTC(), userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Count returns the number of profiles.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", constants.TableProfile)
	var n int
	err := r.db.Conn(ctx).QueryRowContext(ctx, query).Scan(&n)
	return n, err
}
