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

// TestimonialRepository handles database operations for testimonials
type TestimonialRepository struct {
	db *database.Connection
}

// NewTestimonialRepository creates a new TestimonialRepository
func NewTestimonialRepository(db *database.Connection) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

const testimonialColumns = "id, name, role, company, content, rating, avatar_url, is_active, created_at, updated_at"

func scanTestimonial(row scanner) (*models.Testimonial, error) {
	var t models.Testimonial
	var avatar sql.NullString
	err := row.Scan(&t.ID, &t.Name, &t.Role, &t.Company, &t.Content, &t.Rating, &avatar, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.AvatarURL = nullString(avatar)
	return &t, nil
}

// Insert creates a testimonial row
func (r *TestimonialRepository) Insert(ctx context.Context, t *models.Testimonial) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", constants.TableTestimonial, testimonialColumns)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, t.ID, t.Name, t.Role, t.Company, t.Content, t.Rating,
		toNull(t.AvatarURL), t.IsActive, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert testimonial: %w", err)
	}
	return nil
}

// FindByID returns the testimonial with id, or nil if none exists.
func (r *TestimonialRepository) FindByID(ctx context.Context, id string) (*models.Testimonial, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", testimonialColumns, constants.TableTestimonial)
	t, err := scanTestimonial(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// List returns testimonials newest first.
func (r *TestimonialRepository) List(ctx context.Context, activeOnly bool) ([]models.Testimonial, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", testimonialColumns, constants.TableTestimonial)
	var args []interface{}
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	defer rows.Close()

	out := []models.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update overwrites the editable columns.
func (r *TestimonialRepository) Update(ctx context.Context, t *models.Testimonial) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET name = ?, role = ?, company = ?, content = ?, rating = ?, avatar_url = ?, is_active = ?, updated_at = ?
		WHERE id = ?`, constants.TableTestimonial)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, t.Name, t.Role, t.Company, t.Content, t.Rating,
		toNull(t.AvatarURL), t.IsActive, t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update testimonial: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetActive toggles visibility.
func (r *TestimonialRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) (bool, error) {
	return setActive(ctx, r.db, constants.TableTestimonial, id, active, at)
}

// Delete removes a testimonial.
func (r *TestimonialRepository) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, constants.TableTestimonial, id)
}
