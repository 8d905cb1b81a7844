package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// ContactRepository handles contact form submissions
type ContactRepository struct {
	db *database.Connection
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *database.Connection) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = "id, name, email, subject, message, is_read, created_at"

func scanContact(row scanner) (*models.ContactSubmission, error) {
	var c models.ContactSubmission
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.IsRead, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert stores a contact message
func (r *ContactRepository) Insert(ctx context.Context, c *models.ContactSubmission) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)", constants.TableContactSubmission, contactColumns)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, c.ID, c.Name, c.Email, c.Subject, c.Message, c.IsRead, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert contact submission: %w", err)
	}
	return nil
}

// FindByID returns the message with id, or nil if none exists.
func (r *ContactRepository) FindByID(ctx context.Context, id string) (*models.ContactSubmission, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", contactColumns, constants.TableContactSubmission)
	c, err := scanContact(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns messages newest first.
func (r *ContactRepository) List(ctx context.Context) ([]models.ContactSubmission, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", contactColumns, constants.TableContactSubmission)
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	defer rows.Close()

	out := []models.ContactSubmission{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SetRead marks a message read or unread.
func (r *ContactRepository) SetRead(ctx context.Context, id string, read bool) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET is_read = ? WHERE id = ?", constants.TableContactSubmission)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, read, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a message.
func (r *ContactRepository) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, constants.TableContactSubmission, id)
}
