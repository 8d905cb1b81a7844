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

// ServiceOfferingRepository handles the marketing services table
type ServiceOfferingRepository struct {
	db *database.Connection
}

// NewServiceOfferingRepository creates a new ServiceOfferingRepository
func NewServiceOfferingRepository(db *database.Connection) *ServiceOfferingRepository {
	return &ServiceOfferingRepository{db: db}
}

const serviceColumns = "id, title, description, icon, display_order, is_active, created_at, updated_at"

func scanService(row scanner) (*models.ServiceOffering, error) {
	var s models.ServiceOffering
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Icon, &s.DisplayOrder, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert creates a service row
func (r *ServiceOfferingRepository) Insert(ctx context.Context, s *models.ServiceOffering) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", constants.TableService, serviceColumns)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, s.ID, s.Title, s.Description, s.Icon, s.DisplayOrder,
		s.IsActive, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert service: %w", err)
	}
	return nil
}

// FindByID returns the service with id, or nil if none exists.
func (r *ServiceOfferingRepository) FindByID(ctx context.Context, id string) (*models.ServiceOffering, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", serviceColumns, constants.TableService)
	s, err := scanService(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// List returns services ordered by display_order.
func (r *ServiceOfferingRepository) List(ctx context.Context, activeOnly bool) ([]models.ServiceOffering, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", serviceColumns, constants.TableService)
	var args []interface{}
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY display_order ASC, created_at ASC"

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	out := []models.ServiceOffering{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Update overwrites the editable columns.
func (r *ServiceOfferingRepository) Update(ctx context.Context, s *models.ServiceOffering) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET title = ?, description = ?, icon = ?, display_order = ?, is_active = ?, updated_at = ?
		WHERE id = ?`, constants.TableService)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, s.Title, s.Description, s.Icon, s.DisplayOrder,
		s.IsActive, s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update service: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Count returns the number of service rows.
func (r *ServiceOfferingRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Conn(ctx).QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", constants.TableService)).Scan(&n)
	return n, err
}

// SetActive toggles visibility.
func (r *ServiceOfferingRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) (bool, error) {
	return setActive(ctx, r.db, constants.TableService, id, active, at)
}

// Delete removes a service.
func (r *ServiceOfferingRepository) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, constants.TableService, id)
}
