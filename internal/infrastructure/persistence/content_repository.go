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

// ContentRepository handles editable website sections
type ContentRepository struct {
	db *database.Connection
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *database.Connection) *ContentRepository {
	return &ContentRepository{db: db}
}

const contentColumns = "id, section_key, title, content, metadata, created_at, updated_at"

func scanContent(row scanner) (*models.WebsiteContent, error) {
	var c models.WebsiteContent
	var title, content, metadata sql.NullString
	if err := row.Scan(&c.ID, &c.SectionKey, &title, &content, &metadata, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Title = nullString(title)
	c.Content = nullString(content)
	if metadata.Valid && metadata.String != "" {
		c.Metadata = []byte(metadata.String)
	}
	return &c, nil
}

// List returns every section ordered by key.
func (r *ContentRepository) List(ctx context.Context) ([]models.WebsiteContent, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY section_key ASC", contentColumns, constants.TableWebsiteContent)
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list website content: %w", err)
	}
	defer rows.Close()

	out := []models.WebsiteContent{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// FindByKey returns the section with key, or nil if none exists.
func (r *ContentRepository) FindByKey(ctx context.Context, key string) (*models.WebsiteContent, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE section_key = ? LIMIT 1", contentColumns, constants.TableWebsiteContent)
	c, err := scanContent(r.db.Conn(ctx).QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// Upsert writes the content of a section, creating it when missing.
// Title and metadata are only replaced when given.
func (r *ContentRepository) Upsert(ctx context.Context, key string, title, content *string, metadata []byte, at time.Time) error {
	existing, err := r.FindByKey(ctx, key)
	if err != nil {
		return err
	}

	var meta interface{}
	if len(metadata) > 0 {
		meta = string(metadata)
	}

	if existing == nil {
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)", constants.TableWebsiteContent, contentColumns)
		_, err = r.db.Conn(ctx).ExecContext(ctx, query, utils.GenerateID(), key, toNull(title), toNull(content), meta, at.UTC(), at.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert website content %s: %w", key, err)
		}
		return nil
	}

	if title == nil {
		title = existing.Title
	}
	if meta == nil && len(existing.Metadata) > 0 {
		meta = string(existing.Metadata)
	}
	query := fmt.Sprintf("UPDATE %s SET title = ?, content = ?, metadata = ?, updated_at = ? WHERE id = ?", constants.TableWebsiteContent)
	_, err = r.db.Conn(ctx).ExecContext(ctx, query, toNull(title), toNull(content), meta, at.UTC(), existing.ID)
	if err != nil {
		return fmt.Errorf("failed to update website content %s: %w", key, err)
	}
	return nil
}
