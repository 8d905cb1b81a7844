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

// FileRepository records objects written to storage buckets
type FileRepository struct {
	db *database.Connection
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(db *database.Connection) *FileRepository {
	return &FileRepository{db: db}
}

const fileColumns = "id, bucket, path, owner_id, content_type, size_bytes, created_at"

// Upsert records f, replacing any earlier record for the same bucket and path.
func (r *FileRepository) Upsert(ctx context.Context, f *models.StoredFile) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)
		del := fmt.Sprintf("DELETE FROM %s WHERE bucket = ? AND path = ?", constants.TableStoredFile)
		if _, err := conn.ExecContext(ctx, del, f.Bucket, f.Path); err != nil {
			return fmt.Errorf("failed to replace file record: %w", err)
		}
		ins := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)", constants.TableStoredFile, fileColumns)
		if _, err := conn.ExecContext(ctx, ins, f.ID, f.Bucket, f.Path, toNull(f.OwnerID), f.ContentType, f.SizeBytes, f.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert file record: %w", err)
		}
		return nil
	})
}

// Find returns the record for bucket/path, or nil if none exists.
func (r *FileRepository) Find(ctx context.Context, bucket, path string) (*models.StoredFile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE bucket = ? AND path = ? LIMIT 1", fileColumns, constants.TableStoredFile)
	var f models.StoredFile
	var owner sql.NullString
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, bucket, path).Scan(&f.ID, &f.Bucket, &f.Path, &owner, &f.ContentType, &f.SizeBytes, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.OwnerID = nullString(owner)
	return &f, nil
}
