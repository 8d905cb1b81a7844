package persistence

import (
	"context"
	"fmt"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// NotificationRepository handles in-app notifications
type NotificationRepository struct {
	db *database.Connection
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *database.Connection) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = "id, recipient_id, title, body, link, notification_type, is_read, created_at"

// Insert stores a notification
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", constants.TableNotification, notificationColumns)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, n.ID, n.RecipientID, n.Title, n.Body, n.Link,
		n.NotificationType, n.IsRead, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListForRecipient returns the newest notifications of recipientID.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE recipient_id = ? ORDER BY created_at DESC LIMIT ?",
		notificationColumns, constants.TableNotification)

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Body, &n.Link, &n.NotificationType, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks one notification of recipientID as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET is_read = ? WHERE id = ? AND recipient_id = ?", constants.TableNotification)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, true, id, recipientID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkAllRead marks every notification of recipientID as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET is_read = ? WHERE recipient_id = ? AND is_read = ?", constants.TableNotification)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, true, recipientID, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
