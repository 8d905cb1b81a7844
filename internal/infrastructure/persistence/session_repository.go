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

// SessionRepository handles database operations for user sessions
type SessionRepository struct {
	db *database.Connection
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *database.Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSession creates a new session in the database
func (r *SessionRepository) InsertSession(ctx context.Context, s *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, expires_at, is_revoked, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		constants.TableSession)

	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.ExpiresAt.UTC(),
		s.IsRevoked,
		s.CreatedAt.UTC(),
		s.LastActivity.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by its ID (from JWT claim); nil when absent.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, expires_at, is_revoked, created_at, last_activity
		FROM %s
		WHERE id = ? LIMIT 1`,
		constants.TableSession)

	var s models.Session
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID,
		&s.UserID,
		&s.ExpiresAt,
		&s.IsRevoked,
		&s.CreatedAt,
		&s.LastActivity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// RevokeSession marks a session as revoked
func (r *SessionRepository) RevokeSession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET is_revoked = ? WHERE id = ?", constants.TableSession)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, true, sessionID)
	return err
}

// RevokeOtherSessions revokes every live session of userID except keepID.
func (r *SessionRepository) RevokeOtherSessions(ctx context.Context, userID, keepID string) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET is_revoked = ? WHERE user_id = ? AND id <> ? AND is_revoked = ?", constants.TableSession)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, true, userID, keepID, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeAllSessions revokes every live session of userID.
func (r *SessionRepository) RevokeAllSessions(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET is_revoked = ? WHERE user_id = ? AND is_revoked = ?", constants.TableSession)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, true, userID, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateLastActivity updates the last activity timestamp
func (r *SessionRepository) UpdateLastActivity(ctx context.Context, sessionID string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET last_activity = ? WHERE id = ?", constants.TableSession)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, at.UTC(), sessionID)
	return err
}

// DeleteStale removes sessions that expired, or were revoked, before cutoff.
func (r *SessionRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ? OR (is_revoked = ? AND last_activity < ?)", constants.TableSession)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, cutoff.UTC(), true, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	return res.RowsAffected()
}
