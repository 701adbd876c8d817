package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/godolist/godo-api/internal/models"
)

// SessionRepository persists the per-token revocation records. Every method
// is a single statement; callers never wrap these in transactions.
type SessionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{db: db, logger: logger}
}

// Create inserts a session row for the token.
func (r *SessionRepository) Create(ctx context.Context, userID, token string) error {
	session := models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO sessions (token, user_id, created_at) VALUES (:token, :user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Invalidate deletes the row matching token. Deleting a token that has no
// row is not an error.
func (r *SessionRepository) Invalidate(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token = $1`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

// InvalidateAllForUser deletes every session owned by userID and returns how
// many rows went away. Callers must not depend on the count for correctness.
func (r *SessionRepository) InvalidateAllForUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM sessions WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("invalidate user sessions: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return count, nil
}

// IsValid reports whether a session row exists for the token. It is a pure
// existence check; time-based expiry belongs to the token verifier.
func (r *SessionRepository) IsValid(ctx context.Context, token string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sessions WHERE token = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, token); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session: %w", err)
	}
	return exists, nil
}

// CleanExpired deletes sessions older than the retention window and returns
// the number removed. Failures are logged and reported as zero: the sweep is
// best-effort maintenance, not a user-facing operation.
func (r *SessionRepository) CleanExpired(ctx context.Context, retention time.Duration) int64 {
	const query = `DELETE FROM sessions WHERE created_at < $1`
	cutoff := time.Now().UTC().Add(-retention)

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("failed to clean expired sessions", zap.Error(err))
		return 0
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return count
}
