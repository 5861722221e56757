package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradepro-api/internal/models"
)

// SessionRepository stores planning-session blobs in the postgres planning_sessions table.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the stored blob for key or sql.ErrNoRows.
func (r *SessionRepository) Get(ctx context.Context, key string) (*models.SessionRecord, error) {
	const query = `SELECT session_key, payload, updated_at FROM planning_sessions WHERE session_key = $1`
	var record models.SessionRecord
	if err := r.db.GetContext(ctx, &record, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get planning session: %w", err)
	}
	return &record, nil
}

// Upsert replaces the blob stored under key.
func (r *SessionRepository) Upsert(ctx context.Context, key string, payload []byte, updatedAt time.Time) error {
	const query = `INSERT INTO planning_sessions (session_key, payload, updated_at) VALUES ($1, $2::jsonb, $3)
ON CONFLICT (session_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(payload), updatedAt); err != nil {
		return fmt.Errorf("upsert planning session: %w", err)
	}
	return nil
}

// Delete removes the blob stored under key. Deleting a missing key is not an error.
func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM planning_sessions WHERE session_key = $1`
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete planning session: %w", err)
	}
	return nil
}
