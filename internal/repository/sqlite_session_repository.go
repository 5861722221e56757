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

const sqliteSessionSchema = `CREATE TABLE IF NOT EXISTS planning_sessions (
	session_key TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
)`

// SQLiteSessionRepository stores planning-session blobs in a local SQLite file.
type SQLiteSessionRepository struct {
	db *sqlx.DB
}

// NewSQLiteSessionRepository creates the planning_sessions table when missing.
func NewSQLiteSessionRepository(ctx context.Context, db *sqlx.DB) (*SQLiteSessionRepository, error) {
	if _, err := db.ExecContext(ctx, sqliteSessionSchema); err != nil {
		return nil, fmt.Errorf("create planning_sessions table: %w", err)
	}
	return &SQLiteSessionRepository{db: db}, nil
}

// Get returns the stored blob for key or sql.ErrNoRows.
func (r *SQLiteSessionRepository) Get(ctx context.Context, key string) (*models.SessionRecord, error) {
	const query = `SELECT session_key, payload, updated_at FROM planning_sessions WHERE session_key = ?`
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
func (r *SQLiteSessionRepository) Upsert(ctx context.Context, key string, payload []byte, updatedAt time.Time) error {
	const query = `INSERT INTO planning_sessions (session_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT (session_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(payload), updatedAt.UTC()); err != nil {
		return fmt.Errorf("upsert planning session: %w", err)
	}
	return nil
}

// Delete removes the blob stored under key. Deleting a missing key is not an error.
func (r *SQLiteSessionRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM planning_sessions WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("delete planning session: %w", err)
	}
	return nil
}
