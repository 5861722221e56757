package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradepro-api/pkg/database"
)

func TestSessionRepositoryGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"session_key", "payload", "updated_at"}).AddRow("s1", []byte(`{"subjects":[]}`), now)
	mock.ExpectQuery("SELECT session_key, payload, updated_at FROM planning_sessions WHERE session_key = \\$1").
		WithArgs("s1").
		WillReturnRows(rows)

	record, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"subjects":[]}`, string(record.Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("FROM planning_sessions").WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSessionRepositoryUpsertAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	ts := time.Now()
	mock.ExpectExec("INSERT INTO planning_sessions .* ON CONFLICT \\(session_key\\) DO UPDATE").
		WithArgs("s1", `{"subjects":[]}`, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM planning_sessions WHERE session_key = \\$1").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), "s1", []byte(`{"subjects":[]}`), ts))
	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteSessionRepositoryRoundTrip(t *testing.T) {
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo, err := NewSQLiteSessionRepository(ctx, db)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "grade-storage")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, "grade-storage", []byte(`{"v":1}`), first))
	require.NoError(t, repo.Upsert(ctx, "grade-storage", []byte(`{"v":2}`), first.Add(time.Hour)))

	record, err := repo.Get(ctx, "grade-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(record.Payload))
	assert.True(t, record.UpdatedAt.Equal(first.Add(time.Hour)))

	require.NoError(t, repo.Delete(ctx, "grade-storage"))
	require.NoError(t, repo.Delete(ctx, "grade-storage"))
	_, err = repo.Get(ctx, "grade-storage")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
