package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestUserRepositoryGetByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT").
		WithArgs("missing@example.edu").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@example.edu")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRecordLogin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	at := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WithArgs(at, "firefox", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO login_audit_logs").
		WithArgs("user-1", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.RecordLogin(context.Background(), "user-1", "firefox", at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRecordLoginRollsBackOnAuditFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO login_audit_logs").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.RecordLogin(context.Background(), "user-1", "", at)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", "student", "fac-1", "active", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryBrowserUsage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"browser", "count"}).
		AddRow("chrome", 12).
		AddRow("firefox", 3).
		AddRow("unknown", 1)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	stats, err := repo.BrowserUsage(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "chrome", stats[0].Browser)
	assert.Equal(t, 12, stats[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
