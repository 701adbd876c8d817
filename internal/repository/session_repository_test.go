package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("token-1", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "user-1", "token-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryInvalidate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)

	// Zero rows affected is still success: invalidation is idempotent.
	mock.ExpectExec("DELETE FROM sessions WHERE token").
		WithArgs("missing-token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Invalidate(context.Background(), "missing-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryInvalidateAllForUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectExec("DELETE FROM sessions WHERE user_id").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.InvalidateAllForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryIsValid(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("token-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	valid, err := repo.IsValid(context.Background(), "token-1")
	require.NoError(t, err)
	assert.True(t, valid)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("token-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	valid, err = repo.IsValid(context.Background(), "token-2")
	require.NoError(t, err)
	assert.False(t, valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCleanExpired(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectExec("DELETE FROM sessions WHERE created_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))

	count := repo.CleanExpired(context.Background(), 24*time.Hour)
	assert.Equal(t, int64(5), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCleanExpiredSwallowsErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db, nil)
	mock.ExpectExec("DELETE FROM sessions WHERE created_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	count := repo.CleanExpired(context.Background(), 24*time.Hour)
	assert.Equal(t, int64(0), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
