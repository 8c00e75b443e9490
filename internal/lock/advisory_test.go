package lock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getLockQuery     = "SELECT GET_LOCK\\(\\?, \\?\\)"
	releaseLockQuery = "SELECT RELEASE_LOCK\\(\\?\\)"
)

func lockRow(v any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"result"}).AddRow(v)
}

func TestSubmissionLockName(t *testing.T) {
	tests := []struct {
		name       string
		formID     string
		instanceID string
		expected   string
	}{
		{"plain", "household", "uuid:abc-1", "formrows:submission:household:uuid:abc-1"},
		{"unsafe characters", "house hold", "id/1'", "formrows:submission:house_hold:id_1_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubmissionLockName(tt.formID, tt.instanceID))
		})
	}
}

func TestSubmissionLockNameLong(t *testing.T) {
	instance := "uuid:" + strings.Repeat("f", 60)

	name := SubmissionLockName("household", instance)
	assert.Len(t, name, maxLockNameLength)
	assert.True(t, strings.HasPrefix(name, "formrows:submission:"))
	assert.Equal(t, name, SubmissionLockName("household", instance))
	assert.NotEqual(t, name, SubmissionLockName("census", instance))
}

func TestAcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	lock := NewSubmissionLock(db, "household", "uuid:1")
	mock.ExpectQuery(getLockQuery).
		WithArgs("formrows:submission:household:uuid:1", TimeoutMedium).
		WillReturnRows(lockRow(1))
	mock.ExpectQuery(releaseLockQuery).
		WithArgs("formrows:submission:household:uuid:1").
		WillReturnRows(lockRow(1))

	acquired, err := lock.AcquireLock(context.Background(), TimeoutMedium)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, lock.IsHeld())

	// Re-acquiring a held lock does not query again.
	acquired, err = lock.AcquireLock(context.Background(), TimeoutMedium)
	require.NoError(t, err)
	assert.True(t, acquired)

	released, err := lock.ReleaseLock(context.Background())
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, lock.IsHeld())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRow(0))

	lock := NewAdvisoryLock(db, "busy")
	acquired, err := lock.AcquireLock(context.Background(), TimeoutImmediate)
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.False(t, lock.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(mock sqlmock.Sqlmock)
		errMsg string
	}{
		{
			name: "NULL result",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(getLockQuery).WillReturnRows(lockRow(nil))
			},
			errMsg: "GET_LOCK returned NULL",
		},
		{
			name: "unexpected value",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(getLockQuery).WillReturnRows(lockRow(7))
			},
			errMsg: "unexpected GET_LOCK return value: 7",
		},
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(getLockQuery).WillReturnError(errors.New("connection reset"))
			},
			errMsg: "failed to execute GET_LOCK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setup(mock)

			lock := NewAdvisoryLock(db, "x")
			acquired, err := lock.AcquireLock(context.Background(), TimeoutImmediate)
			assert.False(t, acquired)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.False(t, lock.IsHeld())
		})
	}
}

func TestReleaseNotHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	released, err := NewAdvisoryLock(db, "x").ReleaseLock(context.Background())
	assert.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRow(1))
	mock.ExpectQuery(releaseLockQuery).WillReturnRows(lockRow(1))

	lock := NewAdvisoryLock(db, "x")
	called := false
	err = lock.WithLock(context.Background(), TimeoutMedium, func() error {
		called = true
		assert.True(t, lock.IsHeld())
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, lock.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLockTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRow(0))

	err = NewAdvisoryLock(db, "x").WithLock(context.Background(), TimeoutImmediate, func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})

	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLockReturnsFnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRow(1))
	mock.ExpectQuery(releaseLockQuery).WillReturnError(errors.New("gone"))

	boom := errors.New("boom")
	err = NewAdvisoryLock(db, "x").WithLock(context.Background(), TimeoutMedium, func() error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLockReleasesOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRow(1))
	mock.ExpectQuery(releaseLockQuery).WillReturnRows(lockRow(1))

	lock := NewAdvisoryLock(db, "x")
	assert.Panics(t, func() {
		_ = lock.WithLock(context.Background(), TimeoutMedium, func() error {
			panic("conversion bug")
		})
	})

	assert.False(t, lock.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}
