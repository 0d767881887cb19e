package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"yatube/internal/auth"
)

func newService(t *testing.T) (pgxmock.PgxPoolIface, *auth.Service) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, auth.NewService(mock, zap.NewNop())
}

func TestContextHelpers(t *testing.T) {
	_, ok := auth.UserIDFrom(context.Background())
	assert.False(t, ok, "anonymous context has no user")

	ctx := auth.WithUserID(context.Background(), 7)
	uid, ok := auth.UserIDFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(7), uid)

	_, ok = auth.UserIDFrom(auth.WithUserID(context.Background(), 0))
	assert.False(t, ok, "zero id is not a user")
}

func TestService_Register(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`SELECT COUNT\(1\) FROM users WHERE username = \$1`).
			WithArgs("testuser").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("testuser", "Test", "", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		uid, err := svc.Register(context.Background(), auth.Registration{
			Username: " testuser ", FirstName: "Test", Password: "correct-horse",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), uid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("taken username", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`SELECT COUNT\(1\) FROM users`).
			WithArgs("testuser").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

		_, err := svc.Register(context.Background(), auth.Registration{Username: "testuser", Password: "correct-horse"})

		assert.ErrorIs(t, err, auth.ErrUsernameTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("race on unique constraint", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`SELECT COUNT\(1\) FROM users`).
			WithArgs("testuser").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("testuser", "", "", pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		_, err := svc.Register(context.Background(), auth.Registration{Username: "testuser", Password: "correct-horse"})

		assert.ErrorIs(t, err, auth.ErrUsernameTaken)
	})

	t.Run("input checks happen before the database", func(t *testing.T) {
		mock, svc := newService(t)

		_, err := svc.Register(context.Background(), auth.Registration{Username: "  ", Password: "correct-horse"})
		assert.ErrorIs(t, err, auth.ErrMissingFields)

		_, err = svc.Register(context.Background(), auth.Registration{Username: "testuser", Password: "short"})
		assert.ErrorIs(t, err, auth.ErrWeakPassword)

		_, err = svc.Register(context.Background(), auth.Registration{Username: strings.Repeat("u", 151), Password: "correct-horse"})
		assert.ErrorIs(t, err, auth.ErrNameTooLong)

		_, err = svc.Register(context.Background(), auth.Registration{Username: "testuser", LastName: strings.Repeat("l", 151), Password: "correct-horse"})
		assert.ErrorIs(t, err, auth.ErrNameTooLong)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCheckNames(t *testing.T) {
	assert.NoError(t, auth.CheckNames(strings.Repeat("u", auth.MaxNameLen), "", ""))
	// limit is in characters, not bytes
	assert.NoError(t, auth.CheckNames("leo", strings.Repeat("é", auth.MaxNameLen), ""))
	assert.ErrorIs(t, auth.CheckNames(strings.Repeat("u", auth.MaxNameLen+1), "", ""), auth.ErrNameTooLong)
	assert.ErrorIs(t, auth.CheckNames("", "Leo", ""), auth.ErrMissingFields)
}

func TestService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("ok creates session", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`SELECT id, password_hash FROM users WHERE username = \$1`).
			WithArgs("testuser").
			WillReturnRows(pgxmock.NewRows([]string{"id", "password_hash"}).AddRow(int64(7), string(hash)))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM sessions WHERE user_id = \$1 AND expires_at < now\(\)`).
			WithArgs(int64(7)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(pgxmock.AnyArg(), int64(7), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		sid, uid, err := svc.Login(context.Background(), "testuser", "correct-horse", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, int64(7), uid)
		_, perr := uuid.Parse(sid)
		assert.NoError(t, perr, "session id is a uuid")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad password", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`SELECT id, password_hash FROM users`).
			WithArgs("testuser").
			WillReturnRows(pgxmock.NewRows([]string{"id", "password_hash"}).AddRow(int64(7), string(hash)))

		_, _, err := svc.Login(context.Background(), "testuser", "wrong-horse", time.Hour)

		assert.ErrorIs(t, err, auth.ErrInvalidLogin)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`SELECT id, password_hash FROM users`).
			WithArgs("nobody").
			WillReturnError(pgx.ErrNoRows)

		_, _, err := svc.Login(context.Background(), "nobody", "whatever1", time.Hour)

		assert.ErrorIs(t, err, auth.ErrInvalidLogin)
	})
}

func TestService_UserFromSession(t *testing.T) {
	sid := uuid.New().String()
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`SELECT user_id, expires_at FROM sessions WHERE id = \$1`).
			WithArgs(sid).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow(int64(7), exp))

		uid, gotExp, err := svc.UserFromSession(context.Background(), sid)

		require.NoError(t, err)
		assert.Equal(t, int64(7), uid)
		assert.Equal(t, exp, gotExp)
	})

	t.Run("unknown", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`FROM sessions`).WithArgs(sid).WillReturnError(pgx.ErrNoRows)

		_, _, err := svc.UserFromSession(context.Background(), sid)
		assert.ErrorIs(t, err, auth.ErrNoSession)
	})

	t.Run("malformed cookie never reaches the database", func(t *testing.T) {
		mock, svc := newService(t)

		_, _, err := svc.UserFromSession(context.Background(), "not-a-uuid")

		assert.ErrorIs(t, err, auth.ErrNoSession)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error passes through", func(t *testing.T) {
		mock, svc := newService(t)
		mock.ExpectQuery(`FROM sessions`).WithArgs(sid).WillReturnError(errors.New("boom"))

		_, _, err := svc.UserFromSession(context.Background(), sid)
		assert.EqualError(t, err, "boom")
	})
}

func TestHashPassword(t *testing.T) {
	_, err := auth.HashPassword("short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	h, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("correct-horse")))
}
