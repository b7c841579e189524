package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock, zap.NewNop())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestUserFilter_Where(t *testing.T) {
	clause, args := UserFilter{}.where()
	assert.Equal(t, "deleted_at IS NULL", clause)
	assert.Empty(t, args)

	clause, args = UserFilter{Search: "  jo_e "}.where()
	assert.Contains(t, clause, "ILIKE $1")
	assert.Equal(t, []any{`%jo\_e%`}, args)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_live_key"})

	err := repo.Create(context.Background(), &entity.User{
		Base:  entity.Base{ID: uuid.New()},
		Email: "dup@example.com",
		Role:  entity.RoleUser,
	})

	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DriverError(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &entity.User{Base: entity.Base{ID: uuid.New()}})

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateRole(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users SET role = \$2`).
		WithArgs(id, "moderator").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateRole(context.Background(), id, entity.RoleModerator))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SoftDelete_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users SET deleted_at = NOW\(\)`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SoftDelete(context.Background(), id)

	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_DriverError(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users SET password = \$2`).
		WithArgs(id, "hash").
		WillReturnError(errors.New("timeout"))

	err := repo.UpdatePassword(context.Background(), id, "hash")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Count_WithSearch(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE deleted_at IS NULL AND`).
		WithArgs(`%100\%%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.Count(context.Background(), UserFilter{Search: "100%"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Stats(t *testing.T) {
	mock, repo := newMockRepo(t)
	since := time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local)

	mock.ExpectQuery(`FILTER \(WHERE created_at >= \$1\)`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"total", "active", "inactive", "admin", "today"}).
			AddRow(int64(10), int64(8), int64(2), int64(1), int64(4)))

	stats, err := repo.Stats(context.Background(), since)

	require.NoError(t, err)
	assert.Equal(t, entity.UserStats{
		TotalUsers:    10,
		ActiveUsers:   8,
		InactiveUsers: 2,
		AdminUsers:    1,
		NewUsersToday: 4,
	}, *stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
