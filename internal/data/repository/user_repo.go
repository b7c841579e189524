package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/pkg/apperror"
	"user-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

// UserFilter selects a page of live users. Search matches first name, last
// name or email, case-insensitively.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, filter UserFilter) ([]*entity.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error
	ConsumePasswordResetToken(ctx context.Context, digest, passwordHash string, now time.Time) (*entity.User, error)
	ConsumeEmailVerificationToken(ctx context.Context, digest string) (*entity.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, since time.Time) (*entity.UserStats, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `
	id, first_name, last_name, email, password, role::text, is_active, email_verified,
	email_verification_token, password_reset_token, password_reset_expires, last_login_at,
	phone, date_of_birth, address, avatar, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	var role string
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.IsActive,
		&user.EmailVerified,
		&user.EmailVerificationToken,
		&user.PasswordResetToken,
		&user.PasswordResetExpires,
		&user.LastLoginAt,
		&user.Phone,
		&user.DateOfBirth,
		&user.Address,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = entity.UserRole(role)
	return &user, nil
}

// Create inserts a new user. A live row with the same email yields ErrDuplicateEmail.
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, password, role, is_active,
		                   email_verified, email_verification_token, phone, date_of_birth,
		                   address, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.IsActive,
		user.EmailVerified,
		user.EmailVerificationToken,
		user.Phone,
		user.DateOfBirth,
		user.Address,
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.ErrDuplicateEmail
		}
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (ur *userRepository) findOne(ctx context.Context, op, where string, arg any) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(ur.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to "+op,
			zap.Error(err),
			zap.Any("key", arg),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return ur.findOne(ctx, "find user by ID", `id = $1 AND deleted_at IS NULL`, id)
}

// FindByIDUnscoped also returns soft-deleted users.
func (ur *userRepository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return ur.findOne(ctx, "find user by ID unscoped", `id = $1`, id)
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return ur.findOne(ctx, "find user by email", `email = $1 AND deleted_at IS NULL`, entity.NormalizeEmail(email))
}

// escapeLike makes the LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// where builds the shared WHERE clause and arguments for List and Count.
func (f UserFilter) where() (string, []any) {
	clause := `deleted_at IS NULL`
	var args []any
	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		clause += ` AND (first_name ILIKE $1 ESCAPE '\' OR last_name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\')`
	}
	return clause, args
}

// List returns users newest first.
func (ur *userRepository) List(ctx context.Context, filter UserFilter) ([]*entity.User, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := ur.db.Query(ctx, query, args...)
	if err != nil {
		ur.log.Error("Failed to list users",
			zap.Error(err),
			zap.Int("limit", filter.Limit),
			zap.Int("offset", filter.Offset),
		)
		return nil, fmt.Errorf("list users limit %d offset %d: %w", filter.Limit, filter.Offset, err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0, filter.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return users, nil
}

func (ur *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	where, args := filter.where()
	query := `SELECT COUNT(*) FROM users WHERE ` + where

	var count int64
	if err := ur.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		ur.log.Error("Database error counting users", zap.Error(err))
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// exec runs a single-row UPDATE and reports ErrUserNotFound when nothing matched.
func (ur *userRepository) exec(ctx context.Context, op string, id uuid.UUID, query string, args ...any) error {
	result, err := ur.db.Exec(ctx, query, args...)
	if err != nil {
		ur.log.Error("Failed to "+op,
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("%s %s: %w", op, id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

// UpdateProfile writes only the columns a profile or admin edit may change.
func (ur *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, date_of_birth = $5,
		    address = $6, avatar = $7, is_active = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`
	return ur.exec(ctx, "update user", user.ID, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.DateOfBirth,
		user.Address,
		user.Avatar,
		user.IsActive,
		user.UpdatedAt,
	)
}

func (ur *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return ur.exec(ctx, "update user role", id, query, id, string(role))
}

func (ur *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return ur.exec(ctx, "update user password", id, query, id, passwordHash)
}

func (ur *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	return ur.exec(ctx, "update user last login", id, query, id, at)
}

func (ur *userRepository) SetPasswordResetToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return ur.exec(ctx, "set password reset token", id, query, id, digest, expires)
}

// ConsumePasswordResetToken sets the new password and clears the token in one
// statement, so a token can be redeemed at most once. Returns nil, nil when no
// live user holds an unexpired token with this digest.
func (ur *userRepository) ConsumePasswordResetToken(ctx context.Context, digest, passwordHash string, now time.Time) (*entity.User, error) {
	query := `
		UPDATE users
		SET password = $2, password_reset_token = NULL, password_reset_expires = NULL, updated_at = $3
		WHERE password_reset_token = $1 AND password_reset_expires > $3 AND deleted_at IS NULL
		RETURNING ` + userColumns

	user, err := scanUser(ur.db.QueryRow(ctx, query, digest, passwordHash, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to consume password reset token", zap.Error(err))
		return nil, fmt.Errorf("consume password reset token: %w", err)
	}
	return user, nil
}

// ConsumeEmailVerificationToken marks the holder verified and clears the token.
func (ur *userRepository) ConsumeEmailVerificationToken(ctx context.Context, digest string) (*entity.User, error) {
	query := `
		UPDATE users
		SET email_verified = TRUE, email_verification_token = NULL, updated_at = NOW()
		WHERE email_verification_token = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns

	user, err := scanUser(ur.db.QueryRow(ctx, query, digest))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to consume email verification token", zap.Error(err))
		return nil, fmt.Errorf("consume email verification token: %w", err)
	}
	return user, nil
}

func (ur *userRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	if err := ur.exec(ctx, "delete user", id, query, id); err != nil {
		return err
	}

	ur.log.Info("User deleted", zap.String("id", id.String()))
	return nil
}

// Stats counts live users. NewUsersToday counts rows created at or after since.
func (ur *userRepository) Stats(ctx context.Context, since time.Time) (*entity.UserStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE NOT is_active),
		       COUNT(*) FILTER (WHERE role = 'admin'),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM users
		WHERE deleted_at IS NULL
	`

	var stats entity.UserStats
	err := ur.db.QueryRow(ctx, query, since).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.InactiveUsers,
		&stats.AdminUsers,
		&stats.NewUsersToday,
	)
	if err != nil {
		ur.log.Error("Failed to get user stats", zap.Error(err))
		return nil, fmt.Errorf("user stats: %w", err)
	}

	return &stats, nil
}
