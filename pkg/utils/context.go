package utils

import (
	"context"

	"user-backend/internal/data/entity"

	"github.com/google/uuid"
)

type contextKey string

const UserKey contextKey = "user"

// SetUserContext attaches the resolved caller. Only the sanitized copy is stored.
func SetUserContext(ctx context.Context, user *entity.User) context.Context {
	return context.WithValue(ctx, UserKey, user.Sanitized())
}

func GetUserFromContext(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(UserKey).(*entity.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}

func GetRoleFromContext(ctx context.Context) (entity.UserRole, bool) {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.Role, true
}
