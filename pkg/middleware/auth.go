package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"user-backend/internal/data/entity"
	"user-backend/pkg/apperror"
	"user-backend/pkg/token"
	"user-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

const bearerPrefix = "Bearer "

var (
	errUserMissing = errors.New("user not found")
	errUserBlocked = errors.New("account is deactivated")
)

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// resolve turns a bearer token into an active user.
func resolve(ctx context.Context, tokens TokenVerifier, users UserFinder, raw string) (*entity.User, error) {
	claims, err := tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	user, err := users.FindByID(ctx, claims.UserUUID())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errUserMissing
	}
	if !user.IsActive {
		return nil, errUserBlocked
	}
	return user, nil
}

// Auth requires a valid bearer token belonging to an active user.
func Auth(tokens TokenVerifier, users UserFinder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				utils.ResponseUnauthorized(w, apperror.ErrAccessTokenRequired.Message)
				return
			}

			user, err := resolve(r.Context(), tokens, users, raw)
			if err != nil {
				switch {
				case errors.Is(err, apperror.ErrTokenExpired):
					utils.ResponseUnauthorized(w, apperror.ErrTokenExpired.Message)
				case errors.Is(err, apperror.ErrTokenInvalid):
					utils.ResponseUnauthorized(w, apperror.ErrTokenInvalid.Message)
				case errors.Is(err, errUserMissing):
					utils.ResponseUnauthorized(w, "User not found")
				case errors.Is(err, errUserBlocked):
					utils.ResponseUnauthorized(w, apperror.ErrAccountDeactivated.Message)
				default:
					logger.Error("Auth: failed to resolve user",
						zap.Error(err),
						zap.String("path", r.URL.Path))
					utils.ResponseInternalError(w, "Internal server error")
				}
				return
			}

			ctx := utils.SetUserContext(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the caller when a usable token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens TokenVerifier, users UserFinder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolve(r.Context(), tokens, users, raw)
			if err != nil {
				logger.Debug("OptionalAuth: continuing anonymously", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := utils.SetUserContext(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireRoles(logger *zap.Logger, message string, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			userID, _ := utils.GetUserIDFromContext(r.Context())
			logger.Warn("Role check: access denied",
				zap.String("user_id", userID.String()),
				zap.String("role", string(role)),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, message)
		})
	}
}

// RequireRoles lets through callers holding any of roles.
func RequireRoles(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return requireRoles(logger, apperror.ErrInsufficientPermissions.Message, roles...)
}

func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireRoles(logger, "Admin access required", entity.RoleAdmin)
}

// Moderator admits moderators and admins.
func Moderator(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireRoles(logger, "Moderator access required", entity.RoleAdmin, entity.RoleModerator)
}

// DenySelf rejects the request with 400 when the URL parameter names the caller.
func DenySelf(param, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if ok && chi.URLParam(r, param) == userID.String() {
				utils.ResponseBadRequest(w, message, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
