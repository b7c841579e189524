package usecase

import (
	"context"
	"strings"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/internal/data/repository"
	"user-backend/internal/dto/request"
	"user-backend/internal/dto/response"
	"user-backend/pkg/apperror"
	"user-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	SearchUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	GetUserByID(ctx context.Context, userID string) (*response.UserResponse, error)
	GetUserByIDUnscoped(ctx context.Context, userID string) (*response.UserResponse, error)
	UpdateUser(ctx context.Context, userID string, req *request.UpdateUserRequest) (*response.UserResponse, error)
	UpdateUserRole(ctx context.Context, userID string, req *request.UpdateRoleRequest) (*response.UserResponse, error)
	ToggleUserStatus(ctx context.Context, userID string) (*response.UserResponse, error)
	DeleteUser(ctx context.Context, userID string) error
	GetUserStats(ctx context.Context) (*response.StatsResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
		now:      time.Now,
	}
}

// parseID treats a malformed id like an unknown one.
func parseID(userID string) (uuid.UUID, error) {
	id, err := utils.ParseUUID(userID)
	if err != nil {
		return uuid.Nil, apperror.ErrUserNotFound
	}
	return id, nil
}

func (us *userService) find(ctx context.Context, userID string) (*entity.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound
	}
	return user, nil
}

func (us *userService) list(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	filter := repository.UserFilter{
		Search: req.Search,
		Limit:  req.PageSize(),
		Offset: req.Offset(),
	}

	users, err := us.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := us.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := max(req.Page, 1)
	return response.NewPaginatedResponse(response.UsersToResponse(users), page, req.PageSize(), total), nil
}

// GetAllUsers lists live users newest first. Search is optional.
func (us *userService) GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	return us.list(ctx, req)
}

// SearchUsers is GetAllUsers with a mandatory query.
func (us *userService) SearchUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if strings.TrimSpace(req.Search) == "" {
		return nil, apperror.BadRequest("Search query is required")
	}
	return us.list(ctx, req)
}

func (us *userService) GetUserByID(ctx context.Context, userID string) (*response.UserResponse, error) {
	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

// GetUserByIDUnscoped also finds soft-deleted users.
func (us *userService) GetUserByIDUnscoped(ctx context.Context, userID string) (*response.UserResponse, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.FindByIDUnscoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

// UpdateUser applies the admin allow-list: profile fields and the active flag.
func (us *userService) UpdateUser(ctx context.Context, userID string, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := applyProfile(user, req.Profile()); err != nil {
		return nil, apperror.Validation([]apperror.FieldError{{Field: "dateOfBirth", Message: "Please provide a valid date of birth (YYYY-MM-DD)"}})
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = us.now()

	if err := us.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	us.log.Info("User updated", zap.String("user_id", user.ID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateUserRole(ctx context.Context, userID string, req *request.UpdateRoleRequest) (*response.UserResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := us.userRepo.UpdateRole(ctx, user.ID, req.Role); err != nil {
		return nil, err
	}
	user.Role = req.Role
	user.UpdatedAt = us.now()

	us.log.Info("User role updated",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(req.Role)))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) ToggleUserStatus(ctx context.Context, userID string) (*response.UserResponse, error) {
	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	user.UpdatedAt = us.now()
	if err := us.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	us.log.Info("User status toggled",
		zap.String("user_id", user.ID.String()),
		zap.Bool("is_active", user.IsActive))

	resp := response.UserToResponse(user)
	return &resp, nil
}

// DeleteUser soft-deletes the user.
func (us *userService) DeleteUser(ctx context.Context, userID string) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	return us.userRepo.SoftDelete(ctx, id)
}

func (us *userService) GetUserStats(ctx context.Context) (*response.StatsResponse, error) {
	stats, err := us.userRepo.Stats(ctx, startOfDay(us.now()))
	if err != nil {
		return nil, err
	}
	resp := response.StatsToResponse(stats)
	return &resp, nil
}
