package adaptor

import (
	"net/http"

	"user-backend/internal/data/entity"
	"user-backend/internal/dto/request"
	"user-backend/internal/dto/response"
	"user-backend/internal/usecase"
	"user-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	errorResponder
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger, config *utils.Config) *UserHandler {
	log = log.With(zap.String("handler", "user"))
	return &UserHandler{
		errorResponder: errorResponder{log: log, config: config},
		service:        service,
		log:            log,
	}
}

func paginatedRequest(r *http.Request, searchParam string) *request.PaginatedRequest {
	page, limit := utils.ParsePagination(r)
	return &request.PaginatedRequest{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get(searchParam),
	}
}

// GetAllUsers handles GET /users (admin only)
func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context(), paginatedRequest(r, "search"))
	if err != nil {
		h.handleServiceError(w, r, err, "get all users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// SearchUsers handles GET /users/search?q=
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.SearchUsers(r.Context(), paginatedRequest(r, "q"))
	if err != nil {
		h.handleServiceError(w, r, err, "search users")
		return
	}

	utils.ResponseSuccess(w, "Search completed successfully", users)
}

// GetUserByID handles GET /users/{id}. Admins may pass includeDeleted=true.
func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		user *response.UserResponse
		err  error
	)
	role, _ := utils.GetRoleFromContext(r.Context())
	if role == entity.RoleAdmin && utils.ParseBool(r.URL.Query().Get("includeDeleted")) {
		user, err = h.service.GetUserByIDUnscoped(r.Context(), id)
	} else {
		user, err = h.service.GetUserByID(r.Context(), id)
	}
	if err != nil {
		h.handleServiceError(w, r, err, "get user")
		return
	}

	utils.ResponseSuccess(w, "User retrieved successfully", response.UserEnvelope{User: *user})
}

// UpdateUser handles PUT /users/{id} (admin only)
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req request.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	callerID, _ := utils.GetUserIDFromContext(r.Context())
	if req.IsActive != nil && !*req.IsActive && callerID.String() == id {
		utils.ResponseBadRequest(w, "You cannot deactivate your own account", nil)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err, "update user")
		return
	}

	utils.ResponseSuccess(w, "User updated successfully", response.UserEnvelope{User: *user})
}

// UpdateUserRole handles PATCH /users/{id}/role (admin only)
func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUserRole(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "update user role")
		return
	}

	utils.ResponseSuccess(w, "User role updated successfully", response.UserEnvelope{User: *user})
}

// ToggleUserStatus handles PATCH /users/{id}/toggle-status (admin only)
func (h *UserHandler) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.ToggleUserStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err, "toggle user status")
		return
	}

	message := "User deactivated successfully"
	if user.IsActive {
		message = "User activated successfully"
	}
	utils.ResponseSuccess(w, message, response.UserEnvelope{User: *user})
}

// DeleteUser handles DELETE /users/{id} (admin only)
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err, "delete user")
		return
	}

	utils.ResponseSuccess(w, "User deleted successfully", nil)
}

// GetUserStats handles GET /users/stats/overview (admin only)
func (h *UserHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetUserStats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "get user stats")
		return
	}

	utils.ResponseSuccess(w, "User statistics retrieved successfully", response.StatsEnvelope{Stats: *stats})
}
