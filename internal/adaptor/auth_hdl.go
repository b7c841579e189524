package adaptor

import (
	"net/http"
	"strings"

	"user-backend/internal/dto/request"
	"user-backend/internal/dto/response"
	"user-backend/internal/usecase"
	"user-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	errorResponder
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger, config *utils.Config) *AuthHandler {
	log = log.With(zap.String("handler", "auth"))
	return &AuthHandler{
		errorResponder: errorResponder{log: log, config: config},
		service:        service,
		log:            log,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "register")
		return
	}

	utils.ResponseCreated(w, "User registered successfully", resp)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// Logout handles POST /auth/logout. The token stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		h.handleServiceError(w, r, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}

// GetProfile handles GET /auth/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", response.UserEnvelope{User: *user})
}

// UpdateProfile handles PUT /auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, r, err, "update profile")
		return
	}

	utils.ResponseSuccess(w, "Profile updated successfully", response.UserEnvelope{User: *user})
}

// ChangePassword handles PUT /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, &req); err != nil {
		h.handleServiceError(w, r, err, "change password")
		return
	}

	utils.ResponseSuccess(w, "Password changed successfully", nil)
}

// ForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.ForgotPassword(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "forgot password")
		return
	}

	utils.ResponseSuccess(w, "Password reset token generated. Check your email.", resp)
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		h.handleServiceError(w, r, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password reset successful", nil)
}

// RefreshToken handles POST /auth/refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		utils.ResponseBadRequest(w, "Token is required", nil)
		return
	}

	resp, err := h.service.RefreshToken(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err, "refresh token")
		return
	}

	utils.ResponseSuccess(w, "Token refreshed successfully", resp)
}

// VerifyEmail handles GET /auth/verify-email/{token}
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.handleServiceError(w, r, err, "verify email")
		return
	}

	utils.ResponseSuccess(w, "Email verified successfully", nil)
}
