package response

import (
	"time"

	"user-backend/internal/data/entity"
	"user-backend/pkg/utils"
)

// UserResponse is the public projection of a user. It has no field for the
// password hash or the single-use tokens.
type UserResponse struct {
	ID            string          `json:"id"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	FullName      string          `json:"fullName"`
	Email         string          `json:"email"`
	Role          entity.UserRole `json:"role"`
	IsActive      bool            `json:"isActive"`
	EmailVerified bool            `json:"emailVerified"`
	LastLoginAt   *time.Time      `json:"lastLoginAt"`
	Phone         *string         `json:"phone"`
	DateOfBirth   *string         `json:"dateOfBirth"`
	Address       *string         `json:"address"`
	Avatar        *string         `json:"avatar"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *time.Time      `json:"deletedAt,omitempty"`
}

type UserEnvelope struct {
	User UserResponse `json:"user"`
}

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// ForgotPasswordResponse echoes the reset token outside production only.
type ForgotPasswordResponse struct {
	ResetToken string    `json:"resetToken,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Helper converters
func UserToResponse(user *entity.User) UserResponse {
	resp := UserResponse{
		ID:            user.ID.String(),
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		FullName:      user.FullName(),
		Email:         user.Email,
		Role:          user.Role,
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		LastLoginAt:   user.LastLoginAt,
		Phone:         user.Phone,
		Address:       user.Address,
		Avatar:        user.Avatar,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
		DeletedAt:     user.DeletedAt,
	}
	if user.DateOfBirth != nil {
		dob := user.DateOfBirth.Format(utils.DateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

func UsersToResponse(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserToResponse(u))
	}
	return out
}

func AuthToResponse(user *entity.User, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		User:      UserToResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}
}
