package request

import "user-backend/internal/data/entity"

// UpdateUserRequest is the admin edit. Role, email and password are changed
// through their own endpoints.
type UpdateUserRequest struct {
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,min=2,max=50,personname"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,min=2,max=50,personname"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,phone"`
	DateOfBirth *string `json:"dateOfBirth,omitempty" validate:"omitempty,birthdate"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Avatar      *string `json:"avatar,omitempty" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Profile returns the subset shared with UpdateProfileRequest.
func (r UpdateUserRequest) Profile() UpdateProfileRequest {
	return UpdateProfileRequest{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		DateOfBirth: r.DateOfBirth,
		Address:     r.Address,
		Avatar:      r.Avatar,
	}
}

type UpdateRoleRequest struct {
	Role entity.UserRole `json:"role" validate:"required,oneof=user admin moderator"`
}
