package request

type RegisterRequest struct {
	FirstName   string  `json:"firstName" validate:"required,min=2,max=50,personname"`
	LastName    string  `json:"lastName" validate:"required,min=2,max=50,personname"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=8,maxbytes=72,strongpassword"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,phone"`
	DateOfBirth *string `json:"dateOfBirth,omitempty" validate:"omitempty,birthdate"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries only the fields a user may change on their own
// account. Nil fields are left untouched.
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,min=2,max=50,personname"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,min=2,max=50,personname"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,phone"`
	DateOfBirth *string `json:"dateOfBirth,omitempty" validate:"omitempty,birthdate"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Avatar      *string `json:"avatar,omitempty" validate:"omitempty,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,maxbytes=72,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=NewPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	ResetToken      string `json:"resetToken" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,maxbytes=72,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=NewPassword"`
}

type RefreshTokenRequest struct {
	Token string `json:"token" validate:"required"`
}
