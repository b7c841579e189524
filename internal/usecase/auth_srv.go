package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/internal/data/repository"
	"user-backend/internal/dto/request"
	"user-backend/internal/dto/response"
	"user-backend/pkg/apperror"
	"user-backend/pkg/mailer"
	"user-backend/pkg/token"
	"user-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) (*response.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, verificationToken string) error
	RefreshToken(ctx context.Context, req *request.RefreshTokenRequest) (*response.AuthResponse, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *token.Manager
	hasher *utils.PasswordHasher
	mailer mailer.Mailer
	config *utils.Config
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens *token.Manager,
	hasher *utils.PasswordHasher,
	mail mailer.Mailer,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		mailer: mail,
		config: config,
		log:    log.With(zap.String("service", "auth")),
		now:    time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	// 1. Validate input
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	// 2. Hash password
	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	dob, err := parseBirthDate(req.DateOfBirth)
	if err != nil {
		return nil, apperror.Validation([]apperror.FieldError{{Field: "dateOfBirth", Message: "Please provide a valid date of birth (YYYY-MM-DD)"}})
	}

	// 3. Mint the email verification token, only its digest is stored
	verification, err := token.NewOpaque()
	if err != nil {
		return nil, err
	}
	verificationDigest := token.Digest(verification)

	// 4. Create user entity
	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        utils.GenerateUUID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FirstName:              strings.TrimSpace(req.FirstName),
		LastName:               strings.TrimSpace(req.LastName),
		Email:                  entity.NormalizeEmail(req.Email),
		PasswordHash:           hashedPassword,
		Role:                   entity.RoleUser,
		IsActive:               true,
		EmailVerified:          false,
		EmailVerificationToken: &verificationDigest,
		Phone:                  optional(req.Phone),
		DateOfBirth:            dob,
		Address:                optional(req.Address),
	}

	// 5. Save user, the store rejects a live duplicate email
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.mailer.SendEmailVerification(ctx, user.Email, verification); err != nil {
		s.log.Warn("Failed to deliver verification email",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	// 6. Issue access token
	signed, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	resp := response.AuthToResponse(user, signed, expiresAt)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.CompareDummy(req.Password)
		return nil, apperror.ErrInvalidCredentials
	}

	// Password first: only a correct password may learn the account is deactivated.
	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		s.log.Warn("Login failed: wrong password", zap.String("user_id", user.ID.String()))
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.ErrAccountDeactivated
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	signed, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	resp := response.AuthToResponse(user, signed, expiresAt)
	return &resp, nil
}

// Logout only acknowledges. Issued tokens stay valid until they expire.
func (s *authService) Logout(_ context.Context, userID uuid.UUID) error {
	s.log.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

func (s *authService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound
	}
	return user, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := applyProfile(user, *req); err != nil {
		return nil, apperror.Validation([]apperror.FieldError{{Field: "dateOfBirth", Message: "Please provide a valid date of birth (YYYY-MM-DD)"}})
	}
	user.UpdatedAt = s.now()

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("Profile updated", zap.String("user_id", user.ID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error {
	if err := utils.Validate(req); err != nil {
		return err
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Compare(user.PasswordHash, req.CurrentPassword) {
		return apperror.ErrCurrentPasswordIncorrect
	}

	hashedPassword, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}

	s.log.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) (*response.ForgotPasswordResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound
	}

	resetToken, err := token.NewOpaque()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(token.PasswordResetTTL)

	if err := s.users.SetPasswordResetToken(ctx, user.ID, token.Digest(resetToken), expiresAt); err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetToken, expiresAt); err != nil {
		return nil, fmt.Errorf("deliver password reset: %w", err)
	}

	s.log.Info("Password reset token generated", zap.String("user_id", user.ID.String()))

	resp := &response.ForgotPasswordResponse{ExpiresAt: expiresAt}
	if !s.config.App.IsProduction() {
		resp.ResetToken = resetToken
	}
	return resp, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	if err := utils.Validate(req); err != nil {
		return err
	}

	hashedPassword, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	user, err := s.users.ConsumePasswordResetToken(ctx, token.Digest(req.ResetToken), hashedPassword, s.now())
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrInvalidOrExpiredToken
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, verificationToken string) error {
	if strings.TrimSpace(verificationToken) == "" {
		return apperror.ErrInvalidVerificationToken
	}

	user, err := s.users.ConsumeEmailVerificationToken(ctx, token.Digest(verificationToken))
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrInvalidVerificationToken
	}

	s.log.Info("Email verified", zap.String("user_id", user.ID.String()))
	return nil
}

// RefreshToken issues a new token for the holder of a still valid one. The old
// token is not revoked.
func (s *authService) RefreshToken(ctx context.Context, req *request.RefreshTokenRequest) (*response.AuthResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.Verify(req.Token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserUUID())
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperror.ErrUserNotFoundOrInactive
	}

	signed, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	resp := response.AuthToResponse(user, signed, expiresAt)
	return &resp, nil
}
