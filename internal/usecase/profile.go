package usecase

import (
	"strings"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/internal/dto/request"
	"user-backend/pkg/utils"
)

// optional turns a blank string into nil so clients can clear a field.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseBirthDate(s *string) (*time.Time, error) {
	v := optional(s)
	if v == nil {
		return nil, nil
	}
	dob, err := time.Parse(utils.DateLayout, *v)
	if err != nil {
		return nil, err
	}
	return &dob, nil
}

// applyProfile copies the allow-listed profile fields present in req onto user.
func applyProfile(user *entity.User, req request.UpdateProfileRequest) error {
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = optional(req.Phone)
	}
	if req.DateOfBirth != nil {
		dob, err := parseBirthDate(req.DateOfBirth)
		if err != nil {
			return err
		}
		user.DateOfBirth = dob
	}
	if req.Address != nil {
		user.Address = optional(req.Address)
	}
	if req.Avatar != nil {
		user.Avatar = optional(req.Avatar)
	}
	return nil
}
