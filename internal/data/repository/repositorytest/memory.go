// Package repositorytest provides an in-memory UserRepository with the same
// uniqueness and single-use token semantics as the Postgres one.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/internal/data/repository"
	"user-backend/pkg/apperror"

	"github.com/google/uuid"
)

type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User

	// Err, when set, is returned by every call.
	Err error
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*entity.User)}
}

func clone(u *entity.User) *entity.User {
	c := *u
	return &c
}

// Put stores u as is, bypassing uniqueness checks. Meant for test setup.
func (s *UserStore) Put(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = clone(u)
}

// Get returns the stored row, deleted or not.
func (s *UserStore) Get(id uuid.UUID) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return clone(u)
	}
	return nil
}

func (s *UserStore) live(id uuid.UUID) (*entity.User, bool) {
	u, ok := s.users[id]
	if !ok || u.IsDeleted() {
		return nil, false
	}
	return u, true
}

func (s *UserStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for _, existing := range s.users {
		if !existing.IsDeleted() && existing.Email == user.Email {
			return apperror.ErrDuplicateEmail
		}
	}
	s.users[user.ID] = clone(user)
	return nil
}

func (s *UserStore) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u, ok := s.live(id); ok {
		return clone(u), nil
	}
	return nil, nil
}

func (s *UserStore) FindByIDUnscoped(_ context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u, ok := s.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	email = entity.NormalizeEmail(email)
	for _, u := range s.users {
		if !u.IsDeleted() && u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (s *UserStore) matching(filter repository.UserFilter) []*entity.User {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*entity.User
	for _, u := range s.users {
		if u.IsDeleted() {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *UserStore) List(_ context.Context, filter repository.UserFilter) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	all := s.matching(filter)
	users := make([]*entity.User, 0, filter.Limit)
	for i := filter.Offset; i < len(all) && len(users) < filter.Limit; i++ {
		users = append(users, clone(all[i]))
	}
	return users, nil
}

func (s *UserStore) Count(_ context.Context, filter repository.UserFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.matching(filter))), nil
}

// update applies fn to a live user, or reports ErrUserNotFound.
func (s *UserStore) update(id uuid.UUID, fn func(u *entity.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.live(id)
	if !ok {
		return apperror.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (s *UserStore) UpdateProfile(_ context.Context, user *entity.User) error {
	return s.update(user.ID, func(u *entity.User) {
		u.FirstName = user.FirstName
		u.LastName = user.LastName
		u.Phone = user.Phone
		u.DateOfBirth = user.DateOfBirth
		u.Address = user.Address
		u.Avatar = user.Avatar
		u.IsActive = user.IsActive
		u.UpdatedAt = user.UpdatedAt
	})
}

func (s *UserStore) UpdateRole(_ context.Context, id uuid.UUID, role entity.UserRole) error {
	return s.update(id, func(u *entity.User) {
		u.Role = role
		u.UpdatedAt = time.Now()
	})
}

func (s *UserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return s.update(id, func(u *entity.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now()
	})
}

func (s *UserStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	return s.update(id, func(u *entity.User) {
		u.LastLoginAt = &at
	})
}

func (s *UserStore) SetPasswordResetToken(_ context.Context, id uuid.UUID, digest string, expires time.Time) error {
	return s.update(id, func(u *entity.User) {
		u.PasswordResetToken = &digest
		u.PasswordResetExpires = &expires
	})
}

func (s *UserStore) ConsumePasswordResetToken(_ context.Context, digest, passwordHash string, now time.Time) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.IsDeleted() || u.PasswordResetToken == nil || *u.PasswordResetToken != digest {
			continue
		}
		if u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
			continue
		}
		u.PasswordHash = passwordHash
		u.PasswordResetToken = nil
		u.PasswordResetExpires = nil
		u.UpdatedAt = now
		return clone(u), nil
	}
	return nil, nil
}

func (s *UserStore) ConsumeEmailVerificationToken(_ context.Context, digest string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.IsDeleted() || u.EmailVerificationToken == nil || *u.EmailVerificationToken != digest {
			continue
		}
		u.EmailVerified = true
		u.EmailVerificationToken = nil
		u.UpdatedAt = time.Now()
		return clone(u), nil
	}
	return nil, nil
}

func (s *UserStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(u *entity.User) {
		now := time.Now()
		u.DeletedAt = &now
	})
}

func (s *UserStore) Stats(_ context.Context, since time.Time) (*entity.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var stats entity.UserStats
	for _, u := range s.users {
		if u.IsDeleted() {
			continue
		}
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
		if u.Role == entity.RoleAdmin {
			stats.AdminUsers++
		}
		if !u.CreatedAt.Before(since) {
			stats.NewUsersToday++
		}
	}
	return &stats, nil
}
