package usecase

import (
	"time"

	"user-backend/internal/data/repository"
	"user-backend/pkg/mailer"
	"user-backend/pkg/storage"
	"user-backend/pkg/token"
	"user-backend/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth   AuthService
	User   UserService
	Upload UploadService
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Repo    *repository.Repository
	Tokens  *token.Manager
	Hasher  *utils.PasswordHasher
	Mailer  mailer.Mailer
	Storage storage.Storage
	Config  *utils.Config
	Log     *zap.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		Auth:   NewAuthService(deps.Repo.User, deps.Tokens, deps.Hasher, deps.Mailer, deps.Config, deps.Log),
		User:   NewUserService(deps.Repo.User, deps.Log),
		Upload: NewUploadService(deps.Storage, deps.Config, deps.Log),
	}
}

// startOfDay is local midnight of t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
