package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/internal/data/repository"
	"user-backend/internal/data/repository/repositorytest"
	"user-backend/internal/usecase"
	"user-backend/pkg/mailer"
	"user-backend/pkg/storage"
	"user-backend/pkg/token"
	"user-backend/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
	Stack   string          `json:"stack"`
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	router http.Handler
	store  *repositorytest.UserStore
	tokens *token.Manager
	hasher *utils.PasswordHasher
}

func newTestServer(t *testing.T, mutate ...func(*Deps)) *testServer {
	t.Helper()

	tokens, err := token.NewManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	store := repositorytest.NewUserStore()
	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	log := zap.NewNop()

	deps := Deps{
		Deps: usecase.Deps{
			Repo:    &repository.Repository{User: store},
			Tokens:  tokens,
			Hasher:  hasher,
			Mailer:  mailer.NewLogMailer(log),
			Storage: local,
			Config: &utils.Config{
				App:    utils.AppConfig{Name: "user-backend", Env: utils.EnvTest, APIPrefix: "/api/v1"},
				Upload: utils.UploadConfig{MaxFileSize: 1024 * 1024, MaxFiles: 2},
			},
			Log: log,
		},
		DB: pingFunc(func(context.Context) error { return nil }),
	}
	for _, fn := range mutate {
		fn(&deps)
	}

	return &testServer{router: Wiring(deps).Router, store: store, tokens: tokens, hasher: hasher}
}

func (s *testServer) seed(t *testing.T, email string, role entity.UserRole) (*entity.User, string) {
	t.Helper()
	hash, err := s.hasher.Hash("Test@123")
	require.NoError(t, err)

	now := time.Now()
	user := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		FirstName:    "Seed",
		LastName:     "User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	s.store.Put(user)

	tok, _, err := s.tokens.Issue(user)
	require.NoError(t, err)
	return user, tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRegisterScenario(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"firstName": "Test",
		"lastName":  "User",
		"email":     "t@example.com",
		"password":  "Test@123",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully", env.Message)
	assert.NotContains(t, rec.Body.String(), "password")

	var data struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, "t@example.com", data.User.Email)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"firstName": "Test",
		"lastName":  "User",
		"email":     "T@example.com",
		"password":  "Test@123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists with this email", env.Message)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"firstName": "T",
		"email":     "nope",
		"password":  "short",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation errors", env.Message)

	var fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Errors, &fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.Contains(t, names, "firstName")
	assert.Contains(t, names, "lastName")
	assert.Contains(t, names, "email")
	assert.Contains(t, names, "password")
}

func TestPasswordOverByteLimitRejected(t *testing.T) {
	s := newTestServer(t)
	long := "Aa1@" + strings.Repeat("x", 80)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"firstName": "Test",
		"lastName":  "User",
		"email":     "long@example.com",
		"password":  long,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Errors, &fields))
	require.Len(t, fields, 1)
	assert.Equal(t, "password", fields[0].Field)
	assert.Equal(t, "Maximum length is 72 bytes", fields[0].Message)

	_, tok := s.seed(t, "t@example.com", entity.RoleUser)
	rec, _ = s.do(t, http.MethodPut, "/api/v1/auth/change-password", tok, map[string]string{
		"currentPassword": "Test@123",
		"newPassword":     long,
		"confirmPassword": long,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{
		"resetToken":      "whatever",
		"newPassword":     long,
		"confirmPassword": long,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginScenarios(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "t@example.com", entity.RoleUser)
	off, _ := s.seed(t, "off@example.com", entity.RoleUser)
	off.IsActive = false
	s.store.Put(off)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "t@example.com", "password": "Wrong@123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid credentials", env.Message)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "off@example.com", "password": "Test@123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Account is deactivated", env.Message)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "t@example.com", "password": "Test@123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", env.Message)
}

func TestInvalidBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestProfileRequiresToken(t *testing.T) {
	s := newTestServer(t)
	user, tok := s.seed(t, "t@example.com", entity.RoleUser)

	rec, env := s.do(t, http.MethodGet, "/api/v1/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token is required", env.Message)

	rec, env = s.do(t, http.MethodGet, "/api/v1/auth/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", env.Message)

	rec, env = s.do(t, http.MethodGet, "/api/v1/auth/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, user.ID.String(), data.User.ID)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	_, userTok := s.seed(t, "user@example.com", entity.RoleUser)
	_, adminTok := s.seed(t, "admin@example.com", entity.RoleAdmin)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/users", userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", env.Message)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users?page=1&limit=1", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items      []json.RawMessage `json:"items"`
		Pagination struct {
			Total   int64 `json:"total"`
			HasNext bool  `json:"hasNext"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/stats/overview", adminTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHugePageReturnsEmptyList(t *testing.T) {
	s := newTestServer(t)
	_, adminTok := s.seed(t, "admin@example.com", entity.RoleAdmin)

	for _, path := range []string{
		"/api/v1/users?page=9223372036854775807&limit=100",
		"/api/v1/users/search?q=admin&page=9223372036854775807&limit=100",
	} {
		rec, env := s.do(t, http.MethodGet, path, adminTok, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var page struct {
			Items      []json.RawMessage `json:"items"`
			Pagination struct {
				Page    int  `json:"page"`
				HasNext bool `json:"hasNext"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		assert.Empty(t, page.Items, path)
		assert.Equal(t, utils.MaxPage, page.Pagination.Page, path)
		assert.False(t, page.Pagination.HasNext, path)
	}
}

func TestSelfActionsRejected(t *testing.T) {
	s := newTestServer(t)
	user, userTok := s.seed(t, "user@example.com", entity.RoleUser)
	admin, adminTok := s.seed(t, "admin@example.com", entity.RoleAdmin)

	// A non-admin changing their own role is stopped before the role gate.
	rec, env := s.do(t, http.MethodPatch, "/api/v1/users/"+user.ID.String()+"/role", userTok,
		map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot update your own role", env.Message)
	assert.Equal(t, entity.RoleUser, s.store.Get(user.ID).Role)

	rec, env = s.do(t, http.MethodDelete, "/api/v1/users/"+admin.ID.String(), adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot delete your own account", env.Message)

	rec, env = s.do(t, http.MethodPatch, "/api/v1/users/"+admin.ID.String()+"/toggle-status", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot deactivate your own account", env.Message)

	rec, env = s.do(t, http.MethodPut, "/api/v1/users/"+admin.ID.String(), adminTok,
		map[string]any{"isActive": false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot deactivate your own account", env.Message)
	assert.True(t, s.store.Get(admin.ID).IsActive)
}

func TestAdminManagesOtherUser(t *testing.T) {
	s := newTestServer(t)
	user, userTok := s.seed(t, "user@example.com", entity.RoleUser)
	_, adminTok := s.seed(t, "admin@example.com", entity.RoleAdmin)
	path := "/api/v1/users/" + user.ID.String()

	rec, env := s.do(t, http.MethodPatch, path+"/role", adminTok, map[string]string{"role": "moderator"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User role updated successfully", env.Message)

	rec, env = s.do(t, http.MethodPatch, path+"/toggle-status", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deactivated successfully", env.Message)

	// The deactivated user's token no longer resolves.
	rec, env = s.do(t, http.MethodGet, "/api/v1/auth/profile", userTok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Account is deactivated", env.Message)

	rec, _ = s.do(t, http.MethodDelete, path, adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, path, adminTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", env.Message)

	rec, _ = s.do(t, http.MethodGet, path+"?includeDeleted=true", adminTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.seed(t, "user@example.com", entity.RoleUser)

	rec, env := s.do(t, http.MethodGet, "/api/v1/users/search", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Search query is required", env.Message)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/search?q=user", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "t@example.com", entity.RoleUser)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{"email": "t@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		ResetToken string `json:"resetToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.ResetToken)

	reset := map[string]string{
		"resetToken":      data.ResetToken,
		"newPassword":     "Fresh@123",
		"confirmPassword": "Fresh@123",
	}
	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", reset)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset successful", env.Message)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", reset)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired reset token", env.Message)
}

func TestRefreshTokenRequired(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/refresh-token", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Token is required", env.Message)
}

func TestUnhandledErrorShowsDetailOutsideProduction(t *testing.T) {
	s := newTestServer(t)
	s.store.Err = errors.New("db down")

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "t@example.com", "password": "Test@123",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "db down")
	assert.NotEmpty(t, env.Stack)
}

func TestUnhandledErrorHiddenInProduction(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.Config.App.Env = utils.EnvProduction })
	s.store.Err = errors.New("db down")

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "t@example.com", "password": "Test@123",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", env.Message)
	assert.Empty(t, env.Stack)
}

func TestNotFoundAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", env.Message)

	rec, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestServer(t, func(d *Deps) {
		d.DB = pingFunc(func(context.Context) error { return errors.New("refused") })
	})
	rec, _ = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIndexShowsViewer(t *testing.T) {
	s := newTestServer(t)
	user, tok := s.seed(t, "t@example.com", entity.RoleUser)

	_, env := s.do(t, http.MethodGet, "/api/v1/", "", nil)
	assert.NotContains(t, string(env.Data), "viewer")

	_, env = s.do(t, http.MethodGet, "/api/v1/", "garbage", nil)
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Data), "viewer")

	_, env = s.do(t, http.MethodGet, "/api/v1/", tok, nil)
	assert.Contains(t, string(env.Data), user.ID.String())
}

func TestUploadRoundTrip(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.seed(t, "t@example.com", entity.RoleUser)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello upload\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/single", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var data struct {
		File struct {
			Filename string `json:"filename"`
			URL      string `json:"url"`
		} `json:"file"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, data.File.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello upload\n", rec.Body.String())
	assert.Equal(t, "public, max-age=31536000", rec.Header().Get("Cache-Control"))

	rec, _ = s.do(t, http.MethodGet, "/api/v1/upload/file/..%2Fescape", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := newTestServer(t, func(d *Deps) {
		d.Redis = client
		d.Config.RateLimit = utils.RateLimitConfig{Requests: 100, AuthRequests: 2, Window: time.Minute}
	})

	login := map[string]string{"email": "ghost@example.com", "password": "Wrong@123"}
	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", login)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many authentication attempts, please try again later.", env.Message)

	// Unlimited routes are untouched.
	rec, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
