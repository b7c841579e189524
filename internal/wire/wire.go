package wire

import (
	"context"
	"net/http"
	"time"

	"user-backend/internal/adaptor"
	"user-backend/internal/usecase"
	"user-backend/pkg/middleware"
	"user-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// App holds the composed router.
type App struct {
	Router *chi.Mux
}

// Pinger is what the health check needs from the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps extends the service collaborators with the infrastructure only the
// router uses. A nil Redis disables rate limiting.
type Deps struct {
	usecase.Deps
	DB    Pinger
	Redis *redis.Client
}

// Wiring builds services, handlers and routes.
func Wiring(deps Deps) *App {
	service := usecase.NewService(deps.Deps)
	handler := adaptor.NewHandler(service, deps.Log, deps.Config)

	return &App{
		Router: setupRouter(handler, deps),
	}
}

func rateLimiter(deps Deps, scope string, limit int) middleware.RateLimiter {
	if deps.Redis == nil || limit <= 0 {
		return middleware.NewNoOpRateLimiter()
	}
	return middleware.NewRedisRateLimiter(deps.Redis, scope, limit, deps.Config.RateLimit.Window)
}

func setupRouter(handler *adaptor.Handler, deps Deps) *chi.Mux {
	r := chi.NewRouter()
	config := deps.Config
	log := deps.Log

	// Global middleware
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.CORS(config.CORS.Origins))
	r.Use(middleware.RateLimit(
		rateLimiter(deps, "global", config.RateLimit.Requests),
		"Too many requests from this IP, please try again later.",
		log,
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	r.Get("/health", health(deps.DB, config))

	r.Route(prefix(config), func(api chi.Router) {
		api.With(middleware.OptionalAuth(deps.Tokens, deps.Repo.User, log)).Get("/", index(config))

		wireAuth(api, handler.Auth, deps)
		wireUser(api, handler.User, deps)
		wireUpload(api, handler.Upload, deps)
	})

	return r
}

func prefix(config *utils.Config) string {
	if config.App.APIPrefix == "" || config.App.APIPrefix == "/" {
		return "/"
	}
	return config.App.APIPrefix
}

func health(db Pinger, config *utils.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		data := map[string]any{
			"environment": config.App.Env,
			"timestamp":   time.Now().UTC(),
			"database":    "up",
		}
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				data["database"] = "down"
				utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "Service unavailable", data, nil)
				return
			}
		}
		utils.ResponseSuccess(w, "Server is running", data)
	}
}

func index(config *utils.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"name":    config.App.Name,
			"version": "1.0.0",
			"endpoints": map[string][]string{
				"auth": {
					"POST /auth/register",
					"POST /auth/login",
					"POST /auth/logout",
					"POST /auth/refresh-token",
					"POST /auth/forgot-password",
					"POST /auth/reset-password",
					"GET /auth/verify-email/{token}",
					"GET /auth/profile",
					"PUT /auth/profile",
					"PUT /auth/change-password",
				},
				"users": {
					"GET /users (admin)",
					"GET /users/search",
					"GET /users/stats/overview (admin)",
					"GET /users/{id}",
					"PUT /users/{id} (admin)",
					"DELETE /users/{id} (admin)",
					"PATCH /users/{id}/role (admin)",
					"PATCH /users/{id}/toggle-status (admin)",
				},
				"upload": {
					"POST /upload/single",
					"POST /upload/multiple",
					"GET /upload/file/{filename}",
					"DELETE /upload/file/{filename}",
					"GET /upload/info",
				},
			},
		}
		if user, ok := utils.GetUserFromContext(r.Context()); ok {
			data["viewer"] = map[string]any{"id": user.ID.String(), "role": user.Role}
		}
		utils.ResponseSuccess(w, "User Backend API", data)
	}
}
