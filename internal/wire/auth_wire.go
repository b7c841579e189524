package wire

import (
	"user-backend/internal/adaptor"
	"user-backend/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, deps Deps) {
	auth := middleware.Auth(deps.Tokens, deps.Repo.User, deps.Log)
	limit := middleware.RateLimit(
		rateLimiter(deps, "auth", deps.Config.RateLimit.AuthRequests),
		"Too many authentication attempts, please try again later.",
		deps.Log,
	)

	r.Route("/auth", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})
		r.Post("/refresh-token", authHandler.RefreshToken)
		r.Get("/verify-email/{token}", authHandler.VerifyEmail)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/logout", authHandler.Logout)
			r.Get("/profile", authHandler.GetProfile)
			r.Put("/profile", authHandler.UpdateProfile)
			r.Put("/change-password", authHandler.ChangePassword)
		})
	})
}
