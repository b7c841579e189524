package wire

import (
	"user-backend/internal/adaptor"
	"user-backend/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

// wireUser configures user management routes. Self-action guards run before
// the admin gate.
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, deps Deps) {
	auth := middleware.Auth(deps.Tokens, deps.Repo.User, deps.Log)
	admin := middleware.Admin(deps.Log)

	r.Route("/users", func(r chi.Router) {
		r.Use(auth)

		// Any identified caller
		r.Get("/search", userHandler.SearchUsers)
		r.Get("/{id}", userHandler.GetUserByID)

		// Admin only
		r.With(admin).Get("/", userHandler.GetAllUsers)
		r.With(admin).Get("/stats/overview", userHandler.GetUserStats)
		r.With(admin).Put("/{id}", userHandler.UpdateUser)
		r.With(
			middleware.DenySelf("id", "You cannot delete your own account"),
			admin,
		).Delete("/{id}", userHandler.DeleteUser)
		r.With(
			middleware.DenySelf("id", "You cannot update your own role"),
			admin,
		).Patch("/{id}/role", userHandler.UpdateUserRole)
		r.With(
			middleware.DenySelf("id", "You cannot deactivate your own account"),
			admin,
		).Patch("/{id}/toggle-status", userHandler.ToggleUserStatus)
	})
}
