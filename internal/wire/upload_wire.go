package wire

import (
	"user-backend/internal/adaptor"
	"user-backend/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireUpload(r chi.Router, uploadHandler *adaptor.UploadHandler, deps Deps) {
	auth := middleware.Auth(deps.Tokens, deps.Repo.User, deps.Log)

	r.Route("/upload", func(r chi.Router) {
		r.Get("/info", uploadHandler.Info)
		r.Get("/file/{filename}", uploadHandler.ServeFile)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/single", uploadHandler.UploadSingle)
			r.Post("/multiple", uploadHandler.UploadMultiple)
			r.Delete("/file/{filename}", uploadHandler.DeleteFile)
		})
	})
}
