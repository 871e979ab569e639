package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"village-registry-system/pkg/identity"
	"village-registry-system/pkg/middleware"
	"village-registry-system/services/registry-service/export"
	"village-registry-system/services/registry-service/models"
)

// Router wires every registry endpoint behind auth.
func (h *Handler) Router(auth *middleware.Authenticator) http.Handler {
	residents := newRecords[models.Resident](h, models.KindResident, h.residents, export.Residents)
	letters := newRecords[models.LetterRequest](h, models.KindLetter, h.letters, export.Letters)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.Logger(h.log))

	r.Get("/health", h.healthHandler)
	r.Handle("/metrics", middleware.GetMetricsHandler())
	if h.files != nil {
		r.Handle(FilesPrefix+"/*", http.StripPrefix(FilesPrefix, h.files))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/api/residents", func(r chi.Router) {
			r.Post("/", h.submitResident)
			r.Get("/mine", residents.mine)
			r.Get("/mine/stream", residents.mineStream)
		})
		r.Route("/api/letters", func(r chi.Router) {
			r.Post("/", h.submitLetter)
			r.Get("/mine", letters.mine)
			r.Get("/mine/stream", letters.mineStream)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(identity.RoleAdmin)))
			mountAdmin(r, "/residents", residents)
			mountAdmin(r, "/letters", letters)
		})
	})
	return r
}

func mountAdmin[T models.Record](r chi.Router, prefix string, rs *records[T]) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", rs.list)
		r.Delete("/", rs.deleteBatch)
		r.Get("/stream", rs.listStream)
		r.Get("/export", rs.exportXLSX)
		r.Post("/{id}/approve", rs.approve)
		r.Post("/{id}/reject", rs.reject)
	})
}
