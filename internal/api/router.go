package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Post("/", h.CreateDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetDocument)
			r.Put("/", h.UpdateDocument)
			r.Delete("/", h.DeleteDocument)
			r.Get("/html", h.DocumentHTML)
			r.Get("/markdown", h.DocumentMarkdown)
			r.Post("/sessions", h.OpenSession)
		})
	})

	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.CloseSession)
		r.Put("/selection", h.Select)
		r.Post("/commands", h.Dispatch)
		r.Post("/undo", h.Undo)
		r.Post("/redo", h.Redo)
		r.Post("/save", h.SaveSession)
	})

	r.Get("/commands", h.Commands)
	r.Get("/search", h.Search)
	r.Post("/render", h.Render)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
