package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docsage/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Chats   *handlers.ChatHandler
	Sources *handlers.SourceHandler
	Ask     *handlers.AskHandler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Route("/chats", func(r chi.Router) {
			r.Post("/", deps.Chats.Create)
			r.Get("/", deps.Chats.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.Chats.Get)
				r.Patch("/", deps.Chats.Rename)
				r.Delete("/", deps.Chats.Delete)
				r.Get("/messages", deps.Chats.ListMessages)

				r.Get("/sources", deps.Sources.List)
				r.Post("/sources", deps.Sources.Upload)
				r.Delete("/sources/{sourceID}", deps.Sources.Delete)
				r.Post("/links", deps.Sources.AddLink)

				r.Post("/ask", deps.Ask.Ask)
			})
		})
	})

	r.Get("/healthz", handlers.Health)

	return r
}
