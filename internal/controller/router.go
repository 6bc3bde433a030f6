package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(c.corsHandler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/content", func(r chi.Router) {
			r.Get("/", c.listContent)
			r.Get("/{content-id}", c.getContent)
		})
		r.Get("/timezones", c.listTimezones)
		r.Get("/youtube", c.getVideoData)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", c.createSession)
			r.Get("/{session-id}", c.getSession)
		})
		r.Route("/check-ins", func(r chi.Router) {
			r.Post("/", c.createCheckIn)
			r.Get("/", c.listCheckIns)
		})
	})

	r.Get("/ws/sessions/{session-id}", c.joinSession)

	return r
}

func (c controller) corsHandler() func(http.Handler) http.Handler {
	if len(c.corsOrigins) == 0 {
		return cors.AllowAll().Handler
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   c.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
