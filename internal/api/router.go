package api

import (
	"net/http"

	"github.com/dom/group-decide/internal/api/handlers"
	"github.com/dom/group-decide/internal/api/middleware"
	"github.com/dom/group-decide/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	sessionHandler := handlers.NewSessionHandler(services.Session)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.Create)
				r.Get("/{id}", sessionHandler.Get)
				r.Post("/{id}/join", sessionHandler.Join)
				r.Post("/{id}/options", sessionHandler.AddOption)
				r.Post("/{id}/status", sessionHandler.TransitionStatus)
				r.Post("/{id}/swipes", sessionHandler.Swipe)
				r.Get("/{id}/result", sessionHandler.Result)
			})

			r.Route("/users", func(r chi.Router) {
				r.Patch("/me", authHandler.UpdateMe)
				r.Get("/me/sessions", sessionHandler.ListMine)
			})
		})
	})

	return r
}
