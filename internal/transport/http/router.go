package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tripshare/internal/handler"
	"tripshare/internal/httputil"
	authmw "tripshare/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	FeedHandler       *handler.FeedHandler
	ExperienceHandler *handler.ExperienceHandler
	CommentHandler    *handler.CommentHandler
	MediaHandler      *handler.MediaHandler
	JWTSecret         string

	// LoginLimiter throttles POST /auth/login per client IP. Nil disables it.
	LoginLimiter   authmw.Limiter
	LoginRateLimit int
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		if cfg.LoginLimiter != nil && cfg.LoginRateLimit > 0 {
			r.With(authmw.RateLimit(cfg.LoginLimiter, "login", cfg.LoginRateLimit)).Post("/login", cfg.AuthHandler.Login)
		} else {
			r.Post("/login", cfg.AuthHandler.Login)
		}
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	r.Get("/experiences", cfg.FeedHandler.Search)
	r.Get("/experiences/{id}", cfg.ExperienceHandler.Get)
	r.Get("/experiences/{id}/comments", cfg.CommentHandler.List)

	r.Get("/users/{id}", cfg.UserHandler.GetProfile)
	r.Get("/users/{id}/experiences", cfg.UserHandler.ListExperiences)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		r.Patch("/users/{id}", cfg.UserHandler.Update)
		r.Post("/users/me/avatar", cfg.UserHandler.UploadAvatar)

		r.Post("/experiences", cfg.ExperienceHandler.Create)
		r.Delete("/experiences/{id}", cfg.ExperienceHandler.Delete)
		r.Post("/experiences/{id}/comments", cfg.CommentHandler.Create)

		r.Post("/media/images", cfg.MediaHandler.UploadImage)
	})

	return r
}
