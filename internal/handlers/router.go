package handlers

import (
	"net/http"
	"time"

	"stay-web/internal/apiclient"
	"stay-web/internal/middleware"
	"stay-web/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds what the web surface needs
type RouterConfig struct {
	Client        *apiclient.Client
	Images        services.ImageStore // optional
	RedirectDelay time.Duration
}

// NewRouter builds the web server routes
func NewRouter(cfg RouterConfig) http.Handler {
	listingHandler := NewListingHandler(cfg.Client)
	bookingHandler := NewBookingHandler(cfg.Client, cfg.RedirectDelay)
	hostHandler := NewHostHandler(cfg.Client, cfg.Images)
	authHandler := NewAuthHandler(cfg.Client)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session)

		// Public routes
		r.Get("/listings", listingHandler.Search)
		r.Get("/listings/{id}", listingHandler.Get)
		r.Post("/listings/{id}/book", bookingHandler.Book)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken)
			r.Get("/bookings", bookingHandler.List)
			r.Get("/host/listings", hostHandler.List)
			r.Post("/host/listings", hostHandler.Create)
			r.Delete("/host/listings/{id}", hostHandler.Delete)
		})
	})

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			// credentialed requests cannot use a wildcard origin
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
