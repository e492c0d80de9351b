package middleware

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewCORS creates a CORS middleware for the dashboard origins.
// Browser clients read download filenames from Content-Disposition and
// correlate failures with server logs through X-Request-Id.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-API-Key",
			chimiddleware.RequestIDHeader,
		},
		ExposedHeaders: []string{
			"Content-Type",
			"Content-Disposition",
			chimiddleware.RequestIDHeader,
		},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
