package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-HookRelay-Request-Id", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-HookRelay-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
