package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/cors"
)

// CORS returns the cross-origin middleware for the configured origins. A "*"
// entry allows any origin without credentials; listed origins get credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Content-Disposition", "X-Export-Truncated"},
		MaxAge:         300,
	}
	if slices.Contains(allowedOrigins, "*") {
		opts.AllowedOrigins = []string{"*"}
	} else {
		for _, origin := range allowedOrigins {
			opts.AllowedOrigins = append(opts.AllowedOrigins, strings.TrimRight(origin, "/"))
		}
		opts.AllowCredentials = true
	}
	return cors.Handler(opts)
}
