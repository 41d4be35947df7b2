package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/FocuswithJustin/versemem/internal/logging"
)

// AuthMiddleware requires the X-API-Key header to equal apiKey. An empty
// apiKey disables the check. "/" and "/health" are always public.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" || isPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		given := r.Header.Get("X-API-Key")
		if given == "" {
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "missing API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "invalid API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isPublicEndpoint(path string) bool {
	return path == "/" || path == "/health"
}
