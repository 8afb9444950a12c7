package middleware

import (
	"net/http"
)

// defaultOrigins are the origins allowed when websites is empty: the UI
// served over plain HTTP or TLS from the same host as the API.
var defaultOrigins = []string{"http://localhost.com", "https://localhost.com"}

const (
	allowedMethods = "GET, POST"
	allowedHeaders = "Authorization, Accept, Content-Type, secure-flag"
	maxAge         = "3600"
)

// CORS restricts cross-origin requests to the configured websites list (or
// defaultOrigins when it's empty), echoing back only an Origin the operator
// has allow-listed rather than any caller's origin.
func CORS(websites []string) func(http.Handler) http.Handler {
	allowed := websites
	if len(allowed) == 0 {
		allowed = defaultOrigins
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				w.Header().Set("Vary", "Origin")
				if _, ok := allowedSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
