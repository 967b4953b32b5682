package middleware

import (
	"net/http"
	"strings"
)

// CORSMiddleware implements the cross-origin policy for the browser client.
// The allow-list is fixed at startup: the configured client origin plus
// localhost for development.
type CORSMiddleware struct {
	allowedOrigins []string
}

const (
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS, PATCH"
	corsAllowedHeaders = "Content-Type, Authorization, X-Requested-With"

	// Preflight cache: 24 hours.
	corsMaxAge = "86400"
)

// NewCORSMiddleware creates the CORS middleware for the given client origin.
func NewCORSMiddleware(clientOrigin string) *CORSMiddleware {
	origins := []string{"http://localhost"}
	if clientOrigin != "" {
		origins = append([]string{clientOrigin}, origins...)
	}
	return &CORSMiddleware{allowedOrigins: origins}
}

// Handler returns middleware that applies the CORS policy and answers
// preflight requests.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if m.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *CORSMiddleware) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range m.allowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
