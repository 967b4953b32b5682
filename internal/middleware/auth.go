// Package middleware contains HTTP middleware for the Stackpad server.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed from the outside in at mux construction.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mwestcott/stackpad/internal/authcore"
	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey contextKey = "user"

// GetUser retrieves the authenticated user from the request context.
// Returns nil when the request carries no valid session.
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

func setUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// AuthMiddleware provides the session route guards.
type AuthMiddleware struct {
	users    service.UserService
	logger   *slog.Logger
	isSecure bool
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(users service.UserService, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		users:    users,
		logger:   logger,
		isSecure: isSecure,
	}
}

// WithUser resolves the session cookie into a context user and always
// continues. An invalid or expired session clears the cookie.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authcore.SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		_, user, err := m.users.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			clearSessionCookie(w, m.isSecure)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(setUser(r.Context(), user)))
	})
}

// RequireUser rejects anonymous requests. API requests get a 401 JSON body;
// anything else is redirected to the sign-in page with the original path
// preserved for post-login return navigation.
//
// Must run after WithUser.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if isAPIRequest(r) {
			writeUnauthorized(w)
			return
		}

		returnTo := r.URL.Path
		if r.URL.RawQuery != "" {
			returnTo += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, "/sign-in?redirect="+url.QueryEscape(returnTo), http.StatusSeeOther)
	})
}

// RequireGuest is the inverse guard: a signed-in user is sent to the
// `redirect` query param, or home. Used on sign-in and sign-up surfaces.
//
// Must run after WithUser.
func (m *AuthMiddleware) RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			next.ServeHTTP(w, r)
			return
		}

		target := sanitizeRedirect(r.URL.Query().Get("redirect"))
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// sanitizeRedirect restricts post-login redirects to local paths so the
// guard cannot be used as an open redirector.
func sanitizeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	return target
}

// isAPIRequest reports whether the client expects a JSON error instead of a
// redirect.
func isAPIRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Authentication required"}`))
}

func clearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     authcore.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
