package authcore

import (
	"net/http"
	"time"
)

// handleSignOut invalidates the current session, if any, and clears the
// cookie. Signing out without a session is a no-op, not an error.
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.users.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to invalidate session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// sessionView is the wire shape of a session in get-session responses.
type sessionView struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleGetSession reports the signed-in user, or null when the request
// carries no valid session. An anonymous caller gets 200, not 401; the
// response body is the signal.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, user, err := h.currentSession(r)
	if err != nil {
		h.writeJSON(w, http.StatusOK, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"session": sessionView{ExpiresAt: session.ExpiresAt},
		"user":    toUserView(user),
	})
}
