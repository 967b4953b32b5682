package authcore

import (
	"net/http"

	"github.com/markbates/goth/gothic"
)

// handleSocialBegin starts the OAuth handshake for the provider named in the
// query string and redirects the browser to the provider's consent page.
func (h *Handler) handleSocialBegin(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Missing provider",
		})
		return
	}

	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(w, r)
}

// handleSocialCallback completes the OAuth handshake, signs the user in
// (creating the account on first sight) and redirects back to the client.
func (h *Handler) handleSocialCallback(w http.ResponseWriter, r *http.Request) {
	// gothic reads the provider from the query string; the route encodes it
	// in the path instead.
	q := r.URL.Query()
	q.Set("provider", r.PathValue("provider"))
	r.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.logger.Error("oauth callback failed", "error", err)
		http.Redirect(w, r, h.cfg.ClientOrigin+"/?auth_error=1", http.StatusTemporaryRedirect)
		return
	}

	name := gothUser.Name
	if name == "" {
		name = gothUser.NickName
	}

	result, err := h.users.LoginWithProvider(r.Context(), gothUser.Provider, gothUser.UserID, gothUser.Email, name)
	if err != nil {
		h.logger.Error("oauth sign-in failed", "provider", gothUser.Provider, "error", err)
		http.Redirect(w, r, h.cfg.ClientOrigin+"/?auth_error=1", http.StatusTemporaryRedirect)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, h.cfg.ClientOrigin, http.StatusTemporaryRedirect)
}
