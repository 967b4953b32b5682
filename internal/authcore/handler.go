// Package authcore implements the embedded auth handler: session, credential,
// OAuth, and subscription-sync logic behind a single opaque http.Handler.
//
// The handler is never mounted on the public mux directly; all traffic
// reaches it through the relay in internal/handler, which treats it as a
// black-box function from request to response.
package authcore

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"

	"github.com/mwestcott/stackpad/internal/billing"
	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/email"
	"github.com/mwestcott/stackpad/internal/service"
)

// BasePath is the public prefix the engine's routes live under.
const BasePath = "/api/auth"

// WebhookPath is the full path of the Stripe webhook route.
const WebhookPath = BasePath + "/stripe/webhook"

const (
	// SessionCookieName is the cookie that stores the raw session token.
	SessionCookieName = "stackpad_session"

	// SessionCookieMaxAge matches service.SessionDuration (7 days).
	SessionCookieMaxAge = 7 * 24 * 60 * 60
)

// Config carries the engine's construction-time settings.
type Config struct {
	BaseURL      string // Public URL of this server (email links, OAuth callbacks)
	ClientOrigin string // Web client origin (post-OAuth redirect target)
	IsSecure     bool   // Secure cookie flag (true outside development)

	// GitHub social login; both must be set to enable the routes.
	GithubClientID     string
	GithubClientSecret string

	// OAuth state cookie secret for the gothic session store.
	SessionSecret string

	// Stripe webhook sync; an empty secret disables the route entirely.
	WebhookEnabled bool
}

// Handler is the embedded auth engine.
type Handler struct {
	users    service.UserService
	mailer   email.Mailer
	billing  billing.Service
	cfg      Config
	validate *validator.Validate
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates the auth engine and wires its internal routes.
func New(users service.UserService, mailer email.Mailer, billingService billing.Service, cfg Config, logger *slog.Logger) *Handler {
	h := &Handler{
		users:    users,
		mailer:   mailer,
		billing:  billingService,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("POST "+BasePath+"/sign-up/email", h.handleSignUp)
	h.mux.HandleFunc("POST "+BasePath+"/sign-in/email", h.handleSignIn)
	h.mux.HandleFunc("POST "+BasePath+"/sign-out", h.handleSignOut)
	h.mux.HandleFunc("GET "+BasePath+"/get-session", h.handleGetSession)
	h.mux.HandleFunc("GET "+BasePath+"/verify-email", h.handleVerifyEmail)
	h.mux.HandleFunc("POST "+BasePath+"/send-verification-email", h.handleSendVerificationEmail)
	h.mux.HandleFunc("POST "+BasePath+"/forget-password", h.handleForgetPassword)
	h.mux.HandleFunc("POST "+BasePath+"/reset-password", h.handleResetPassword)

	if cfg.GithubClientID != "" && cfg.GithubClientSecret != "" {
		gothic.Store = sessions.NewCookieStore([]byte(cfg.SessionSecret))
		goth.UseProviders(github.New(
			cfg.GithubClientID,
			cfg.GithubClientSecret,
			cfg.BaseURL+BasePath+"/callback/github",
			"user:email",
		))
		h.mux.HandleFunc("GET "+BasePath+"/sign-in/social", h.handleSocialBegin)
		h.mux.HandleFunc("GET "+BasePath+"/callback/{provider}", h.handleSocialCallback)
	}

	if cfg.WebhookEnabled {
		h.mux.HandleFunc("POST "+WebhookPath, h.handleStripeWebhook)
	}

	return h
}

// ServeHTTP dispatches to the engine's internal mux.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// =============================================================================
// Shared helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.ErrorCode(err) {
	case domain.EINVALID:
		status = http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		status = http.StatusUnauthorized
	case domain.EFORBIDDEN:
		status = http.StatusForbidden
	case domain.ENOTFOUND:
		status = http.StatusNotFound
	case domain.ECONFLICT:
		status = http.StatusConflict
	}
	h.writeJSON(w, status, map[string]string{
		"code":    domain.ErrorCode(err),
		"message": domain.ErrorMessage(err),
	})
}

// decodeValid decodes a JSON body into v and applies struct validation.
// Request shape violations are rejected before any handler logic runs.
func (h *Handler) decodeValid(r *http.Request, v any) error {
	const op = "authcore.decode"

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid(op, "Request body is not valid JSON")
	}
	if err := h.validate.Struct(v); err != nil {
		return domain.Invalid(op, "Request validation failed: "+err.Error())
	}
	return nil
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// userView is the wire shape of a user in engine responses.
type userView struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"emailVerified"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:            u.ID.String(),
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
	}
}

// sendMail runs a mail send and downgrades failures to log lines; auth flows
// must not fail because the SMTP hop did.
func (h *Handler) sendMail(what string, fn func() error) {
	if err := fn(); err != nil {
		h.logger.Error("failed to send "+what+" email", "error", err)
	}
}

// currentSession resolves the session cookie on an engine-internal request.
func (h *Handler) currentSession(r *http.Request) (*domain.Session, *domain.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, nil, domain.Unauthorized("authcore.session", "Not signed in")
	}
	return h.users.ResolveSession(r.Context(), cookie.Value)
}
