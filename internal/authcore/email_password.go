package authcore

import (
	"fmt"
	"net/http"

	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/metrics"
)

type signUpRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// handleSignUp creates the account, issues a session, and sends the
// verification and welcome emails.
func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), domain.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.users.CreateSession(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setSessionCookie(w, token)

	if result, err := h.users.CreateEmailVerificationToken(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to issue verification token", "error", err, "user_id", user.ID)
	} else {
		url := fmt.Sprintf("%s%s/verify-email?token=%s", h.cfg.BaseURL, BasePath, result.Token)
		h.sendMail("verification", func() error {
			return h.mailer.SendVerifyEmail(r.Context(), user.Email, user.DisplayName(), url)
		})
	}

	h.sendMail("welcome", func() error {
		return h.mailer.SendWelcome(r.Context(), user.Email, user.DisplayName())
	})

	metrics.SignupsTotal.Inc()
	h.writeJSON(w, http.StatusOK, map[string]any{"user": toUserView(user)})
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		h.writeError(w, err)
		return
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	h.setSessionCookie(w, result.Token)
	h.writeJSON(w, http.StatusOK, map[string]any{"user": toUserView(result.User)})
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.writeError(w, domain.Invalid("authcore.verifyEmail", "Missing verification token"))
		return
	}

	if err := h.users.VerifyEmail(r.Context(), token); err != nil {
		h.writeError(w, err)
		return
	}

	// The link is opened in a browser; land the user back on the client.
	http.Redirect(w, r, h.cfg.ClientOrigin+"/?verified=1", http.StatusSeeOther)
}

func (h *Handler) handleSendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	_, user, err := h.currentSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.users.CreateEmailVerificationToken(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	url := fmt.Sprintf("%s%s/verify-email?token=%s", h.cfg.BaseURL, BasePath, result.Token)
	h.sendMail("verification", func() error {
		return h.mailer.SendVerifyEmail(r.Context(), user.Email, user.DisplayName(), url)
	})

	h.writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}

type forgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// handleForgetPassword always answers 200 so account existence is not
// observable; the reset mail only goes out when the account is real.
func (h *Handler) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req forgetPasswordRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.users.CreatePasswordResetToken(r.Context(), req.Email)
	if err != nil {
		if domain.ErrorCode(err) != domain.ENOTFOUND {
			h.logger.Error("failed to issue reset token", "error", err)
		}
		h.writeJSON(w, http.StatusOK, map[string]bool{"status": true})
		return
	}

	url := fmt.Sprintf("%s/reset-password?token=%s", h.cfg.ClientOrigin, result.Token)
	h.sendMail("password reset", func() error {
		return h.mailer.SendResetPassword(r.Context(), result.User.Email, result.User.DisplayName(), url)
	})

	h.writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.users.ResetPassword(r.Context(), domain.ResetPasswordParams{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}
