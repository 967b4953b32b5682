package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mwestcott/stackpad/internal/billing"
	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/middleware"
	"github.com/mwestcott/stackpad/internal/service"
)

// AccountHandler serves the signed-in account surface: profile, subscription
// state, and the Stripe checkout and billing-portal hops.
type AccountHandler struct {
	users    service.UserService
	billing  billing.Service
	baseURL  string
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(users service.UserService, billingService billing.Service, baseURL string, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		users:    users,
		billing:  billingService,
		baseURL:  baseURL,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers account routes on the provided mux. All routes
// require a signed-in user.
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/v1/me", requireUser(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/v1/subscription", requireUser(http.HandlerFunc(h.Subscription)))
	mux.Handle("POST /api/v1/checkout", requireUser(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/v1/billing-portal", requireUser(http.HandlerFunc(h.OpenPortal)))
}

// Me returns the signed-in user's profile.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":            user.ID.String(),
		"email":         user.Email,
		"name":          user.Name,
		"emailVerified": user.EmailVerified,
	})
}

// Subscription returns the user's subscription read model. A user with no
// subscription row gets the inactive zero state, not a 404.
func (h *AccountHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	sub, err := h.users.GetSubscription(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}

type checkoutRequest struct {
	PriceID string `json:"priceId" validate:"required"`
}

// CreateCheckout creates a Stripe Checkout session for the requested price
// and returns its URL. The user's Stripe customer is created on first use.
func (h *AccountHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "AccountHandler.CreateCheckout"

	user := middleware.GetUser(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request body is not valid JSON"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "priceId is required"))
		return
	}

	customerID := user.StripeCustomerID
	if customerID == "" {
		var err error
		customerID, err = h.billing.CreateCustomer(user.Email, user.Name)
		if err != nil {
			h.logger.Error("failed to create stripe customer", "error", err, "user_id", user.ID)
			ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to initialize billing"))
			return
		}
		if err := h.users.UpdateStripeCustomer(r.Context(), user.ID, customerID); err != nil {
			h.logger.Error("failed to save stripe customer ID", "error", err, "user_id", user.ID)
		}
	}

	successURL := h.baseURL + "/dashboard?checkout=success&session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.baseURL + "/plans"

	checkoutURL, err := h.billing.CreateCheckoutSession(customerID, req.PriceID, successURL, cancelURL)
	if err != nil {
		h.logger.Error("failed to create checkout session", "error", err, "user_id", user.ID)
		ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to create checkout session"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"url": checkoutURL})
}

// OpenPortal creates a Stripe Customer Portal session and returns its URL.
func (h *AccountHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	const op = "AccountHandler.OpenPortal"

	user := middleware.GetUser(r.Context())
	if user.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "No billing account exists for this user"))
		return
	}

	portalURL, err := h.billing.CreatePortalSession(user.StripeCustomerID, h.baseURL+"/dashboard")
	if err != nil {
		h.logger.Error("failed to create portal session", "error", err, "user_id", user.ID)
		ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to open billing portal"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"url": portalURL})
}

func (h *AccountHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
