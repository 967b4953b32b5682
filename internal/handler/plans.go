package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mwestcott/stackpad/internal/metrics"
	"github.com/mwestcott/stackpad/internal/service"
)

// PlanHandler serves the public plan catalog.
type PlanHandler struct {
	plans  service.PlanService
	logger *slog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plans service.PlanService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		plans:  plans,
		logger: logger,
	}
}

// RegisterRoutes registers catalog routes on the provided mux. The catalog
// is public; pricing pages render for anonymous visitors.
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/plans", h.ListPlans)
}

// ListPlans builds the formatted catalog from live Stripe data. A plan that
// cannot be fully resolved is omitted rather than failing the request; only
// an upstream failure produces a 500.
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context())
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("error").Inc()
		h.logger.Error("failed to build plan catalog", "error", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Failed to fetch plans",
		})
		return
	}

	metrics.CatalogRequestsTotal.WithLabelValues("ok").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{"plans": plans}); err != nil {
		h.logger.Error("failed to encode plans response", "error", err)
	}
}
