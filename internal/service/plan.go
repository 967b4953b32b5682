package service

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v79"

	"github.com/mwestcott/stackpad/internal/billing"
	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/metrics"
)

// PlanService joins the locally configured plans against Stripe's live
// product/price catalog and produces the client-facing plan representation.
type PlanService interface {
	// ListPlans returns the formatted plans, in local configuration order.
	// A configured plan with no matching Stripe price or product is dropped
	// from the result (logged at warning level), never fabricated.
	// Returns domain.EUPSTREAM when Stripe itself is unreachable.
	ListPlans(ctx context.Context) ([]domain.FormattedPlan, error)
}

// planService is the concrete implementation of PlanService.
type planService struct {
	billing  billing.Service
	plans    []domain.Plan
	validate *validator.Validate
	logger   *slog.Logger
}

// NewPlanService creates a new PlanService over the given billing backend and
// deploy-time plan configuration.
func NewPlanService(billingService billing.Service, plans []domain.Plan, logger *slog.Logger) PlanService {
	return &planService{
		billing:  billingService,
		plans:    plans,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *planService) ListPlans(ctx context.Context) ([]domain.FormattedPlan, error) {
	const op = "PlanService.ListPlans"

	// Two independent list calls; the join only needs both to have completed.
	products, err := s.billing.ListActiveProducts()
	if err != nil {
		return nil, domain.Upstream(err, op, "Failed to list products")
	}
	prices, err := s.billing.ListActivePrices()
	if err != nil {
		return nil, domain.Upstream(err, op, "Failed to list prices")
	}

	priceByID := make(map[string]*stripe.Price, len(prices))
	for _, p := range prices {
		priceByID[p.ID] = p
	}
	productByID := make(map[string]*stripe.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	formatted := make([]domain.FormattedPlan, 0, len(s.plans))
	for _, local := range s.plans {
		monthly := priceByID[local.PriceID]
		annual := priceByID[local.AnnualDiscountPriceID]
		if monthly == nil || annual == nil {
			// Partial catalog degradation: drop the plan, keep the response.
			metrics.CatalogPlansSkipped.Inc()
			s.logger.Warn("plan skipped: price missing in Stripe", "plan", local.Name)
			continue
		}

		if monthly.Product == nil {
			metrics.CatalogPlansSkipped.Inc()
			s.logger.Warn("plan skipped: monthly price has no product", "plan", local.Name)
			continue
		}
		product := productByID[monthly.Product.ID]
		if product == nil {
			metrics.CatalogPlansSkipped.Inc()
			s.logger.Warn("plan skipped: product missing in Stripe", "plan", local.Name)
			continue
		}

		features := make([]domain.PlanFeature, 0, len(product.MarketingFeatures))
		for _, f := range product.MarketingFeatures {
			if f != nil && f.Name != "" {
				features = append(features, domain.PlanFeature{Name: f.Name})
			}
		}

		plan := domain.FormattedPlan{
			Name:         local.Name,
			DisplayName:  product.Name,
			Description:  product.Description,
			MonthlyPrice: formatPrice(monthly),
			AnnualPrice:  formatPrice(annual),
			Limits:       local.Limits,
			Features:     features,
		}

		// Response shape enforcement: a malformed plan is a validation
		// failure reported to the caller, not silently shipped.
		if err := s.validate.Struct(plan); err != nil {
			return nil, domain.Invalid(op, "Formatted plan failed response validation: "+err.Error())
		}

		formatted = append(formatted, plan)
	}

	return formatted, nil
}

// formatPrice converts a Stripe price from minor units to the client shape.
func formatPrice(p *stripe.Price) domain.PlanPrice {
	return domain.PlanPrice{
		Amount:   float64(p.UnitAmount) / 100,
		Currency: string(p.Currency),
		PriceID:  p.ID,
	}
}
