package domain

import "time"

// Plan is a locally configured subscription plan. The list is static and
// defined at deploy time; Stripe owns the live product/price objects that the
// catalog aggregator joins against.
type Plan struct {
	Name                  string // Stable internal identifier, e.g. "basic"
	PriceID               string // Stripe price ID for monthly billing
	AnnualDiscountPriceID string // Stripe price ID for annual billing
	Limits                PlanLimits
}

// PlanLimits holds the usage ceilings attached to a plan.
type PlanLimits struct {
	Projects int `json:"projects" validate:"required,min=1"`
}

// DefaultPlans is the deploy-time plan configuration. Plans without a live
// Stripe price/product counterpart are dropped from the catalog response.
var DefaultPlans = []Plan{
	{
		Name:                  "basic",
		PriceID:               "price_1S8yuNRvGJ6lPiv4fERR99U9",
		AnnualDiscountPriceID: "price_1S8yuNRvGJ6lPiv4zBKnutcI",
		Limits:                PlanLimits{Projects: 3},
	},
	{
		Name:                  "pro",
		PriceID:               "price_1S92oIRvGJ6lPiv4zZk6Lq64",
		AnnualDiscountPriceID: "price_1S92p3RvGJ6lPiv4qs1g2PyZ",
		Limits:                PlanLimits{Projects: 10},
	},
	{
		Name:                  "enterprise",
		PriceID:               "price_1S92r0RvGJ6lPiv4ojNbb8zy",
		AnnualDiscountPriceID: "price_1S92r0RvGJ6lPiv4k7DIqB9c",
		Limits:                PlanLimits{Projects: 100},
	},
}

// PlanPrice is one billing interval of a formatted plan, in major currency
// units (Stripe reports minor units; the aggregator divides by 100).
type PlanPrice struct {
	Amount   float64 `json:"amount" validate:"min=0"`
	Currency string  `json:"currency" validate:"required"`
	PriceID  string  `json:"priceId" validate:"required"`
}

// PlanFeature is one marketing feature carried over from the Stripe product.
type PlanFeature struct {
	Name string `json:"name"`
}

// FormattedPlan is the client-facing plan representation, derived per request
// by joining a local Plan against live Stripe catalog data. Never persisted.
type FormattedPlan struct {
	Name         string        `json:"name" validate:"required"`
	DisplayName  string        `json:"displayName" validate:"required"`
	Description  string        `json:"description"`
	MonthlyPrice PlanPrice     `json:"monthlyPrice" validate:"required"`
	AnnualPrice  PlanPrice     `json:"annualPrice" validate:"required"`
	Limits       PlanLimits    `json:"limits"`
	Features     []PlanFeature `json:"features"`
}

// SubscriptionStatus mirrors Stripe's subscription status values.
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is the opaque read model of a user's subscription, synced from
// Stripe webhook events. Stripe remains the source of truth.
type Subscription struct {
	UserID               string             `json:"-"`
	StripeSubscriptionID string             `json:"-"`
	Status               SubscriptionStatus `json:"status"`
	Plan                 string             `json:"plan"`
	TrialEnd             *time.Time         `json:"trialEnd,omitempty"`
	PeriodStart          *time.Time         `json:"periodStart,omitempty"`
	PeriodEnd            *time.Time         `json:"periodEnd,omitempty"`
	CancelAtPeriodEnd    bool               `json:"cancelAtPeriodEnd"`
}

// IsActive returns true for statuses that grant access.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}
