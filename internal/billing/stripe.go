// Package billing provides Stripe integration for the plans catalog and
// subscription lifecycle.
package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/product"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/mwestcott/stackpad/internal/domain"
)

// Service defines the interface for Stripe operations.
type Service interface {
	// ListActiveProducts returns every active product in the catalog.
	ListActiveProducts() ([]*stripe.Product, error)

	// ListActivePrices returns every active price in the catalog.
	ListActivePrices() ([]*stripe.Price, error)

	// CreateCustomer creates a new Stripe customer for the given email.
	CreateCustomer(email, name string) (string, error)

	// CreateCheckoutSession creates a Stripe Checkout session for subscribing.
	// Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the user to.
	CreatePortalSession(customerID, returnURL string) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// PlanForPriceID returns the local plan name for a given Stripe price ID,
	// or "" when no configured plan references it.
	PlanForPriceID(priceID string) string
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	priceToPlan   map[string]string // maps price ID -> local plan name
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls. The webhookSecret verifies
// incoming webhook signatures; it may be empty when the webhook route is
// disabled. plans is the deploy-time plan configuration.
func NewStripeService(secretKey, webhookSecret string, plans []domain.Plan) Service {
	stripe.Key = secretKey

	priceToPlan := make(map[string]string)
	for _, p := range plans {
		if p.PriceID != "" {
			priceToPlan[p.PriceID] = p.Name
		}
		if p.AnnualDiscountPriceID != "" {
			priceToPlan[p.AnnualDiscountPriceID] = p.Name
		}
	}

	return &stripeService{
		webhookSecret: webhookSecret,
		priceToPlan:   priceToPlan,
	}
}

func (s *stripeService) ListActiveProducts() ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{
		Active: stripe.Bool(true),
	}

	var products []*stripe.Product
	iter := product.List(params)
	for iter.Next() {
		products = append(products, iter.Product())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list products: %w", err)
	}
	return products, nil
}

func (s *stripeService) ListActivePrices() ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{
		Active: stripe.Bool(true),
	}

	var prices []*stripe.Price
	iter := price.List(params)
	for iter.Next() {
		prices = append(prices, iter.Price())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list prices: %w", err)
	}
	return prices, nil
}

func (s *stripeService) CreateCustomer(email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) PlanForPriceID(priceID string) string {
	if plan, ok := s.priceToPlan[priceID]; ok {
		return plan
	}
	return ""
}
