package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/mwestcott/stackpad/internal/domain"
)

// fakeBilling is a billing.Service backed by fixed catalog data.
type fakeBilling struct {
	products []*stripe.Product
	prices   []*stripe.Price

	productsErr error
	pricesErr   error
}

func (f *fakeBilling) ListActiveProducts() ([]*stripe.Product, error) {
	return f.products, f.productsErr
}

func (f *fakeBilling) ListActivePrices() ([]*stripe.Price, error) {
	return f.prices, f.pricesErr
}

func (f *fakeBilling) CreateCustomer(email, name string) (string, error) {
	return "cus_test", nil
}

func (f *fakeBilling) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error) {
	return "https://checkout.example/session", nil
}

func (f *fakeBilling) CreatePortalSession(customerID, returnURL string) (string, error) {
	return "https://billing.example/portal", nil
}

func (f *fakeBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	return stripe.Event{}, errors.New("not configured")
}

func (f *fakeBilling) PlanForPriceID(priceID string) string {
	return ""
}

func planTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func basicCatalog() *fakeBilling {
	return &fakeBilling{
		products: []*stripe.Product{
			{
				ID:          "prod1",
				Name:        "Basic",
				Description: "desc",
				MarketingFeatures: []*stripe.ProductMarketingFeature{
					{Name: "Feature A"},
				},
			},
		},
		prices: []*stripe.Price{
			{ID: "p1", UnitAmount: 1000, Currency: stripe.CurrencyUSD, Product: &stripe.Product{ID: "prod1"}},
			{ID: "p1a", UnitAmount: 9600, Currency: stripe.CurrencyUSD, Product: &stripe.Product{ID: "prod1"}},
		},
	}
}

func basicPlans() []domain.Plan {
	return []domain.Plan{
		{
			Name:                  "basic",
			PriceID:               "p1",
			AnnualDiscountPriceID: "p1a",
			Limits:                domain.PlanLimits{Projects: 3},
		},
	}
}

func TestListPlans_JoinsLocalConfigWithCatalog(t *testing.T) {
	svc := NewPlanService(basicCatalog(), basicPlans(), planTestLogger())

	plans, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)

	plan := plans[0]
	assert.Equal(t, "basic", plan.Name)
	assert.Equal(t, "Basic", plan.DisplayName)
	assert.Equal(t, "desc", plan.Description)
	assert.Equal(t, 10.0, plan.MonthlyPrice.Amount)
	assert.Equal(t, "usd", plan.MonthlyPrice.Currency)
	assert.Equal(t, "p1", plan.MonthlyPrice.PriceID)
	assert.Equal(t, 96.0, plan.AnnualPrice.Amount)
	assert.Equal(t, "p1a", plan.AnnualPrice.PriceID)
	assert.Equal(t, 3, plan.Limits.Projects)
	require.Len(t, plan.Features, 1)
	assert.Equal(t, "Feature A", plan.Features[0].Name)
}

func TestListPlans_SkipsPlanWithMissingPrice(t *testing.T) {
	catalog := basicCatalog()
	plans := append(basicPlans(), domain.Plan{
		Name:                  "pro",
		PriceID:               "p2",
		AnnualDiscountPriceID: "p2a",
		Limits:                domain.PlanLimits{Projects: 10},
	})

	svc := NewPlanService(catalog, plans, planTestLogger())

	got, err := svc.ListPlans(context.Background())
	require.NoError(t, err, "a missing price degrades the catalog, it does not fail the request")
	require.Len(t, got, 1)
	assert.Equal(t, "basic", got[0].Name)
}

func TestListPlans_SkipsPlanWithMissingAnnualPrice(t *testing.T) {
	catalog := basicCatalog()
	catalog.prices = catalog.prices[:1] // drop p1a

	svc := NewPlanService(catalog, basicPlans(), planTestLogger())

	got, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListPlans_SkipsPlanWithMissingProduct(t *testing.T) {
	catalog := basicCatalog()
	catalog.products = nil

	svc := NewPlanService(catalog, basicPlans(), planTestLogger())

	got, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListPlans_DropsEmptyMarketingFeatures(t *testing.T) {
	catalog := basicCatalog()
	catalog.products[0].MarketingFeatures = []*stripe.ProductMarketingFeature{
		{Name: "Feature A"},
		{Name: ""},
		nil,
	}

	svc := NewPlanService(catalog, basicPlans(), planTestLogger())

	got, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Features, 1)
	assert.Equal(t, "Feature A", got[0].Features[0].Name)
}

func TestListPlans_UpstreamFailureIsUpstreamError(t *testing.T) {
	catalog := basicCatalog()
	catalog.pricesErr = errors.New("stripe: connection reset")

	svc := NewPlanService(catalog, basicPlans(), planTestLogger())

	_, err := svc.ListPlans(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.EUPSTREAM, domain.ErrorCode(err))
}

func TestListPlans_IdempotentForUnchangedCatalog(t *testing.T) {
	svc := NewPlanService(basicCatalog(), basicPlans(), planTestLogger())

	first, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	second, err := svc.ListPlans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
