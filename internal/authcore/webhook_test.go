package authcore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v79"

	"github.com/mwestcott/stackpad/internal/domain"
)

func TestHandleStripeWebhook_InvalidSignatureIsEngine400(t *testing.T) {
	// The engine rejects bad signatures itself with a 400; the relay in
	// front of it mirrors that status rather than converting it to a 500.
	engine := newTestEngine(&mockUserService{}, &mockMailer{}, &mockBilling{})

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStripeWebhook_SubscriptionCreatedSyncsReadModel(t *testing.T) {
	user := testUser()

	subJSON, _ := json.Marshal(map[string]any{
		"id":       "sub_1",
		"status":   "active",
		"customer": map[string]any{"id": "cus_1"},
		"items": map[string]any{
			"data": []map[string]any{
				{"price": map[string]any{"id": "p1"}},
			},
		},
		"current_period_start": 1700000000,
		"current_period_end":   1702592000,
	})

	var got domain.Subscription
	users := &mockUserService{
		GetByStripeCustomerIDFunc: func(ctx context.Context, stripeCustomerID string) (*domain.User, error) {
			if stripeCustomerID != "cus_1" {
				t.Errorf("customer = %q", stripeCustomerID)
			}
			return user, nil
		},
		UpdateSubscriptionFunc: func(ctx context.Context, sub domain.Subscription) error {
			got = sub
			return nil
		},
	}
	billing := &mockBilling{
		VerifyWebhookSignatureFunc: func(payload []byte, signature string) (stripe.Event, error) {
			return stripe.Event{
				ID:   "evt_1",
				Type: "customer.subscription.created",
				Data: &stripe.EventData{Raw: subJSON},
			}, nil
		},
		PlanForPriceIDFunc: func(priceID string) string {
			if priceID == "p1" {
				return "basic"
			}
			return ""
		},
	}
	engine := newTestEngine(users, &mockMailer{}, billing)

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("{}"))
	req.Header.Set("Stripe-Signature", "t=1,v1=ok")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.UserID != user.ID.String() {
		t.Errorf("sub.UserID = %q, want %q", got.UserID, user.ID)
	}
	if got.Status != domain.SubscriptionStatusActive {
		t.Errorf("sub.Status = %q", got.Status)
	}
	if got.Plan != "basic" {
		t.Errorf("sub.Plan = %q, want basic", got.Plan)
	}
	if got.StripeSubscriptionID != "sub_1" {
		t.Errorf("sub.StripeSubscriptionID = %q", got.StripeSubscriptionID)
	}
	if got.PeriodStart == nil || got.PeriodEnd == nil {
		t.Error("period bounds missing")
	}
}

func TestHandleStripeWebhook_UnknownCustomerIsAcknowledged(t *testing.T) {
	// Stripe retries non-2xx deliveries; an event for a customer this
	// deployment does not know must still be acknowledged.
	subJSON, _ := json.Marshal(map[string]any{
		"id":       "sub_1",
		"status":   "active",
		"customer": map[string]any{"id": "cus_unknown"},
	})

	billing := &mockBilling{
		VerifyWebhookSignatureFunc: func(payload []byte, signature string) (stripe.Event, error) {
			return stripe.Event{
				Type: "customer.subscription.updated",
				Data: &stripe.EventData{Raw: subJSON},
			}, nil
		},
	}
	engine := newTestEngine(&mockUserService{}, &mockMailer{}, billing)

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleStripeWebhook_PaymentSucceededSendsConfirmation(t *testing.T) {
	user := testUser()

	invoiceJSON, _ := json.Marshal(map[string]any{
		"id":                 "in_1",
		"number":             "INV-0042",
		"amount_paid":        1000,
		"currency":           "usd",
		"hosted_invoice_url": "https://invoice.example/in_1",
		"customer":           map[string]any{"id": "cus_1"},
	})

	users := &mockUserService{
		GetByStripeCustomerIDFunc: func(ctx context.Context, stripeCustomerID string) (*domain.User, error) {
			return user, nil
		},
	}
	billing := &mockBilling{
		VerifyWebhookSignatureFunc: func(payload []byte, signature string) (stripe.Event, error) {
			return stripe.Event{
				Type: "invoice.payment_succeeded",
				Data: &stripe.EventData{Raw: invoiceJSON},
			}, nil
		},
	}
	mailer := &mockMailer{}
	engine := newTestEngine(users, mailer, billing)

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "confirm-payment" {
		t.Errorf("sent = %v, want confirm-payment", mailer.sent)
	}
}

func TestHandleStripeWebhook_SubscriptionDeletedCancels(t *testing.T) {
	user := testUser()

	subJSON, _ := json.Marshal(map[string]any{
		"id":       "sub_1",
		"status":   "canceled",
		"customer": map[string]any{"id": "cus_1"},
	})

	var got domain.Subscription
	users := &mockUserService{
		GetByStripeCustomerIDFunc: func(ctx context.Context, stripeCustomerID string) (*domain.User, error) {
			return user, nil
		},
		UpdateSubscriptionFunc: func(ctx context.Context, sub domain.Subscription) error {
			got = sub
			return nil
		},
	}
	billing := &mockBilling{
		VerifyWebhookSignatureFunc: func(payload []byte, signature string) (stripe.Event, error) {
			return stripe.Event{
				Type: "customer.subscription.deleted",
				Data: &stripe.EventData{Raw: subJSON},
			}, nil
		},
	}
	engine := newTestEngine(users, &mockMailer{}, billing)

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.Status != domain.SubscriptionStatusCanceled {
		t.Errorf("sub.Status = %q, want canceled", got.Status)
	}
}
