package authcore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/email"
	"github.com/mwestcott/stackpad/internal/metrics"
)

// maxWebhookBody bounds the Stripe payload read (1MB; invoice events with
// expanded line items can exceed 64KB).
const maxWebhookBody = 1 << 20

// handleStripeWebhook processes incoming Stripe webhook events. The route is
// public; authentication is the webhook signature.
func (h *Handler) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		h.handleSubscriptionChanged(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	case "invoice.payment_succeeded":
		h.handlePaymentSucceeded(event)
	case "invoice.payment_failed":
		h.handlePaymentFailed(event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleSubscriptionChanged(event stripe.Event) {
	sub, user, ok := h.subscriptionEventUser(event)
	if !ok {
		return
	}

	plan := ""
	if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		plan = h.billing.PlanForPriceID(sub.Items.Data[0].Price.ID)
	}

	update := domain.Subscription{
		UserID:               user.ID.String(),
		StripeSubscriptionID: sub.ID,
		Status:               domain.SubscriptionStatus(sub.Status),
		Plan:                 plan,
		TrialEnd:             unixToTime(sub.TrialEnd),
		PeriodStart:          unixToTime(sub.CurrentPeriodStart),
		PeriodEnd:            unixToTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if err := h.users.UpdateSubscription(webhookCtx(), update); err != nil {
		h.logger.Error("failed to update subscription", "error", err, "user_id", user.ID)
		return
	}

	h.logger.Info("subscription synced",
		"user_id", user.ID, "status", sub.Status, "plan", plan)
}

func (h *Handler) handleSubscriptionDeleted(event stripe.Event) {
	sub, user, ok := h.subscriptionEventUser(event)
	if !ok {
		return
	}

	update := domain.Subscription{
		UserID:               user.ID.String(),
		StripeSubscriptionID: sub.ID,
		Status:               domain.SubscriptionStatusCanceled,
	}
	if err := h.users.UpdateSubscription(webhookCtx(), update); err != nil {
		h.logger.Error("failed to cancel subscription", "error", err, "user_id", user.ID)
		return
	}

	h.logger.Info("subscription deleted", "user_id", user.ID, "subscription_id", sub.ID)
}

func (h *Handler) handlePaymentSucceeded(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice event", "error", err)
		return
	}
	if invoice.Customer == nil {
		return
	}

	user, err := h.users.GetByStripeCustomerID(webhookCtx(), invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("user not found for paid invoice", "customer_id", invoice.Customer.ID)
		return
	}

	orderID := invoice.Number
	if orderID == "" {
		orderID = invoice.ID
	}
	h.sendMail("payment confirmation", func() error {
		return h.mailer.SendConfirmPayment(webhookCtx(), user.Email, email.ConfirmPaymentData{
			Name:       user.DisplayName(),
			OrderID:    orderID,
			Amount:     float64(invoice.AmountPaid) / 100,
			Currency:   string(invoice.Currency),
			InvoiceURL: invoice.HostedInvoiceURL,
		})
	})
}

func (h *Handler) handlePaymentFailed(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice event", "error", err)
		return
	}
	if invoice.Customer == nil {
		return
	}

	user, err := h.users.GetByStripeCustomerID(webhookCtx(), invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("user not found for failed invoice", "customer_id", invoice.Customer.ID)
		return
	}

	h.logger.Warn("payment failed", "user_id", user.ID, "customer_id", invoice.Customer.ID)
}

// subscriptionEventUser parses a subscription event payload and resolves the
// local user for its customer. Unknown customers are logged and skipped so
// Stripe does not retry events this deployment cannot act on.
func (h *Handler) subscriptionEventUser(event stripe.Event) (*stripe.Subscription, *domain.User, bool) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err, "type", event.Type)
		return nil, nil, false
	}
	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID)
		return nil, nil, false
	}

	user, err := h.users.GetByStripeCustomerID(webhookCtx(), sub.Customer.ID)
	if err != nil {
		h.logger.Warn("user not found for subscription event",
			"customer_id", sub.Customer.ID, "subscription_id", sub.ID)
		return nil, nil, false
	}
	return &sub, user, true
}

func unixToTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

// webhookCtx returns a background context; webhook processing is detached
// from any user request.
func webhookCtx() context.Context {
	return context.Background()
}
